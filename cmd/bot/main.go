// The bot binary runs the Telegram side: a guided dialog that collects a
// maintenance ticket and files it through the REST backend.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/estate-operations-system/backend/core/config"
	"github.com/estate-operations-system/backend/core/logger"
	"github.com/estate-operations-system/backend/core/telegram"
	"github.com/estate-operations-system/backend/core/telegram/middleware"
	"github.com/estate-operations-system/backend/internal/bot"
	"github.com/estate-operations-system/backend/internal/bot/session"
	"github.com/estate-operations-system/backend/internal/upstream"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("bot: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := coreconfig.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := coreconfig.ValidateBot(cfg); err != nil {
		return err
	}

	if err := logger.InitLogger(cfg); err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	flow := bot.NewFlow(upstream.New(cfg.Backend), session.NewMemoryStore())

	middlewares := []telegram.Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logging", Use: middleware.LoggerMiddleware},
	}
	if cfg.RateLimit.IntervalMS > 0 {
		middlewares = append(middlewares, telegram.Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval: time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
			}),
		})
	}

	return telegram.Run(ctx, telegram.RunOptions{
		Config:      cfg,
		Middlewares: middlewares,
		Routes:      flow.Routes(),
		Commands:    flow.Commands(),
		OnStart: func(_ context.Context, b *tele.Bot) error {
			logger.BOT.Info("ready",
				slog.String("event", "ready"),
				slog.String("username", b.Me.Username),
			)
			return nil
		},
	})
}
