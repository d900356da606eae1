// The api binary serves the REST backend: resident accounts and
// maintenance tickets over PostgreSQL.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"log/slog"

	coreconfig "github.com/estate-operations-system/backend/core/config"
	"github.com/estate-operations-system/backend/core/database"
	"github.com/estate-operations-system/backend/core/logger"
	"github.com/estate-operations-system/backend/internal/api"
	"github.com/estate-operations-system/backend/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("api: %v", err)
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
	if err := coreconfig.ValidateAPI(cfg); err != nil {
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

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		return err
	}

	router := api.NewRouter(
		api.NewUserHandler(postgres.NewUserStore(db)),
		api.NewTicketHandler(postgres.NewTicketStore(db)),
	)

	logger.API.Info("starting",
		slog.String("event", "startup"),
		slog.String("listen", cfg.HTTP.Addr()),
	)

	return api.Serve(ctx, cfg.HTTP, router)
}
