package telegram

import (
	"testing"
	"time"

	coreconfig "github.com/estate-operations-system/backend/core/config"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerLongpollDefault(t *testing.T) {
	p := BuildPoller(coreconfig.TelegramConfig{RunMode: coreconfig.RunModeLongpoll}, coreconfig.WebhookConfig{})

	lp, ok := p.(*tele.LongPoller)
	require.True(t, ok)
	require.Equal(t, 10*time.Second, lp.Timeout)
}

func TestBuildPollerLongpollTimeout(t *testing.T) {
	p := BuildPoller(coreconfig.TelegramConfig{
		RunMode:                coreconfig.RunModeLongpoll,
		LongPollTimeoutSeconds: 25,
	}, coreconfig.WebhookConfig{})

	lp, ok := p.(*tele.LongPoller)
	require.True(t, ok)
	require.Equal(t, 25*time.Second, lp.Timeout)
}

func TestBuildPollerWebhook(t *testing.T) {
	p := BuildPoller(coreconfig.TelegramConfig{RunMode: coreconfig.RunModeWebhook}, coreconfig.WebhookConfig{
		Listen: "0.0.0.0",
		Port:   8443,
		URL:    "https://bot.example.com/hook",
	})

	wh, ok := p.(*tele.Webhook)
	require.True(t, ok)
	require.Equal(t, "0.0.0.0:8443", wh.Listen)
	require.Equal(t, "https://bot.example.com/hook", wh.Endpoint.PublicURL)
}
