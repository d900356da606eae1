package telegram

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/estate-operations-system/backend/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// BuildPoller selects the update transport from the bot configuration:
// a webhook listener when run_mode is webhook, long polling otherwise.
func BuildPoller(tg coreconfig.TelegramConfig, wh coreconfig.WebhookConfig) tele.Poller {
	if strings.EqualFold(strings.TrimSpace(tg.RunMode), coreconfig.RunModeWebhook) {
		return &tele.Webhook{
			Listen:   fmt.Sprintf("%s:%d", wh.Listen, wh.Port),
			Endpoint: &tele.WebhookEndpoint{PublicURL: wh.URL},
		}
	}

	timeout := defaultLongPollTimeout
	if tg.LongPollTimeoutSeconds > 0 {
		timeout = time.Duration(tg.LongPollTimeoutSeconds) * time.Second
	}
	return &tele.LongPoller{Timeout: timeout}
}
