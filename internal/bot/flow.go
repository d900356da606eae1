// Package bot implements the ticket dialog: a short guided conversation
// that collects a category, a description and an optional photo, then files
// the ticket through the backend API.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/estate-operations-system/backend/core/logger"
	"github.com/estate-operations-system/backend/core/telegram"
	tghelpers "github.com/estate-operations-system/backend/core/telegram/helpers"
	"github.com/estate-operations-system/backend/core/telegram/keyboard"
	"github.com/estate-operations-system/backend/internal/bot/session"
	"github.com/estate-operations-system/backend/internal/upstream"

	tele "gopkg.in/telebot.v4"
	"log/slog"
)

const (
	btnCreateTicket = "Создать заявку"

	// Residents are not asked for an address yet; dispatch fills it in from
	// the building ledger after triage.
	placeholderAddress = "Дом 1, кв 1"

	msgWelcome        = "Добро пожаловать \n\nНажмите кнопку ниже, чтобы создать заявку."
	msgAskCategory    = "Введите категорию заявки:"
	msgAskDescription = "Опишите проблему:"
	msgAskPhoto       = "Отправьте фото (или напишите \"нет\"):"
	msgCreated        = "Заявка создана!\n\n№ %d\nСтатус: %s"
	msgRetry          = "Сервис временно недоступен. Попробуйте отправить ещё раз."
	msgRejected       = "Не удалось создать заявку. Начните заново: /start"
)

// API is the backend surface the dialog needs.
type API interface {
	FindOrCreateUser(ctx context.Context, profile upstream.Profile) (upstream.User, error)
	CreateTicket(ctx context.Context, payload upstream.TicketPayload) (upstream.Ticket, error)
}

// Flow owns the dialog state machine for all chats.
type Flow struct {
	api      API
	sessions session.Store
	locks    *session.KeyedLock
}

// NewFlow constructs a Flow over the given backend client and session store.
func NewFlow(api API, sessions session.Store) *Flow {
	return &Flow{
		api:      api,
		sessions: sessions,
		locks:    session.NewKeyedLock(),
	}
}

// Routes returns the bot handlers for registration.
func (f *Flow) Routes() []telegram.Route {
	return []telegram.Route{
		{Endpoint: "/start", Handler: f.onStart},
		{Endpoint: tele.OnText, Handler: f.onText},
		{Endpoint: tele.OnPhoto, Handler: f.onPhoto},
	}
}

// Commands returns the menu shown by Telegram clients.
func (f *Flow) Commands() []tele.Command {
	return []tele.Command{
		{Text: "start", Description: "Создать заявку"},
	}
}

// onStart opens (or reopens) a dialog. Re-sending /start mid-dialog drops
// any collected fields and returns the chat to the starting point.
func (f *Flow) onStart(c tele.Context) error {
	chatID := c.Chat().ID
	ctx := tghelpers.WithHandler(c, "start")

	unlock := f.locks.Acquire(chatID)
	defer unlock()

	f.sessions.Put(chatID, session.Idle{})

	logger.FromContext(ctx).Debug("dialog opened",
		slog.String("event", "dialog.start"),
		slog.Int64("chat_id", chatID),
	)

	return c.Send(msgWelcome, keyboard.ReplyButtons([]string{btnCreateTicket}))
}

func (f *Flow) onText(c tele.Context) error {
	chatID := c.Chat().ID

	// Trim only to detect blank input; drafts keep the text as typed.
	text := c.Text()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	unlock := f.locks.Acquire(chatID)
	defer unlock()

	st, ok := f.sessions.Get(chatID)
	if !ok {
		// Chat never sent /start; nothing to do.
		return nil
	}

	if text == btnCreateTicket {
		f.sessions.Put(chatID, session.AwaitingCategory{})
		return c.Send(msgAskCategory, keyboard.RemoveKeyboard())
	}

	switch cur := st.(type) {
	case session.AwaitingCategory:
		f.sessions.Put(chatID, session.AwaitingDescription{Category: text})
		return c.Send(msgAskDescription)

	case session.AwaitingDescription:
		f.sessions.Put(chatID, session.AwaitingPhoto{
			Category:    cur.Category,
			Description: text,
		})
		return c.Send(msgAskPhoto)

	case session.AwaitingPhoto:
		// Any text at this step, "нет" included, submits without a photo.
		return f.submit(c, chatID, cur)

	default:
		return nil
	}
}

func (f *Flow) onPhoto(c tele.Context) error {
	chatID := c.Chat().ID

	unlock := f.locks.Acquire(chatID)
	defer unlock()

	st, ok := f.sessions.Get(chatID)
	if !ok {
		return nil
	}
	cur, awaiting := st.(session.AwaitingPhoto)
	if !awaiting {
		return nil
	}
	return f.submit(c, chatID, cur)
}

// submit files the collected ticket. The caller holds the chat lock, so two
// rapid submissions from the same chat cannot both reach the backend: the
// first resets the session and the second finds the dialog gone.
func (f *Flow) submit(c tele.Context, chatID int64, st session.AwaitingPhoto) error {
	ctx := tghelpers.WithHandler(c, "ticket.submit")
	log := logger.FromContext(ctx)
	sender := c.Sender()

	user, err := f.api.FindOrCreateUser(ctx, upstream.Profile{
		TelegramID: sender.ID,
		FirstName:  sender.FirstName,
	})
	if err != nil {
		return f.submitFailed(c, chatID, "resolve_user", err)
	}

	ticket, err := f.api.CreateTicket(ctx, upstream.TicketPayload{
		Category:    st.Category,
		Description: st.Description,
		Address:     placeholderAddress,
		ResidentID:  user.ID,
	})
	if err != nil {
		return f.submitFailed(c, chatID, "create_ticket", err)
	}

	f.sessions.Reset(chatID)

	log.Info("ticket filed",
		slog.String("event", "ticket.created"),
		slog.Int64("chat_id", chatID),
		slog.Int64("ticket_id", ticket.ID),
		slog.Int64("resident_id", user.ID),
		slog.String("category", logger.Sanitize(st.Category)),
	)

	return c.Send(fmt.Sprintf(msgCreated, ticket.ID, ticket.Status))
}

// submitFailed maps a backend error to a user-visible outcome. A transient
// outage keeps the session so the resident can resend; a rejection resets
// the dialog since resending the same fields would fail again.
func (f *Flow) submitFailed(c tele.Context, chatID int64, step string, err error) error {
	ctx := tghelpers.WithHandler(c, "ticket.submit")
	log := logger.FromContext(ctx)

	if errors.Is(err, upstream.ErrUnavailable) {
		log.Warn("submission deferred",
			slog.String("event", "ticket.retryable"),
			slog.String("step", step),
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
		return c.Send(msgRetry)
	}

	f.sessions.Reset(chatID)

	log.Error("submission rejected",
		slog.String("event", "ticket.rejected"),
		slog.String("step", step),
		slog.Int64("chat_id", chatID),
		slog.String("err", err.Error()),
	)
	return c.Send(msgRejected)
}
