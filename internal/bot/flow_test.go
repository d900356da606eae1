package bot

import (
	"context"
	"fmt"
	"testing"

	"github.com/estate-operations-system/backend/internal/bot/session"
	"github.com/estate-operations-system/backend/internal/upstream"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

// fakeContext implements the handful of tele.Context methods the dialog
// touches; anything else panics, which is what we want in a test.
type fakeContext struct {
	tele.Context

	chat   *tele.Chat
	sender *tele.User
	text   string
	values map[string]any
	sent   []string
}

func newChat(chatID int64) *fakeContext {
	return &fakeContext{
		chat:   &tele.Chat{ID: chatID},
		sender: &tele.User{ID: chatID, FirstName: "Иван"},
		values: make(map[string]any),
	}
}

func (f *fakeContext) Chat() *tele.Chat          { return f.chat }
func (f *fakeContext) Sender() *tele.User        { return f.sender }
func (f *fakeContext) Text() string              { return f.text }
func (f *fakeContext) Update() tele.Update       { return tele.Update{ID: 1} }
func (f *fakeContext) Get(key string) any        { return f.values[key] }
func (f *fakeContext) Set(key string, value any) { f.values[key] = value }

func (f *fakeContext) Send(what any, _ ...any) error {
	if s, ok := what.(string); ok {
		f.sent = append(f.sent, s)
	}
	return nil
}

func (f *fakeContext) say(t *testing.T, flow *Flow, text string) {
	t.Helper()
	f.text = text
	require.NoError(t, flow.onText(f))
}

func (f *fakeContext) lastSent(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type fakeAPI struct {
	calls []string

	user    upstream.User
	userErr error

	ticket     upstream.Ticket
	ticketErr  error
	lastTicket upstream.TicketPayload
}

func (a *fakeAPI) FindOrCreateUser(_ context.Context, _ upstream.Profile) (upstream.User, error) {
	a.calls = append(a.calls, "find_or_create_user")
	if a.userErr != nil {
		return upstream.User{}, a.userErr
	}
	return a.user, nil
}

func (a *fakeAPI) CreateTicket(_ context.Context, payload upstream.TicketPayload) (upstream.Ticket, error) {
	a.calls = append(a.calls, "create_ticket")
	a.lastTicket = payload
	if a.ticketErr != nil {
		return upstream.Ticket{}, a.ticketErr
	}
	return a.ticket, nil
}

func runDialog(t *testing.T, flow *Flow, c *fakeContext) {
	t.Helper()
	require.NoError(t, flow.onStart(c))
	c.say(t, flow, btnCreateTicket)
	c.say(t, flow, "Сантехника")
	c.say(t, flow, "Течёт кран на кухне")
}

func TestDialogHappyPath(t *testing.T) {
	api := &fakeAPI{
		user:   upstream.User{ID: 42},
		ticket: upstream.Ticket{ID: 7, Status: "new"},
	}
	sessions := session.NewMemoryStore()
	flow := NewFlow(api, sessions)

	c := newChat(100)
	runDialog(t, flow, c)
	c.say(t, flow, "нет")

	require.Equal(t, []string{"find_or_create_user", "create_ticket"}, api.calls)
	require.Equal(t, upstream.TicketPayload{
		Category:    "Сантехника",
		Description: "Течёт кран на кухне",
		Address:     placeholderAddress,
		ResidentID:  42,
	}, api.lastTicket)

	require.Equal(t, fmt.Sprintf(msgCreated, int64(7), "new"), c.lastSent(t))

	st, ok := sessions.Get(100)
	require.True(t, ok)
	require.IsType(t, session.Idle{}, st)
}

func TestDialogPromptSequence(t *testing.T) {
	api := &fakeAPI{user: upstream.User{ID: 1}, ticket: upstream.Ticket{ID: 1, Status: "new"}}
	flow := NewFlow(api, session.NewMemoryStore())

	c := newChat(100)
	require.NoError(t, flow.onStart(c))
	require.Equal(t, msgWelcome, c.lastSent(t))

	c.say(t, flow, btnCreateTicket)
	require.Equal(t, msgAskCategory, c.lastSent(t))

	c.say(t, flow, "Электрика")
	require.Equal(t, msgAskDescription, c.lastSent(t))

	c.say(t, flow, "Не работает розетка")
	require.Equal(t, msgAskPhoto, c.lastSent(t))
}

func TestDialogIgnoresChatWithoutStart(t *testing.T) {
	api := &fakeAPI{}
	flow := NewFlow(api, session.NewMemoryStore())

	c := newChat(100)
	c.say(t, flow, btnCreateTicket)
	c.say(t, flow, "что угодно")
	require.NoError(t, flow.onPhoto(c))

	require.Empty(t, api.calls)
	require.Empty(t, c.sent)
}

func TestDialogStartDropsCollectedFields(t *testing.T) {
	api := &fakeAPI{user: upstream.User{ID: 1}, ticket: upstream.Ticket{ID: 1, Status: "new"}}
	sessions := session.NewMemoryStore()
	flow := NewFlow(api, sessions)

	c := newChat(100)
	runDialog(t, flow, c)

	require.NoError(t, flow.onStart(c))
	st, ok := sessions.Get(100)
	require.True(t, ok)
	require.IsType(t, session.Idle{}, st)

	// Decline submits nothing once the dialog was restarted.
	c.say(t, flow, "нет")
	require.Empty(t, api.calls)
}

func TestDialogPhotoSubmits(t *testing.T) {
	api := &fakeAPI{user: upstream.User{ID: 5}, ticket: upstream.Ticket{ID: 9, Status: "new"}}
	flow := NewFlow(api, session.NewMemoryStore())

	c := newChat(100)
	runDialog(t, flow, c)
	require.NoError(t, flow.onPhoto(c))

	require.Equal(t, []string{"find_or_create_user", "create_ticket"}, api.calls)
	require.Contains(t, c.lastSent(t), "Заявка создана!")
}

func TestDialogRetainsSessionWhenBackendDown(t *testing.T) {
	api := &fakeAPI{
		user:      upstream.User{ID: 5},
		ticketErr: fmt.Errorf("%w: create ticket status 503", upstream.ErrUnavailable),
	}
	sessions := session.NewMemoryStore()
	flow := NewFlow(api, sessions)

	c := newChat(100)
	runDialog(t, flow, c)
	c.say(t, flow, "нет")

	require.Equal(t, msgRetry, c.lastSent(t))
	st, _ := sessions.Get(100)
	require.IsType(t, session.AwaitingPhoto{}, st)

	// Backend recovers, the resident resends and the ticket goes through.
	api.ticketErr = nil
	api.ticket = upstream.Ticket{ID: 12, Status: "new"}
	c.say(t, flow, "нет")

	require.Contains(t, c.lastSent(t), "№ 12")
	st, _ = sessions.Get(100)
	require.IsType(t, session.Idle{}, st)
}

func TestDialogResetsOnRejection(t *testing.T) {
	api := &fakeAPI{
		user:      upstream.User{ID: 5},
		ticketErr: &upstream.ValidationError{Status: 400, Message: "category is required"},
	}
	sessions := session.NewMemoryStore()
	flow := NewFlow(api, sessions)

	c := newChat(100)
	runDialog(t, flow, c)
	c.say(t, flow, "нет")

	require.Equal(t, msgRejected, c.lastSent(t))
	st, ok := sessions.Get(100)
	require.True(t, ok)
	require.IsType(t, session.Idle{}, st)

	// Stray text outside a dialog is dropped.
	sent := len(c.sent)
	c.say(t, flow, "нет")
	require.Len(t, c.sent, sent)

	// The start button still works without another /start.
	api.ticketErr = nil
	api.ticket = upstream.Ticket{ID: 8, Status: "new"}
	c.say(t, flow, btnCreateTicket)
	require.Equal(t, msgAskCategory, c.lastSent(t))

	c.say(t, flow, "Электрика")
	c.say(t, flow, "Выбило автомат")
	c.say(t, flow, "нет")
	require.Contains(t, c.lastSent(t), "№ 8")
}

func TestDialogResetsOnUnresolvedConflict(t *testing.T) {
	api := &fakeAPI{userErr: upstream.ErrConflictUnresolved}
	sessions := session.NewMemoryStore()
	flow := NewFlow(api, sessions)

	c := newChat(100)
	runDialog(t, flow, c)
	c.say(t, flow, "нет")

	require.Equal(t, []string{"find_or_create_user"}, api.calls)
	require.Equal(t, msgRejected, c.lastSent(t))
	st, ok := sessions.Get(100)
	require.True(t, ok)
	require.IsType(t, session.Idle{}, st)
}

func TestDialogChatsAreIndependent(t *testing.T) {
	api := &fakeAPI{user: upstream.User{ID: 1}, ticket: upstream.Ticket{ID: 3, Status: "new"}}
	sessions := session.NewMemoryStore()
	flow := NewFlow(api, sessions)

	a := newChat(1)
	b := newChat(2)

	require.NoError(t, flow.onStart(a))
	require.NoError(t, flow.onStart(b))
	a.say(t, flow, btnCreateTicket)
	a.say(t, flow, "Лифт")
	b.say(t, flow, btnCreateTicket)

	stA, _ := sessions.Get(1)
	require.IsType(t, session.AwaitingDescription{}, stA)
	stB, _ := sessions.Get(2)
	require.IsType(t, session.AwaitingCategory{}, stB)
}

func TestDialogKeepsDraftTextVerbatim(t *testing.T) {
	api := &fakeAPI{user: upstream.User{ID: 1}, ticket: upstream.Ticket{ID: 4, Status: "new"}}
	flow := NewFlow(api, session.NewMemoryStore())

	c := newChat(100)
	require.NoError(t, flow.onStart(c))
	c.say(t, flow, btnCreateTicket)
	c.say(t, flow, "  Сантехника ")
	c.say(t, flow, " кран\tтечёт ")
	require.NoError(t, flow.onPhoto(c))

	require.Equal(t, "  Сантехника ", api.lastTicket.Category)
	require.Equal(t, " кран\tтечёт ", api.lastTicket.Description)
}

func TestDialogAnyTextAtPhotoStepSubmits(t *testing.T) {
	api := &fakeAPI{user: upstream.User{ID: 1}, ticket: upstream.Ticket{ID: 2, Status: "new"}}
	flow := NewFlow(api, session.NewMemoryStore())

	c := newChat(100)
	runDialog(t, flow, c)
	c.say(t, flow, "фото не будет")

	require.Equal(t, []string{"find_or_create_user", "create_ticket"}, api.calls)
	require.Contains(t, c.lastSent(t), "Заявка создана!")
}
