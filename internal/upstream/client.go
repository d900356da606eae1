// Package upstream is the bot's client for the ticket backend API.
// It exposes the two operations the conversation flow needs: resolving
// the sender to a backend user (find-or-create) and filing a ticket.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	coreconfig "github.com/estate-operations-system/backend/core/config"
	"github.com/estate-operations-system/backend/core/logger"
	"github.com/estate-operations-system/backend/core/netutil"
	"log/slog"
)

const contactDomain = "telegram.local"

// User is the backend's view of a resident account.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Ticket is the backend's view of a filed ticket.
type Ticket struct {
	ID          int64  `json:"id"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Status      string `json:"status"`
	ResidentID  int64  `json:"resident_id"`
}

// Profile identifies the Telegram sender a ticket is filed for.
type Profile struct {
	TelegramID int64
	FirstName  string
}

// ContactEmail synthesizes the deterministic contact identifier used as the
// idempotency key for find-or-create.
func (p Profile) ContactEmail() string {
	return fmt.Sprintf("%d@%s", p.TelegramID, contactDomain)
}

// TicketPayload carries a complete ticket submission.
type TicketPayload struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Address     string `json:"address"`
	ResidentID  int64  `json:"resident_id"`
}

// Client talks to the backend REST API with bounded per-call timeouts.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// New builds a Client from backend configuration.
func New(cfg coreconfig.BackendConfig) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Transport: transport},
		timeout: cfg.RequestTimeout(),
	}
}

// apiEnvelope mirrors the backend's response shape.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// FindOrCreateUser resolves the sender to a backend user.
//
// It first attempts creation keyed by the synthesized contact email. On a
// duplicate conflict it lists all users and scans for the matching contact;
// an empty scan is reported as ErrConflictUnresolved rather than left to
// surface as a decode failure.
func (c *Client) FindOrCreateUser(ctx context.Context, profile Profile) (User, error) {
	email := profile.ContactEmail()
	name := profile.FirstName
	if name == "" {
		name = "Telegram User"
	}

	body := map[string]any{
		"name":  name,
		"email": email,
		"age":   nil,
	}

	status, raw, err := c.do(ctx, http.MethodPost, "/api/users", body)
	if err != nil {
		return User{}, err
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		var u User
		if err := decodeData(raw, &u); err != nil {
			return User{}, fmt.Errorf("decode created user: %w", err)
		}
		return u, nil

	case status == http.StatusConflict:
		return c.findByContact(ctx, email)

	case status >= 500:
		return User{}, fmt.Errorf("%w: create user status %d", ErrUnavailable, status)

	default:
		return User{}, &ValidationError{Status: status, Message: errorMessage(raw)}
	}
}

func (c *Client) findByContact(ctx context.Context, email string) (User, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "/api/users", nil)
	if err != nil {
		return User{}, err
	}
	if status != http.StatusOK {
		return User{}, fmt.Errorf("%w: list users status %d", ErrUnavailable, status)
	}

	var users []User
	if err := decodeData(raw, &users); err != nil {
		return User{}, fmt.Errorf("decode user list: %w", err)
	}
	for _, u := range users {
		if u.Email == email {
			logger.UP.Debug("conflict resolved via listing",
				slog.String("event", "users.conflict_fallback"),
				slog.Int64("user_id", u.ID),
			)
			return u, nil
		}
	}
	return User{}, ErrConflictUnresolved
}

// CreateTicket files a complete ticket and returns the stored entity.
func (c *Client) CreateTicket(ctx context.Context, payload TicketPayload) (Ticket, error) {
	status, raw, err := c.do(ctx, http.MethodPost, "/api/tickets", payload)
	if err != nil {
		return Ticket{}, err
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		var t Ticket
		if err := decodeData(raw, &t); err != nil {
			return Ticket{}, fmt.Errorf("decode created ticket: %w", err)
		}
		return t, nil

	case status >= 500:
		return Ticket{}, fmt.Errorf("%w: create ticket status %d", ErrUnavailable, status)

	default:
		return Ticket{}, &ValidationError{Status: status, Message: errorMessage(raw)}
	}
}

// do performs one bounded request and returns the status code with the raw
// body. Transport failures and timeouts map to ErrUnavailable so the flow
// can keep the session and offer a retry.
func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		kind := netutil.Classify(err)
		logger.UP.Warn("request failed",
			slog.String("event", "upstream.request"),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("cause", kind),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return 0, nil, fmt.Errorf("%w: %s %s: %s", ErrUnavailable, method, path, kind)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read response: %s", ErrUnavailable, netutil.Classify(err))
	}

	logger.UP.Debug("request done",
		slog.String("event", "upstream.request"),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("http_code", resp.StatusCode),
		slog.Duration("duration", logger.Took(start)),
	)

	return resp.StatusCode, raw, nil
}

// decodeData unmarshals the envelope's data payload into out.
func decodeData(raw []byte, out any) error {
	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("empty data payload")
	}
	return json.Unmarshal(env.Data, out)
}

// errorMessage extracts the backend's error text from a rejection body.
func errorMessage(raw []byte) string {
	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return env.Error
}
