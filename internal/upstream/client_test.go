package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	coreconfig "github.com/estate-operations-system/backend/core/config"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(coreconfig.BackendConfig{BaseURL: srv.URL, RequestTimeoutSeconds: 2}), srv
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 400, "data": data})
}

func TestFindOrCreateUserCreates(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/users", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeEnvelope(w, http.StatusCreated, User{ID: 10, Name: "Иван", Email: "555@telegram.local"})
	}))

	user, err := client.FindOrCreateUser(context.Background(), Profile{TelegramID: 555, FirstName: "Иван"})
	require.NoError(t, err)
	require.Equal(t, int64(10), user.ID)

	require.Equal(t, "Иван", gotBody["name"])
	require.Equal(t, "555@telegram.local", gotBody["email"])
	require.Nil(t, gotBody["age"])
}

func TestFindOrCreateUserDefaultsName(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeEnvelope(w, http.StatusCreated, User{ID: 1})
	}))

	_, err := client.FindOrCreateUser(context.Background(), Profile{TelegramID: 1})
	require.NoError(t, err)
	require.Equal(t, "Telegram User", gotBody["name"])
}

func TestFindOrCreateUserConflictFallsBackToListing(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Email уже используется"})
		case http.MethodGet:
			writeEnvelope(w, http.StatusOK, []User{
				{ID: 3, Email: "111@telegram.local"},
				{ID: 4, Email: "555@telegram.local"},
			})
		}
	}))

	user, err := client.FindOrCreateUser(context.Background(), Profile{TelegramID: 555})
	require.NoError(t, err)
	require.Equal(t, int64(4), user.ID)
}

func TestFindOrCreateUserConflictWithoutMatch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusConflict)
		case http.MethodGet:
			writeEnvelope(w, http.StatusOK, []User{{ID: 3, Email: "111@telegram.local"}})
		}
	}))

	_, err := client.FindOrCreateUser(context.Background(), Profile{TelegramID: 555})
	require.ErrorIs(t, err, ErrConflictUnresolved)
}

func TestFindOrCreateUserServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.FindOrCreateUser(context.Background(), Profile{TelegramID: 1})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFindOrCreateUserTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := New(coreconfig.BackendConfig{BaseURL: srv.URL, RequestTimeoutSeconds: 1})

	_, err := client.FindOrCreateUser(context.Background(), Profile{TelegramID: 1})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFindOrCreateUserTimeout(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	client.timeout = 50 * time.Millisecond

	_, err := client.FindOrCreateUser(context.Background(), Profile{TelegramID: 1})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestCreateTicket(t *testing.T) {
	var gotPayload TicketPayload
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tickets", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		writeEnvelope(w, http.StatusCreated, Ticket{ID: 7, Status: "new", ResidentID: 10})
	}))

	payload := TicketPayload{
		Category:    "Сантехника",
		Description: "Течёт кран",
		Address:     "Дом 1, кв 1",
		ResidentID:  10,
	}
	ticket, err := client.CreateTicket(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, int64(7), ticket.ID)
	require.Equal(t, "new", ticket.Status)
	require.Equal(t, payload, gotPayload)
}

func TestCreateTicketValidationRejected(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Не заполнены обязательные поля"})
	}))

	_, err := client.CreateTicket(context.Background(), TicketPayload{ResidentID: 1})
	require.ErrorIs(t, err, ErrValidationRejected)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, http.StatusBadRequest, verr.Status)
	require.Equal(t, "Не заполнены обязательные поля", verr.Message)
}

func TestCreateTicketServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.CreateTicket(context.Background(), TicketPayload{})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestContactEmail(t *testing.T) {
	require.Equal(t, "99887766@telegram.local", Profile{TelegramID: 99887766}.ContactEmail())
}
