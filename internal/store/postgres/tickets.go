package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/estate-operations-system/backend/core/logger"
	"github.com/estate-operations-system/backend/internal/model"
	"github.com/estate-operations-system/backend/internal/store"
	"log/slog"
)

// TicketStore is the sqlx-backed implementation of store.TicketStore.
type TicketStore struct {
	db *sqlx.DB
}

// NewTicketStore wraps the shared connection pool.
func NewTicketStore(db *sqlx.DB) *TicketStore {
	return &TicketStore{db: db}
}

// Create inserts a ticket; status is assigned by the column default.
// A missing resident maps to store.ErrForeignKey.
func (s *TicketStore) Create(ctx context.Context, t store.NewTicket) (*model.Ticket, error) {
	const q = `
		INSERT INTO tickets (category, description, address, resident_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, category, description, address, status, resident_id, created_at`

	start := time.Now()
	var out model.Ticket
	err := s.db.GetContext(ctx, &out, q, t.Category, t.Description, t.Address, t.ResidentID)
	if err != nil {
		if isPGError(err, pgForeignKeyViolation) {
			return nil, store.ErrForeignKey
		}
		return nil, fmt.Errorf("insert ticket: %w", err)
	}
	logger.DB.Debug("ticket created",
		slog.String("event", "tickets.create"),
		slog.Int64("ticket_id", out.ID),
		slog.Int64("resident_id", out.ResidentID),
		slog.Duration("duration", logger.Took(start)),
	)
	return &out, nil
}

// ByID fetches a single ticket or store.ErrNotFound.
func (s *TicketStore) ByID(ctx context.Context, id int64) (*model.Ticket, error) {
	const q = `
		SELECT id, category, description, address, status, resident_id, created_at
		FROM tickets WHERE id = $1`
	var t model.Ticket
	if err := s.db.GetContext(ctx, &t, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("select ticket by id: %w", err)
	}
	return &t, nil
}

// ByResident returns the resident's tickets, newest first.
func (s *TicketStore) ByResident(ctx context.Context, residentID int64) ([]model.Ticket, error) {
	const q = `
		SELECT id, category, description, address, status, resident_id, created_at
		FROM tickets WHERE resident_id = $1 ORDER BY created_at DESC`
	tickets := []model.Ticket{}
	if err := s.db.SelectContext(ctx, &tickets, q, residentID); err != nil {
		return nil, fmt.Errorf("select tickets by resident: %w", err)
	}
	return tickets, nil
}

// List returns all tickets, newest first.
func (s *TicketStore) List(ctx context.Context) ([]model.Ticket, error) {
	const q = `
		SELECT id, category, description, address, status, resident_id, created_at
		FROM tickets ORDER BY created_at DESC`
	tickets := []model.Ticket{}
	if err := s.db.SelectContext(ctx, &tickets, q); err != nil {
		return nil, fmt.Errorf("select tickets: %w", err)
	}
	return tickets, nil
}
