// Package store defines the persistence interfaces consumed by the REST API
// handlers. The postgres subpackage provides the sqlx implementation.
package store

import (
	"context"

	"github.com/estate-operations-system/backend/internal/model"
)

// NewUser carries the fields accepted on user creation.
type NewUser struct {
	Name  string
	Email string
	Age   *int
}

// UserUpdate carries the mutable user fields; nil means "leave unchanged".
type UserUpdate struct {
	Name  *string
	Email *string
	Age   *int
}

// NewTicket carries the fields accepted on ticket creation.
// Status is assigned by the store.
type NewTicket struct {
	Category    string
	Description string
	Address     string
	ResidentID  int64
}

// UserStore persists resident accounts.
type UserStore interface {
	Create(ctx context.Context, u NewUser) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, id int64, upd UserUpdate) (*model.User, error)
	Delete(ctx context.Context, id int64) error
}

// TicketStore persists maintenance tickets.
type TicketStore interface {
	Create(ctx context.Context, t NewTicket) (*model.Ticket, error)
	ByID(ctx context.Context, id int64) (*model.Ticket, error)
	ByResident(ctx context.Context, residentID int64) ([]model.Ticket, error)
	List(ctx context.Context) ([]model.Ticket, error)
}
