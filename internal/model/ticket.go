package model

import "time"

// TicketStatus enumerates the lifecycle states of a maintenance ticket.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "new"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// Ticket is a maintenance request filed by a resident.
// Status is assigned by the backend and defaults to "new".
type Ticket struct {
	ID          int64        `db:"id" json:"id"`
	Category    string       `db:"category" json:"category"`
	Description string       `db:"description" json:"description"`
	Address     string       `db:"address" json:"address"`
	Status      TicketStatus `db:"status" json:"status"`
	ResidentID  int64        `db:"resident_id" json:"resident_id"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}
