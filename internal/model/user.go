package model

import "time"

// User is a resident account in the property-management backend.
// Email is unique; bot-created accounts carry a synthesized
// "<telegram_id>@telegram.local" address standing in for real credentials.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Age       *int      `db:"age" json:"age,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
