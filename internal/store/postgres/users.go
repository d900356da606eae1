package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/estate-operations-system/backend/core/logger"
	"github.com/estate-operations-system/backend/internal/model"
	"github.com/estate-operations-system/backend/internal/store"
	"log/slog"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// UserStore is the sqlx-backed implementation of store.UserStore.
type UserStore struct {
	db *sqlx.DB
}

// NewUserStore wraps the shared connection pool.
func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a user and returns the stored row.
// A unique-constraint violation on email maps to store.ErrDuplicateEmail.
func (s *UserStore) Create(ctx context.Context, u store.NewUser) (*model.User, error) {
	const q = `
		INSERT INTO users (name, email, age)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, age, created_at`

	start := time.Now()
	var out model.User
	err := s.db.GetContext(ctx, &out, q, u.Name, u.Email, u.Age)
	if err != nil {
		if isPGError(err, pgUniqueViolation) {
			return nil, store.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	logger.DB.Debug("user created",
		slog.String("event", "users.create"),
		slog.Int64("user_id", out.ID),
		slog.Duration("duration", logger.Took(start)),
	)
	return &out, nil
}

// List returns all users ordered by id.
func (s *UserStore) List(ctx context.Context) ([]model.User, error) {
	const q = `SELECT id, name, email, age, created_at FROM users ORDER BY id`
	users := []model.User{}
	if err := s.db.SelectContext(ctx, &users, q); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return users, nil
}

// ByID fetches a single user or store.ErrNotFound.
func (s *UserStore) ByID(ctx context.Context, id int64) (*model.User, error) {
	const q = `SELECT id, name, email, age, created_at FROM users WHERE id = $1`
	var u model.User
	if err := s.db.GetContext(ctx, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("select user by id: %w", err)
	}
	return &u, nil
}

// ByEmail fetches a single user by email or store.ErrNotFound.
func (s *UserStore) ByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT id, name, email, age, created_at FROM users WHERE email = $1`
	var u model.User
	if err := s.db.GetContext(ctx, &u, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("select user by email: %w", err)
	}
	return &u, nil
}

// Update applies the non-nil fields and returns the updated row.
func (s *UserStore) Update(ctx context.Context, id int64, upd store.UserUpdate) (*model.User, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if upd.Name != nil {
		args = append(args, *upd.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if upd.Email != nil {
		args = append(args, *upd.Email)
		sets = append(sets, fmt.Sprintf("email = $%d", len(args)))
	}
	if upd.Age != nil {
		args = append(args, *upd.Age)
		sets = append(sets, fmt.Sprintf("age = $%d", len(args)))
	}
	if len(sets) == 0 {
		return s.ByID(ctx, id)
	}
	args = append(args, id)
	q := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $%d RETURNING id, name, email, age, created_at`,
		strings.Join(sets, ", "), len(args),
	)

	var u model.User
	if err := s.db.GetContext(ctx, &u, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		if isPGError(err, pgUniqueViolation) {
			return nil, store.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}

// Delete removes a user or returns store.ErrNotFound.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isPGError(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}
