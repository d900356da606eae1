package upstream

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable covers transport failures, timeouts and 5xx responses.
	// The caller may retry with the same input.
	ErrUnavailable = errors.New("upstream: backend unavailable")

	// ErrConflictUnresolved is returned when user creation hit a duplicate
	// conflict but the fallback listing contained no matching contact,
	// e.g. after a race with a concurrent delete.
	ErrConflictUnresolved = errors.New("upstream: duplicate-user conflict unresolved")

	// ErrValidationRejected marks 4xx rejections other than the duplicate
	// conflict. Retrying the same payload cannot succeed.
	ErrValidationRejected = errors.New("upstream: payload rejected")
)

// ValidationError carries the backend's message for a 4xx rejection.
// It matches ErrValidationRejected via errors.Is.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream: payload rejected (%d)", e.Status)
	}
	return fmt.Sprintf("upstream: payload rejected (%d): %s", e.Status, e.Message)
}

// Is reports equivalence with the ErrValidationRejected sentinel.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationRejected
}
