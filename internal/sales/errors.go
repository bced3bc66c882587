package sales

import (
	"fmt"

	"github.com/sitecost/sitecost/internal/platform/httpx"
)

var (
	ErrNotFound = fmt.Errorf("sales document %w", httpx.ErrNotFound)
	// ErrDocNoConflict is returned when a freshly issued number collided with
	// a concurrent insert. Callers retry the whole transaction.
	ErrDocNoConflict = fmt.Errorf("document number %w", httpx.ErrConflict)
	// ErrChildExists signals that a child of the requested type was inserted
	// concurrently for the same parent.
	ErrChildExists = fmt.Errorf("child document %w", httpx.ErrConflict)
)

// ValidationError carries a message safe to show to the user.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return httpx.ErrValidation }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
