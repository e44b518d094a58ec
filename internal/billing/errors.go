package billing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates a user, order or catalog item could not be located.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates the caller supplied invalid data.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a concurrent modification was detected.
	ErrConflict = errors.New("conflict")
)

// MissingItemsError lists cart references that no longer resolve to a
// catalog item.
type MissingItemsError struct {
	IDs []string
}

func (e *MissingItemsError) Error() string {
	return fmt.Sprintf("cart references unknown items: %s", strings.Join(e.IDs, ", "))
}

// Unwrap lets errors.Is match ErrNotFound.
func (e *MissingItemsError) Unwrap() error {
	return ErrNotFound
}

// UserNotFound builds the error returned when a user id does not resolve.
func UserNotFound(id string) error {
	return fmt.Errorf("user %s: %w", id, ErrNotFound)
}
