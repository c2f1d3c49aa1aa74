package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/quillstone/recall/pkg/types"
)

// RetrievalError is returned when a non-optional retrieval strategy fails.
// It carries the user and intent category for diagnostics; the cause is
// available via Unwrap.
type RetrievalError struct {
	// UserID identifies whose retrieval failed.
	UserID string

	// Category is the intent category of the failed turn.
	Category types.IntentCategory

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *RetrievalError) Error() string {
	return fmt.Sprintf("context retrieval failed for user %s (intent %s): %v", e.UserID, e.Category, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err represents an overall retrieval deadline
// being exceeded.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
