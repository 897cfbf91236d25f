package moderation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrInvalidUpdate     = errors.New("invalid update")
	ErrDuplicateID       = errors.New("duplicate entry id")
)

// ValidationError carries every message the validator produced. Kind is
// ErrInvalidSubmission or ErrInvalidUpdate.
type ValidationError struct {
	Kind   error
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, strings.Join(e.Errors, "; "))
}

func (e *ValidationError) Unwrap() error { return e.Kind }
