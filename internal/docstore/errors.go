package docstore

import (
	"errors"
	"fmt"
)

// ErrCorruptDocument is returned when persisted content for a key is not valid JSON
// for the requested type. It is never repaired automatically.
var ErrCorruptDocument = errors.New("corrupt document")

// CorruptDocumentError carries the key and the decode failure.
type CorruptDocumentError struct {
	Key string
	Err error
}

func (e *CorruptDocumentError) Error() string {
	return fmt.Sprintf("docstore: corrupt document %q: %v", e.Key, e.Err)
}

func (e *CorruptDocumentError) Unwrap() []error { return []error{ErrCorruptDocument, e.Err} }
