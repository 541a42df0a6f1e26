package store

import (
	"errors"
	"fmt"
)

var (
	// ErrWriteFailure wraps every failed insert, update or delete. The
	// underlying cause is wrapped alongside it.
	ErrWriteFailure = errors.New("write failure")

	// ErrInvalidReference is reserved for entries pointing at a journal that
	// does not exist. It is not raised: entries may reference missing or
	// soft-deleted journals.
	ErrInvalidReference = errors.New("invalid journal reference")

	// ErrInvalidQuery is returned when a query shape does not match the
	// entity kind it is run against.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
)

// writeFailure marks err as a write failure of op while keeping err itself
// reachable through errors.Is.
func writeFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrWriteFailure, op, err)
}
