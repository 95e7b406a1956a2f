package ledger

import "fmt"

// StorageError wraps a storage backend failure with the operation that
// produced it.
type StorageError struct {
	// Op is the store operation ("append", "query", "sum", "delete",
	// "open", "close").
	Op string

	// Backend identifies the store implementation ("memory", "sqlite").
	Backend string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger storage %s (%s): %v", e.Op, e.Backend, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// newStorageError creates a StorageError.
func newStorageError(op, backend string, err error) *StorageError {
	return &StorageError{Op: op, Backend: backend, Err: err}
}
