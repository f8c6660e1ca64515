// Package core provides the decaying-strength memory client.
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/oceanbase/decaymem-go/pkg/vectors"
)

// Predefined errors for common failure scenarios. Check them with errors.Is.
var (
	// ErrValidation indicates malformed input, rejected before any external call.
	ErrValidation = errors.New("validation failed")

	// ErrDependency indicates that the vector index, embedding model or
	// sentiment analyzer was unreachable or returned an error.
	ErrDependency = errors.New("dependency failed")

	// ErrDependencyTimeout indicates that a dependency call exceeded its deadline.
	// It also matches ErrDependency.
	ErrDependencyTimeout = fmt.Errorf("%w: timed out", ErrDependency)

	// ErrStorage indicates that a write to the vector index failed.
	ErrStorage = errors.New("storage operation failed")

	// ErrMode indicates an operation called in the wrong insert mode.
	ErrMode = errors.New("wrong insert mode")

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotAvailable indicates that the client is closed or was never initialized.
	ErrNotAvailable = errors.New("memory store not available")
)

// MemoryError wraps errors with operation context.
//
// It provides additional context about which operation failed,
// making error messages more informative for debugging.
//
// Example:
//
//	err := &MemoryError{
//	    Op:  "Store",
//	    Err: ErrStorage,
//	}
//	// Error() returns: "decaymem: Store: storage operation failed"
type MemoryError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
//
// The format is: "decaymem: <Op>: <Err>"
func (e *MemoryError) Error() string {
	return fmt.Sprintf("decaymem: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
//
// This allows using errors.Is() and errors.As() with MemoryError.
func (e *MemoryError) Unwrap() error {
	return e.Err
}

// NewMemoryError creates a new MemoryError wrapping the given error.
//
// If err is nil, returns nil. This allows safe error wrapping:
//
//	if err != nil {
//	    return NewMemoryError("Store", err)
//	}
//
// Parameters:
//   - op: Name of the operation (e.g., "Store", "Retrieve", "Cleanup")
//   - err: The underlying error to wrap
//
// Returns a MemoryError, or nil if err is nil.
func NewMemoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &MemoryError{
		Op:  op,
		Err: err,
	}
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// dependencyError classifies a failed call to a collaborator.
func dependencyError(what string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ErrDependencyTimeout, what, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrDependency, what, err)
}

// generationError classifies a failed vector generation. A vector of the
// wrong length is a validation failure; anything else came from the model.
func generationError(err error) error {
	if errors.Is(err, vectors.ErrDimensionMismatch) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return dependencyError("embedding model", err)
}

// storageError classifies a failed index write. A timeout matches both
// ErrStorage and ErrDependencyTimeout.
func storageError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w: %w", ErrStorage, ErrDependencyTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
