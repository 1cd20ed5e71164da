package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g. a competitor tracking the same repository).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored, or violates a database constraint (e.g. a foreign key).
	// Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrCompetitorNotFound indicates that the requested competitor does not exist.
	ErrCompetitorNotFound = fmt.Errorf("%w: competitor", ErrNotFound)

	// ErrReportNotFound indicates that the requested report does not exist.
	ErrReportNotFound = fmt.Errorf("%w: report", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrCompetitorExists indicates a competitor already tracks the same
	// owner/repo pair.
	ErrCompetitorExists = fmt.Errorf("%w: competitor repository", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
