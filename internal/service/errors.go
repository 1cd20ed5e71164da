package service

import (
	"errors"
	"fmt"

	"github.com/watchtowerhq/watchtower-api/internal/store"
)

// Common sentinel errors returned by services. Handlers map these to
// HTTP status codes.
var (
	// ErrCompetitorNotFound indicates the competitor does not exist.
	ErrCompetitorNotFound = errors.New("competitor not found")

	// ErrCompetitorExists indicates a competitor already tracks the same
	// GitHub repository.
	ErrCompetitorExists = errors.New("competitor already exists")

	// ErrReportNotFound indicates the report does not exist.
	ErrReportNotFound = errors.New("report not found")
)

// ServiceError wraps errors from the service layer with context about
// the failed operation.
type ServiceError struct {
	// Operation is the operation that failed (e.g. "add_competitor").
	Operation string
	// Message is a human-readable description of the error.
	Message string
	// Err is the underlying error that caused the failure.
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// newServiceError creates a ServiceError, translating known store
// sentinels to their service-level equivalents first.
func newServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, store.ErrCompetitorNotFound):
		return ErrCompetitorNotFound
	case errors.Is(err, store.ErrCompetitorExists):
		return ErrCompetitorExists
	case errors.Is(err, store.ErrReportNotFound):
		return ErrReportNotFound
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
