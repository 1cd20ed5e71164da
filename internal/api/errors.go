package api

import (
	"errors"
	"net/http"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
	"github.com/watchtowerhq/watchtower-api/internal/service"
	"github.com/watchtowerhq/watchtower-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrCompetitorNotFound),
		errors.Is(err, service.ErrReportNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrCompetitorExists):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrEmptyCompetitorName),
		errors.Is(err, domain.ErrInvalidRepoOwner),
		errors.Is(err, domain.ErrInvalidRepoName),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, service.ErrCompetitorNotFound):
		return "Competitor not found"

	case errors.Is(err, service.ErrReportNotFound):
		return "Report not found"

	case errors.Is(err, service.ErrCompetitorExists):
		return "Competitor already tracks this repository"

	case errors.Is(err, domain.ErrEmptyCompetitorName):
		return "Competitor name is required"

	case errors.Is(err, domain.ErrInvalidRepoOwner):
		return "Invalid repository owner"

	case errors.Is(err, domain.ErrInvalidRepoName):
		return "Invalid repository name"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}
