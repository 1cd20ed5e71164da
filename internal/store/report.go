package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
)

// ReportStore defines persistence operations for weekly reports.
type ReportStore interface {
	// Create saves a new report row (typically in pending status).
	Create(ctx context.Context, report *domain.Report) error

	// GetByID retrieves a report by its unique ID.
	// Returns ErrReportNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error)

	// GetCompletedByWeek retrieves the most recent successfully completed
	// report for the given week key. Reports finished with partial errors
	// count as completed. Returns ErrReportNotFound if none exists.
	GetCompletedByWeek(ctx context.Context, weekKey string) (*domain.Report, error)

	// GetLatest retrieves the most recent completed report across all weeks.
	// Returns ErrReportNotFound if no report has completed yet.
	GetLatest(ctx context.Context) (*domain.Report, error)

	// List retrieves reports ordered by creation time, newest first.
	List(ctx context.Context, limit, offset int) ([]*domain.Report, error)

	// UpdateStatus updates the status (and optional error message) of a report.
	// Returns ErrReportNotFound if it does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReportStatus, errorMessage string) error

	// SaveContent stores the generated report content and moves the report
	// to the given terminal status in one statement.
	// Returns ErrReportNotFound if it does not exist.
	SaveContent(ctx context.Context, id uuid.UUID, content *domain.ReportContent, status domain.ReportStatus) error

	// WithTx returns a new ReportStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) ReportStore
}
