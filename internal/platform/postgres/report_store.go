package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
	"github.com/watchtowerhq/watchtower-api/internal/platform/logger"
	"github.com/watchtowerhq/watchtower-api/internal/store"
)

// PostgresReportStore implements the store.ReportStore interface using a
// PostgreSQL database as the storage backend. Report content is stored as
// JSONB.
type PostgresReportStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReportStore creates a new PostgreSQL implementation of the
// ReportStore interface. If logger is nil, a default logger is used.
func NewPostgresReportStore(db store.DBTX, logger *slog.Logger) *PostgresReportStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReportStore{
		db:     db,
		logger: logger.With(slog.String("component", "report_store")),
	}
}

// Ensure PostgresReportStore implements store.ReportStore
var _ store.ReportStore = (*PostgresReportStore)(nil)

const reportColumns = `id, week_key, status, content, error_message, created_at, updated_at`

// Create implements store.ReportStore.Create
// It saves a new report row, handling domain validation.
func (s *PostgresReportStore) Create(ctx context.Context, report *domain.Report) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := report.Validate(); err != nil {
		log.Warn("report validation failed during create",
			slog.String("error", err.Error()),
			slog.String("report_id", report.ID.String()))
		return err
	}

	contentJSON, err := marshalContent(report.Content)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO reports (id, week_key, status, content, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		report.ID,
		report.WeekKey,
		report.Status,
		contentJSON,
		nullableString(report.ErrorMessage),
		report.CreatedAt,
		report.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create report",
			slog.String("error", err.Error()),
			slog.String("report_id", report.ID.String()),
			slog.String("week_key", report.WeekKey))
		return MapError(err)
	}

	log.Info("report created successfully",
		slog.String("report_id", report.ID.String()),
		slog.String("week_key", report.WeekKey),
		slog.String("status", string(report.Status)))
	return nil
}

// GetByID implements store.ReportStore.GetByID
// Returns store.ErrReportNotFound if the report does not exist.
func (s *PostgresReportStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

	report, err := s.scanReport(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("report not found", slog.String("report_id", id.String()))
			return nil, store.ErrReportNotFound
		}
		log.Error("failed to get report by ID",
			slog.String("error", err.Error()),
			slog.String("report_id", id.String()))
		return nil, MapError(err)
	}

	return report, nil
}

// GetCompletedByWeek implements store.ReportStore.GetCompletedByWeek
// Reports finished with partial errors count as completed.
// Returns store.ErrReportNotFound if none exists for the week.
func (s *PostgresReportStore) GetCompletedByWeek(ctx context.Context, weekKey string) (*domain.Report, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE week_key = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1
	`

	report, err := s.scanReport(s.db.QueryRowContext(
		ctx, query, weekKey,
		domain.ReportStatusCompleted, domain.ReportStatusCompletedWithErrors,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no completed report for week", slog.String("week_key", weekKey))
			return nil, store.ErrReportNotFound
		}
		log.Error("failed to get completed report by week",
			slog.String("error", err.Error()),
			slog.String("week_key", weekKey))
		return nil, MapError(err)
	}

	return report, nil
}

// GetLatest implements store.ReportStore.GetLatest
// Returns store.ErrReportNotFound if no report has completed yet.
func (s *PostgresReportStore) GetLatest(ctx context.Context) (*domain.Report, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE status IN ($1, $2)
		ORDER BY created_at DESC
		LIMIT 1
	`

	report, err := s.scanReport(s.db.QueryRowContext(
		ctx, query,
		domain.ReportStatusCompleted, domain.ReportStatusCompletedWithErrors,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no completed reports exist yet")
			return nil, store.ErrReportNotFound
		}
		log.Error("failed to get latest report", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return report, nil
}

// List implements store.ReportStore.List
// It retrieves reports ordered by creation time, newest first.
func (s *PostgresReportStore) List(ctx context.Context, limit, offset int) ([]*domain.Report, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + reportColumns + `
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		log.Error("failed to list reports", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	reports := []*domain.Report{}
	for rows.Next() {
		report, err := s.scanReport(rows)
		if err != nil {
			log.Error("failed to scan report row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("listed reports",
		slog.Int("count", len(reports)),
		slog.Int("limit", limit),
		slog.Int("offset", offset))
	return reports, nil
}

// UpdateStatus implements store.ReportStore.UpdateStatus
// Returns store.ErrReportNotFound if the report does not exist.
func (s *PostgresReportStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.ReportStatus,
	errorMessage string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.IsValid() {
		return domain.ErrInvalidReportStatus
	}

	query := `
		UPDATE reports
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, status, nullableString(errorMessage), time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update report status",
			slog.String("error", err.Error()),
			slog.String("report_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "report"); err != nil {
		log.Debug("report not found for status update",
			slog.String("report_id", id.String()))
		return fmt.Errorf("%w: %v", store.ErrReportNotFound, err)
	}

	log.Info("report status updated",
		slog.String("report_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// SaveContent implements store.ReportStore.SaveContent
// It stores the generated content and the terminal status in one statement.
// Returns store.ErrReportNotFound if the report does not exist.
func (s *PostgresReportStore) SaveContent(
	ctx context.Context,
	id uuid.UUID,
	content *domain.ReportContent,
	status domain.ReportStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if content == nil {
		return fmt.Errorf("%w: report content cannot be nil", store.ErrInvalidEntity)
	}
	if !status.IsValid() {
		return domain.ErrInvalidReportStatus
	}

	contentJSON, err := marshalContent(content)
	if err != nil {
		return err
	}

	query := `
		UPDATE reports
		SET content = $1, status = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, contentJSON, status, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to save report content",
			slog.String("error", err.Error()),
			slog.String("report_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "report"); err != nil {
		log.Debug("report not found for content save",
			slog.String("report_id", id.String()))
		return fmt.Errorf("%w: %v", store.ErrReportNotFound, err)
	}

	log.Info("report content saved",
		slog.String("report_id", id.String()),
		slog.String("status", string(status)),
		slog.Int("analyses", len(content.Analyses)))
	return nil
}

// WithTx implements store.ReportStore.WithTx
// It returns a new store instance bound to the given transaction.
func (s *PostgresReportStore) WithTx(tx *sql.Tx) store.ReportStore {
	return &PostgresReportStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner lets scanReport work over both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanReport scans one report row, unmarshalling the JSONB content column.
func (s *PostgresReportStore) scanReport(row rowScanner) (*domain.Report, error) {
	var report domain.Report
	var status string
	var contentJSON []byte
	var errorMessage sql.NullString

	err := row.Scan(
		&report.ID,
		&report.WeekKey,
		&status,
		&contentJSON,
		&errorMessage,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	report.Status = domain.ReportStatus(status)
	report.ErrorMessage = errorMessage.String

	if len(contentJSON) > 0 {
		var content domain.ReportContent
		if err := json.Unmarshal(contentJSON, &content); err != nil {
			return nil, fmt.Errorf("unmarshal report content: %w", err)
		}
		report.Content = &content
	}

	return &report, nil
}

// marshalContent serializes report content for the JSONB column. A nil
// content maps to SQL NULL.
func marshalContent(content *domain.ReportContent) (any, error) {
	if content == nil {
		return nil, nil
	}
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal report content: %w", err)
	}
	return contentJSON, nil
}

// nullableString maps an empty string to SQL NULL.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
