package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
	"github.com/watchtowerhq/watchtower-api/internal/events"
	"github.com/watchtowerhq/watchtower-api/internal/store"
	"github.com/watchtowerhq/watchtower-api/internal/task"
)

// IntelligenceService coordinates weekly report generation. Reports are
// produced asynchronously: RequestReport returns either a cached report
// for the current week or a pending one whose generation has been
// enqueued.
type IntelligenceService interface {
	// RequestReport returns the completed report for the current week if
	// one exists. Otherwise (or when force is true) it creates a pending
	// report, enqueues its generation, and returns it immediately.
	RequestReport(ctx context.Context, force bool) (*domain.Report, error)

	// GetReport retrieves a report by ID, whatever its status.
	GetReport(ctx context.Context, id uuid.UUID) (*domain.Report, error)

	// GetLatestReport retrieves the most recent completed report.
	GetLatestReport(ctx context.Context) (*domain.Report, error)

	// ListReports returns reports ordered by creation time, newest first.
	ListReports(ctx context.Context, limit, offset int) ([]*domain.Report, error)
}

type intelligenceServiceImpl struct {
	reports store.ReportStore
	emitter events.EventEmitter
	logger  *slog.Logger
	now     func() time.Time
}

// NewIntelligenceService creates an IntelligenceService backed by the
// given report store and event emitter.
func NewIntelligenceService(
	reports store.ReportStore,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (IntelligenceService, error) {
	if reports == nil {
		return nil, &ServiceError{
			Operation: "create_service",
			Message:   "report store cannot be nil",
		}
	}
	if emitter == nil {
		return nil, &ServiceError{
			Operation: "create_service",
			Message:   "event emitter cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &intelligenceServiceImpl{
		reports: reports,
		emitter: emitter,
		logger:  logger.With("component", "intelligence_service"),
		now:     time.Now,
	}, nil
}

func (s *intelligenceServiceImpl) RequestReport(ctx context.Context, force bool) (*domain.Report, error) {
	weekKey := domain.WeekKey(s.now())

	if !force {
		cached, err := s.reports.GetCompletedByWeek(ctx, weekKey)
		if err == nil {
			s.logger.Info("serving cached weekly report",
				"report_id", cached.ID,
				"week_key", weekKey)
			return cached, nil
		}
		if !errors.Is(err, store.ErrReportNotFound) {
			s.logger.Error("failed to look up cached report",
				"error", err,
				"week_key", weekKey)
			return nil, newServiceError("request_report", "failed to look up cached report", err)
		}
	}

	report, err := domain.NewReport(weekKey)
	if err != nil {
		return nil, newServiceError("request_report", "failed to create report", err)
	}

	if err := s.reports.Create(ctx, report); err != nil {
		s.logger.Error("failed to save pending report",
			"error", err,
			"week_key", weekKey)
		return nil, newServiceError("request_report", "failed to save report", err)
	}

	payload := map[string]string{
		"report_id": report.ID.String(),
		"week_key":  weekKey,
	}

	event, err := events.NewTaskRequestEvent(task.TaskTypeReportGeneration, payload)
	if err != nil {
		s.failReport(ctx, report.ID, "failed to create generation event")
		return nil, newServiceError("request_report", "failed to create event", err)
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit report generation event",
			"error", err,
			"report_id", report.ID,
			"event_id", event.ID)
		s.failReport(ctx, report.ID, "failed to enqueue generation task")
		return nil, newServiceError("request_report", "failed to emit event", err)
	}

	s.logger.Info("report generation requested",
		"report_id", report.ID,
		"week_key", weekKey,
		"force", force,
		"event_id", event.ID)
	return report, nil
}

// failReport marks a report failed when its generation could not be
// enqueued, so it is not left pending forever. Best effort.
func (s *intelligenceServiceImpl) failReport(ctx context.Context, id uuid.UUID, reason string) {
	if err := s.reports.UpdateStatus(ctx, id, domain.ReportStatusFailed, reason); err != nil {
		s.logger.Error("failed to mark orphaned report as failed",
			"error", err,
			"report_id", id)
	}
}

func (s *intelligenceServiceImpl) GetReport(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, newServiceError("get_report", "failed to retrieve report", err)
	}
	return report, nil
}

func (s *intelligenceServiceImpl) GetLatestReport(ctx context.Context) (*domain.Report, error) {
	report, err := s.reports.GetLatest(ctx)
	if err != nil {
		return nil, newServiceError("get_latest_report", "failed to retrieve latest report", err)
	}
	return report, nil
}

func (s *intelligenceServiceImpl) ListReports(ctx context.Context, limit, offset int) ([]*domain.Report, error) {
	reports, err := s.reports.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list reports", "error", err)
		return nil, newServiceError("list_reports", "failed to list reports", err)
	}
	return reports, nil
}
