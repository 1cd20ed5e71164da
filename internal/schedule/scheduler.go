// Package schedule triggers weekly report generation on a cron schedule,
// so a fresh report is ready before the first dashboard visit of the week.
package schedule

import (
	"context"
	"errors"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
)

// defaultSpec runs once a week, matching the report cadence.
const defaultSpec = "@weekly"

// ErrNilRequester indicates the scheduler was constructed without a requester.
var ErrNilRequester = errors.New("report requester cannot be nil")

// ReportRequester requests generation of the current week's report.
// Implemented by service.IntelligenceService.
type ReportRequester interface {
	RequestReport(ctx context.Context, force bool) (*domain.Report, error)
}

// Scheduler runs the weekly report request on a cron schedule. Requests
// are not forced: if the week's report already exists, the run is a no-op.
type Scheduler struct {
	requester ReportRequester
	cron      *cron.Cron
	spec      string
	logger    *slog.Logger
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithSpec overrides the cron specification for report generation.
func WithSpec(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.spec = spec
		}
	}
}

// NewScheduler constructs a Scheduler with a weekly default schedule.
func NewScheduler(requester ReportRequester, logger *slog.Logger, opts ...Option) (*Scheduler, error) {
	if requester == nil {
		return nil, ErrNilRequester
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		requester: requester,
		spec:      defaultSpec,
		logger:    logger.With(slog.String("component", "scheduler")),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return s, nil
}

// Start registers the report job with the cron scheduler and launches it.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.logger.Warn("scheduled report request failed", "error", err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("report scheduler started", "spec", s.spec)
	return nil
}

// Stop halts the underlying scheduler, waiting for any running job to complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce requests the current week's report immediately.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	report, err := s.requester.RequestReport(ctx, false)
	if err != nil {
		return err
	}

	s.logger.Info("scheduled report request completed",
		"report_id", report.ID,
		"week_key", report.WeekKey,
		"status", report.Status)
	return nil
}
