package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
	"github.com/watchtowerhq/watchtower-api/internal/github"
	"github.com/watchtowerhq/watchtower-api/internal/insight"
)

// Common errors
var (
	ErrNilReportWriter      = errors.New("report writer cannot be nil")
	ErrNilCompetitorSource  = errors.New("competitor source cannot be nil")
	ErrNilSnapshotSource    = errors.New("snapshot source cannot be nil")
	ErrNilAnalyzer          = errors.New("analyzer cannot be nil")
	ErrNilReportGenerator   = errors.New("report generator cannot be nil")
	ErrNilLogger            = errors.New("logger cannot be nil")
	ErrEmptyReportID        = errors.New("report ID cannot be empty")
	ErrNoCompetitors        = errors.New("no competitors are tracked")
	ErrAllCompetitorsFailed = errors.New("all competitor analyses failed")
)

// ReportWriter is the slice of the report store the task needs to record
// progress and results.
type ReportWriter interface {
	// UpdateStatus moves the report through its lifecycle.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReportStatus, errorMessage string) error

	// SaveContent stores the generated content with the terminal status.
	SaveContent(ctx context.Context, id uuid.UUID, content *domain.ReportContent, status domain.ReportStatus) error
}

// CompetitorSource lists the competitors to analyze.
type CompetitorSource interface {
	List(ctx context.Context) ([]*domain.Competitor, error)
}

// SnapshotSource fetches repository metadata for one competitor.
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context, owner, repo string) (*github.RepoSnapshot, error)
}

// reportGenerationPayload is the serialized data stored with the task.
type reportGenerationPayload struct {
	ReportID uuid.UUID `json:"report_id"`
	WeekKey  string    `json:"week_key"`
}

// ReportGenerationTask implements the Task interface. It drives the full
// report pipeline: fetch each competitor's repository snapshot, analyze it,
// synthesize the weekly report, and persist the result.
//
// Per-competitor failures are skipped rather than failing the run; the
// report completes with errors noted. Only when every competitor fails (or
// synthesis fails) does the report fail.
type ReportGenerationTask struct {
	id                uuid.UUID
	reportID          uuid.UUID
	weekKey           string
	reports           ReportWriter
	competitors       CompetitorSource
	snapshots         SnapshotSource
	analyzer          insight.Analyzer
	generator         insight.ReportGenerator
	fallbackAnalyzer  insight.Analyzer
	fallbackGenerator insight.ReportGenerator
	logger            *slog.Logger
	status            TaskStatus
}

// Ensure ReportGenerationTask implements Task
var _ Task = (*ReportGenerationTask)(nil)

// ReportGenerationTaskParams bundles the dependencies and identifiers for a
// report generation task.
type ReportGenerationTaskParams struct {
	ReportID    uuid.UUID
	WeekKey     string
	Reports     ReportWriter
	Competitors CompetitorSource
	Snapshots   SnapshotSource
	Analyzer    insight.Analyzer
	Generator   insight.ReportGenerator

	// FallbackAnalyzer and FallbackGenerator are consulted when the
	// primary implementations fail terminally. Optional.
	FallbackAnalyzer  insight.Analyzer
	FallbackGenerator insight.ReportGenerator

	Logger *slog.Logger
}

// NewReportGenerationTask creates a report generation task.
func NewReportGenerationTask(params ReportGenerationTaskParams) (*ReportGenerationTask, error) {
	if params.Reports == nil {
		return nil, ErrNilReportWriter
	}
	if params.Competitors == nil {
		return nil, ErrNilCompetitorSource
	}
	if params.Snapshots == nil {
		return nil, ErrNilSnapshotSource
	}
	if params.Analyzer == nil {
		return nil, ErrNilAnalyzer
	}
	if params.Generator == nil {
		return nil, ErrNilReportGenerator
	}
	if params.Logger == nil {
		return nil, ErrNilLogger
	}
	if params.ReportID == uuid.Nil {
		return nil, ErrEmptyReportID
	}
	if params.WeekKey == "" {
		return nil, domain.ErrEmptyWeekKey
	}

	return &ReportGenerationTask{
		id:                uuid.New(),
		reportID:          params.ReportID,
		weekKey:           params.WeekKey,
		reports:           params.Reports,
		competitors:       params.Competitors,
		snapshots:         params.Snapshots,
		analyzer:          params.Analyzer,
		generator:         params.Generator,
		fallbackAnalyzer:  params.FallbackAnalyzer,
		fallbackGenerator: params.FallbackGenerator,
		logger: params.Logger.With(
			slog.String("task_type", TaskTypeReportGeneration),
			slog.String("report_id", params.ReportID.String()),
			slog.String("week_key", params.WeekKey)),
		status: TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *ReportGenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *ReportGenerationTask) Type() string {
	return TaskTypeReportGeneration
}

// Payload returns the task data as a byte slice
func (t *ReportGenerationTask) Payload() []byte {
	data, err := json.Marshal(reportGenerationPayload{
		ReportID: t.reportID,
		WeekKey:  t.weekKey,
	})
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Status returns the current task status
func (t *ReportGenerationTask) Status() TaskStatus {
	return t.status
}

// Execute runs the report pipeline end to end.
func (t *ReportGenerationTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.Info("starting report generation")

	if err := ctx.Err(); err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	if err := t.reports.UpdateStatus(ctx, t.reportID, domain.ReportStatusProcessing, ""); err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("failed to mark report processing", "error", err)
		return fmt.Errorf("failed to mark report processing: %w", err)
	}

	competitors, err := t.competitors.List(ctx)
	if err != nil {
		return t.fail(ctx, fmt.Errorf("failed to list competitors: %w", err))
	}
	if len(competitors) == 0 {
		return t.fail(ctx, ErrNoCompetitors)
	}

	analyses, failures := t.analyzeAll(ctx, competitors)
	if len(analyses) == 0 {
		return t.fail(ctx, fmt.Errorf("%w: %s", ErrAllCompetitorsFailed, joinFailures(failures)))
	}

	content, err := t.generate(ctx, analyses)
	if err != nil {
		return t.fail(ctx, fmt.Errorf("failed to generate report: %w", err))
	}

	status := domain.ReportStatusCompleted
	errorMessage := ""
	if len(failures) > 0 {
		status = domain.ReportStatusCompletedWithErrors
		errorMessage = joinFailures(failures)
	}

	if err := t.reports.SaveContent(ctx, t.reportID, content, status); err != nil {
		return t.fail(ctx, fmt.Errorf("failed to save report content: %w", err))
	}
	if errorMessage != "" {
		if err := t.reports.UpdateStatus(ctx, t.reportID, status, errorMessage); err != nil {
			// Content is already saved; log and keep going.
			t.logger.Error("failed to record partial failures on report", "error", err)
		}
	}

	t.status = TaskStatusCompleted
	t.logger.Info("report generation finished",
		"status", string(status),
		"analyses", len(analyses),
		"failed_competitors", len(failures))
	return nil
}

// analyzeAll fetches and analyzes every competitor, collecting failures
// instead of aborting.
func (t *ReportGenerationTask) analyzeAll(ctx context.Context, competitors []*domain.Competitor) ([]*domain.CompetitorAnalysis, []string) {
	analyses := make([]*domain.CompetitorAnalysis, 0, len(competitors))
	var failures []string

	for _, competitor := range competitors {
		analysis, err := t.analyzeOne(ctx, competitor)
		if err != nil {
			t.logger.Warn("skipping competitor after analysis failure",
				"competitor", competitor.Name,
				"slug", competitor.Slug(),
				"error", err)
			failures = append(failures, fmt.Sprintf("%s: %v", competitor.Name, err))
			continue
		}
		analyses = append(analyses, analysis)
	}

	return analyses, failures
}

// analyzeOne fetches one competitor's snapshot and analyzes it, falling
// back to the secondary analyzer on terminal failures.
func (t *ReportGenerationTask) analyzeOne(ctx context.Context, competitor *domain.Competitor) (*domain.CompetitorAnalysis, error) {
	snapshot, err := t.snapshots.FetchSnapshot(ctx, competitor.Owner, competitor.Repo)
	if err != nil {
		return nil, err
	}

	analysis, err := t.analyzer.AnalyzeCompetitor(ctx, competitor.Name, snapshot)
	if err != nil && t.fallbackAnalyzer != nil {
		t.logger.Warn("primary analyzer failed, using fallback",
			"competitor", competitor.Name,
			"error", err)
		analysis, err = t.fallbackAnalyzer.AnalyzeCompetitor(ctx, competitor.Name, snapshot)
	}
	return analysis, err
}

// generate synthesizes the report content, falling back to the secondary
// generator on terminal failures.
func (t *ReportGenerationTask) generate(ctx context.Context, analyses []*domain.CompetitorAnalysis) (*domain.ReportContent, error) {
	content, err := t.generator.GenerateReport(ctx, analyses)
	if err != nil && t.fallbackGenerator != nil {
		t.logger.Warn("primary report generator failed, using fallback", "error", err)
		content, err = t.fallbackGenerator.GenerateReport(ctx, analyses)
	}
	return content, err
}

// fail marks both the task and the report as failed.
func (t *ReportGenerationTask) fail(ctx context.Context, cause error) error {
	t.status = TaskStatusFailed
	t.logger.Error("report generation failed", "error", cause)

	if err := t.reports.UpdateStatus(ctx, t.reportID, domain.ReportStatusFailed, cause.Error()); err != nil {
		t.logger.Error("failed to mark report failed", "error", err)
	}
	return cause
}

// joinFailures folds per-competitor failure descriptions into one message.
func joinFailures(failures []string) string {
	return strings.Join(failures, "; ")
}
