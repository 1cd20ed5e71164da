package task

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/watchtowerhq/watchtower-api/internal/insight"
)

// ReportGenerationTaskFactory creates report generation tasks with their
// dependencies pre-wired. It also hydrates persisted task records back
// into executable tasks during recovery.
type ReportGenerationTaskFactory struct {
	reports           ReportWriter
	competitors       CompetitorSource
	snapshots         SnapshotSource
	analyzer          insight.Analyzer
	generator         insight.ReportGenerator
	fallbackAnalyzer  insight.Analyzer
	fallbackGenerator insight.ReportGenerator
	logger            *slog.Logger
}

// Ensure the factory can hydrate recovered tasks
var _ TaskHydrator = (*ReportGenerationTaskFactory)(nil)

// NewReportGenerationTaskFactory creates a new task factory.
// The fallback analyzer and generator are optional.
func NewReportGenerationTaskFactory(
	reports ReportWriter,
	competitors CompetitorSource,
	snapshots SnapshotSource,
	analyzer insight.Analyzer,
	generator insight.ReportGenerator,
	fallbackAnalyzer insight.Analyzer,
	fallbackGenerator insight.ReportGenerator,
	logger *slog.Logger,
) *ReportGenerationTaskFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportGenerationTaskFactory{
		reports:           reports,
		competitors:       competitors,
		snapshots:         snapshots,
		analyzer:          analyzer,
		generator:         generator,
		fallbackAnalyzer:  fallbackAnalyzer,
		fallbackGenerator: fallbackGenerator,
		logger:            logger,
	}
}

// CreateTask builds a new report generation task for the given report.
func (f *ReportGenerationTaskFactory) CreateTask(reportID uuid.UUID, weekKey string) (Task, error) {
	return NewReportGenerationTask(ReportGenerationTaskParams{
		ReportID:          reportID,
		WeekKey:           weekKey,
		Reports:           f.reports,
		Competitors:       f.competitors,
		Snapshots:         f.snapshots,
		Analyzer:          f.analyzer,
		Generator:         f.generator,
		FallbackAnalyzer:  f.fallbackAnalyzer,
		FallbackGenerator: f.fallbackGenerator,
		Logger:            f.logger,
	})
}

// HydrateTask implements TaskHydrator for report generation records.
func (f *ReportGenerationTaskFactory) HydrateTask(record *TaskRecord) (Task, error) {
	if record.Type != TaskTypeReportGeneration {
		return nil, fmt.Errorf("unknown task type %q", record.Type)
	}

	var payload reportGenerationPayload
	if err := record.unmarshalPayload(&payload); err != nil {
		return nil, fmt.Errorf("malformed report generation payload: %w", err)
	}

	task, err := f.CreateTask(payload.ReportID, payload.WeekKey)
	if err != nil {
		return nil, err
	}

	// Keep the persisted identity so status updates target the right row.
	reportTask, ok := task.(*ReportGenerationTask)
	if !ok {
		return nil, fmt.Errorf("unexpected task implementation %T", task)
	}
	reportTask.id = record.ID
	reportTask.status = record.Status

	return reportTask, nil
}
