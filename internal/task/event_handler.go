package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/watchtowerhq/watchtower-api/internal/events"
)

// TaskFactoryEventHandler turns TaskRequestEvents into persisted tasks: it
// creates the task through the factory and submits it to the runner. It is
// the bridge between the service layer (which emits events) and the task
// infrastructure.
type TaskFactoryEventHandler struct {
	factory *ReportGenerationTaskFactory
	runner  *TaskRunner
	logger  *slog.Logger
}

// Ensure TaskFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)

// NewTaskFactoryEventHandler creates an event handler bound to the given
// factory and runner.
func NewTaskFactoryEventHandler(
	factory *ReportGenerationTaskFactory,
	runner *TaskRunner,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskFactoryEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With(slog.String("component", "task_event_handler")),
	}
}

// HandleEvent processes report generation requests. Events of other types
// are ignored so additional handlers can coexist on the same emitter.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if event.Type != TaskTypeReportGeneration {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload struct {
		ReportID string `json:"report_id"`
		WeekKey  string `json:"week_key"`
	}
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal event payload",
			"error", err,
			"event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	reportID, err := uuid.Parse(payload.ReportID)
	if err != nil {
		h.logger.Error("invalid report ID in event payload",
			"error", err,
			"report_id", payload.ReportID,
			"event_id", event.ID)
		return fmt.Errorf("invalid report ID: %w", err)
	}

	task, err := h.factory.CreateTask(reportID, payload.WeekKey)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"report_id", reportID,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.runner.Submit(ctx, task); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"report_id", reportID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Info("task created and submitted",
		"task_id", task.ID(),
		"report_id", reportID,
		"week_key", payload.WeekKey,
		"event_id", event.ID)
	return nil
}
