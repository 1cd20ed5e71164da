package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReportStatus represents the generation state of a weekly report.
type ReportStatus string

// Possible report status values
const (
	ReportStatusPending             ReportStatus = "pending"
	ReportStatusProcessing          ReportStatus = "processing"
	ReportStatusCompleted           ReportStatus = "completed"
	ReportStatusCompletedWithErrors ReportStatus = "completed_with_errors"
	ReportStatusFailed              ReportStatus = "failed"
)

// Common validation errors for Report
var (
	ErrEmptyReportID       = errors.New("report ID cannot be empty")
	ErrEmptyWeekKey        = errors.New("report week key cannot be empty")
	ErrInvalidReportStatus = errors.New("invalid report status")
)

// ReportContent is the report generator's structured output: the
// per-competitor analyses plus the cross-competitor trends and strategic
// recommendations derived from them.
type ReportContent struct {
	ReportDate      string               `json:"report_date"`
	Analyses        []CompetitorAnalysis `json:"analyses"`
	IndustryTrends  []string             `json:"industry_trends"`
	Recommendations []string             `json:"recommendations"`
}

// Report is a weekly intelligence report row. Content is nil until
// generation finishes; Status tracks the asynchronous pipeline.
type Report struct {
	ID           uuid.UUID      `json:"id"`
	WeekKey      string         `json:"week_key"`
	Status       ReportStatus   `json:"status"`
	Content      *ReportContent `json:"content,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewReport creates a new pending Report for the given week key.
// Returns an error if validation fails.
func NewReport(weekKey string) (*Report, error) {
	now := time.Now().UTC()
	r := &Report{
		ID:        uuid.New(),
		WeekKey:   weekKey,
		Status:    ReportStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

// Validate checks if the Report has valid data.
func (r *Report) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyReportID
	}

	if r.WeekKey == "" {
		return ErrEmptyWeekKey
	}

	if !r.Status.IsValid() {
		return ErrInvalidReportStatus
	}

	return nil
}

// UpdateStatus updates the report's status and the UpdatedAt timestamp.
// Returns an error if the new status is invalid.
func (r *Report) UpdateStatus(status ReportStatus) error {
	if !status.IsValid() {
		return ErrInvalidReportStatus
	}

	r.Status = status
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// IsTerminal reports whether the report has reached a final state.
func (r *Report) IsTerminal() bool {
	switch r.Status {
	case ReportStatusCompleted, ReportStatusCompletedWithErrors, ReportStatusFailed:
		return true
	default:
		return false
	}
}

// WeekKey formats t as a week identifier of the form "2026-W33": the
// zero-padded week number of the year with Sunday as the first day of the
// week, where days before the first Sunday of the year fall in week 0.
// The input is normalized to UTC so all callers agree on week boundaries.
func WeekKey(t time.Time) string {
	t = t.UTC()
	week := (t.YearDay() + 6 - int(t.Weekday())) / 7
	return fmt.Sprintf("%d-W%02d", t.Year(), week)
}

// IsValid checks if the status is one of the known ReportStatus values.
func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusPending, ReportStatusProcessing, ReportStatusCompleted,
		ReportStatusCompletedWithErrors, ReportStatusFailed:
		return true
	default:
		return false
	}
}
