package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewReport(t *testing.T) {
	t.Parallel()

	r, err := NewReport("2026-W33")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if r.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if r.Status != ReportStatusPending {
		t.Errorf("Expected status %s, got %s", ReportStatusPending, r.Status)
	}

	if r.Content != nil {
		t.Error("Expected nil content on a new report")
	}

	if _, err := NewReport(""); !errors.Is(err, ErrEmptyWeekKey) {
		t.Errorf("Expected ErrEmptyWeekKey, got %v", err)
	}
}

func TestReportUpdateStatus(t *testing.T) {
	t.Parallel()

	r, err := NewReport("2026-W33")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	before := r.UpdatedAt
	time.Sleep(time.Millisecond)

	if err := r.UpdateStatus(ReportStatusProcessing); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if r.Status != ReportStatusProcessing {
		t.Errorf("Expected status %s, got %s", ReportStatusProcessing, r.Status)
	}

	if !r.UpdatedAt.After(before) {
		t.Error("Expected UpdatedAt to advance")
	}

	if err := r.UpdateStatus("bogus"); !errors.Is(err, ErrInvalidReportStatus) {
		t.Errorf("Expected ErrInvalidReportStatus, got %v", err)
	}
}

func TestReportIsTerminal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status   ReportStatus
		terminal bool
	}{
		{ReportStatusPending, false},
		{ReportStatusProcessing, false},
		{ReportStatusCompleted, true},
		{ReportStatusCompletedWithErrors, true},
		{ReportStatusFailed, true},
	}

	for _, tc := range cases {
		r := Report{ID: uuid.New(), WeekKey: "2026-W01", Status: tc.status}
		if got := r.IsTerminal(); got != tc.terminal {
			t.Errorf("IsTerminal(%s) = %v, want %v", tc.status, got, tc.terminal)
		}
	}
}

func TestWeekKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		date string
		want string
	}{
		// 2023-01-01 was a Sunday, so it opens week 1.
		{"2023-01-01", "2023-W01"},
		// 2024-01-01 was a Monday: days before the first Sunday are week 0.
		{"2024-01-01", "2024-W00"},
		{"2024-01-07", "2024-W01"},
		// Mid-year spot check: 2026-08-23 is a Sunday.
		{"2026-08-23", "2026-W34"},
		{"2026-08-22", "2026-W33"},
	}

	for _, tc := range cases {
		ts, err := time.Parse("2006-01-02", tc.date)
		if err != nil {
			t.Fatalf("bad test date %s: %v", tc.date, err)
		}
		if got := WeekKey(ts); got != tc.want {
			t.Errorf("WeekKey(%s) = %s, want %s", tc.date, got, tc.want)
		}
	}
}
