package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
	"github.com/watchtowerhq/watchtower-api/internal/events"
	"github.com/watchtowerhq/watchtower-api/internal/store"
	"github.com/watchtowerhq/watchtower-api/internal/task"
)

// fakeReportStore is an in-memory store.ReportStore.
type fakeReportStore struct {
	reports   map[uuid.UUID]*domain.Report
	createErr error
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{reports: make(map[uuid.UUID]*domain.Report)}
}

func (s *fakeReportStore) Create(_ context.Context, report *domain.Report) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.reports[report.ID] = report
	return nil
}

func (s *fakeReportStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Report, error) {
	report, ok := s.reports[id]
	if !ok {
		return nil, store.ErrReportNotFound
	}
	return report, nil
}

func (s *fakeReportStore) GetCompletedByWeek(_ context.Context, weekKey string) (*domain.Report, error) {
	for _, r := range s.reports {
		if r.WeekKey == weekKey &&
			(r.Status == domain.ReportStatusCompleted || r.Status == domain.ReportStatusCompletedWithErrors) {
			return r, nil
		}
	}
	return nil, store.ErrReportNotFound
}

func (s *fakeReportStore) GetLatest(_ context.Context) (*domain.Report, error) {
	var latest *domain.Report
	for _, r := range s.reports {
		if r.Status != domain.ReportStatusCompleted && r.Status != domain.ReportStatusCompletedWithErrors {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, store.ErrReportNotFound
	}
	return latest, nil
}

func (s *fakeReportStore) List(context.Context, int, int) ([]*domain.Report, error) {
	out := make([]*domain.Report, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeReportStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.ReportStatus, errorMessage string) error {
	report, ok := s.reports[id]
	if !ok {
		return store.ErrReportNotFound
	}
	report.Status = status
	report.ErrorMessage = errorMessage
	return nil
}

func (s *fakeReportStore) SaveContent(_ context.Context, id uuid.UUID, content *domain.ReportContent, status domain.ReportStatus) error {
	report, ok := s.reports[id]
	if !ok {
		return store.ErrReportNotFound
	}
	report.Content = content
	report.Status = status
	return nil
}

func (s *fakeReportStore) WithTx(*sql.Tx) store.ReportStore { return s }

// fakeEmitter records emitted events.
type fakeEmitter struct {
	events  []*events.TaskRequestEvent
	emitErr error
}

func (e *fakeEmitter) EmitEvent(_ context.Context, event *events.TaskRequestEvent) error {
	if e.emitErr != nil {
		return e.emitErr
	}
	e.events = append(e.events, event)
	return nil
}

func newTestIntelligenceService(t *testing.T) (*intelligenceServiceImpl, *fakeReportStore, *fakeEmitter) {
	t.Helper()
	reports := newFakeReportStore()
	emitter := &fakeEmitter{}
	svc, err := NewIntelligenceService(reports, emitter, discardLogger())
	require.NoError(t, err)
	return svc.(*intelligenceServiceImpl), reports, emitter
}

func TestRequestReportCreatesPendingReportAndEmitsEvent(t *testing.T) {
	t.Parallel()

	svc, reports, emitter := newTestIntelligenceService(t)

	report, err := svc.RequestReport(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, domain.ReportStatusPending, report.Status)
	assert.Equal(t, domain.WeekKey(time.Now()), report.WeekKey)
	assert.Contains(t, reports.reports, report.ID)

	require.Len(t, emitter.events, 1)
	event := emitter.events[0]
	assert.Equal(t, task.TaskTypeReportGeneration, event.Type)

	var payload struct {
		ReportID string `json:"report_id"`
		WeekKey  string `json:"week_key"`
	}
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, report.ID.String(), payload.ReportID)
	assert.Equal(t, report.WeekKey, payload.WeekKey)
}

func TestRequestReportServesCachedWeeklyReport(t *testing.T) {
	t.Parallel()

	svc, reports, emitter := newTestIntelligenceService(t)

	cached, err := domain.NewReport(domain.WeekKey(time.Now()))
	require.NoError(t, err)
	cached.Status = domain.ReportStatusCompleted
	reports.reports[cached.ID] = cached

	report, err := svc.RequestReport(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, cached.ID, report.ID)
	assert.Empty(t, emitter.events, "no generation should be enqueued for a cached week")
}

func TestRequestReportForceBypassesCache(t *testing.T) {
	t.Parallel()

	svc, reports, emitter := newTestIntelligenceService(t)

	cached, err := domain.NewReport(domain.WeekKey(time.Now()))
	require.NoError(t, err)
	cached.Status = domain.ReportStatusCompleted
	reports.reports[cached.ID] = cached

	report, err := svc.RequestReport(context.Background(), true)
	require.NoError(t, err)

	assert.NotEqual(t, cached.ID, report.ID)
	assert.Equal(t, domain.ReportStatusPending, report.Status)
	assert.Len(t, emitter.events, 1)
}

func TestRequestReportIgnoresFailedReportsInCacheLookup(t *testing.T) {
	t.Parallel()

	svc, reports, emitter := newTestIntelligenceService(t)

	failed, err := domain.NewReport(domain.WeekKey(time.Now()))
	require.NoError(t, err)
	failed.Status = domain.ReportStatusFailed
	reports.reports[failed.ID] = failed

	report, err := svc.RequestReport(context.Background(), false)
	require.NoError(t, err)

	assert.NotEqual(t, failed.ID, report.ID)
	assert.Len(t, emitter.events, 1)
}

func TestRequestReportMarksReportFailedWhenEmitFails(t *testing.T) {
	t.Parallel()

	svc, reports, emitter := newTestIntelligenceService(t)
	emitter.emitErr = errors.New("no handlers")

	_, err := svc.RequestReport(context.Background(), false)
	require.Error(t, err)

	// The orphaned pending report was marked failed.
	require.Len(t, reports.reports, 1)
	for _, r := range reports.reports {
		assert.Equal(t, domain.ReportStatusFailed, r.Status)
	}
}

func TestGetReportMapsNotFound(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestIntelligenceService(t)

	_, err := svc.GetReport(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestGetLatestReportMapsNotFound(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestIntelligenceService(t)

	_, err := svc.GetLatestReport(context.Background())
	assert.ErrorIs(t, err, ErrReportNotFound)
}
