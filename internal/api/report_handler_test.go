package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
	"github.com/watchtowerhq/watchtower-api/internal/service"
)

// fakeIntelligenceService implements service.IntelligenceService for
// handler tests.
type fakeIntelligenceService struct {
	report     *domain.Report
	reports    []*domain.Report
	requestErr error
	getErr     error
	lastForce  bool
}

func (f *fakeIntelligenceService) RequestReport(_ context.Context, force bool) (*domain.Report, error) {
	f.lastForce = force
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	if f.report != nil {
		return f.report, nil
	}
	return domain.NewReport(domain.WeekKey(time.Now()))
}

func (f *fakeIntelligenceService) GetReport(_ context.Context, id uuid.UUID) (*domain.Report, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.report != nil && f.report.ID == id {
		return f.report, nil
	}
	return nil, service.ErrReportNotFound
}

func (f *fakeIntelligenceService) GetLatestReport(context.Context) (*domain.Report, error) {
	if f.report == nil {
		return nil, service.ErrReportNotFound
	}
	return f.report, nil
}

func (f *fakeIntelligenceService) ListReports(context.Context, int, int) ([]*domain.Report, error) {
	return f.reports, nil
}

func newReportTestServer(svc service.IntelligenceService) *httptest.Server {
	router := NewRouter(RouterDeps{
		CompetitorService:   &fakeCompetitorService{},
		IntelligenceService: svc,
	})
	return httptest.NewServer(router)
}

func completedReport(t *testing.T) *domain.Report {
	t.Helper()
	report, err := domain.NewReport(domain.WeekKey(time.Now()))
	require.NoError(t, err)
	report.Status = domain.ReportStatusCompleted
	report.Content = &domain.ReportContent{
		ReportDate:      "2026-08-23",
		IndustryTrends:  []string{"Focus on server-side rendering"},
		Recommendations: []string{"Monitor competitor release notes"},
	}
	return report
}

func TestRequestReportReturnsAcceptedForPending(t *testing.T) {
	t.Parallel()

	fake := &fakeIntelligenceService{}
	server := newReportTestServer(fake)
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/reports", "application/json", nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.False(t, fake.lastForce)

	var body ReportResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, string(domain.ReportStatusPending), body.Status)
	assert.Nil(t, body.Content)
}

func TestRequestReportReturnsOKForCachedReport(t *testing.T) {
	t.Parallel()

	fake := &fakeIntelligenceService{report: completedReport(t)}
	server := newReportTestServer(fake)
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/reports", "application/json", nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body ReportResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Content)
	assert.NotEmpty(t, body.Content.IndustryTrends)
}

func TestRequestReportForceParameter(t *testing.T) {
	t.Parallel()

	fake := &fakeIntelligenceService{}
	server := newReportTestServer(fake)
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/reports?force=true", "application/json", nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.True(t, fake.lastForce)
}

func TestGetLatestReportEndpoint(t *testing.T) {
	t.Parallel()

	report := completedReport(t)
	server := newReportTestServer(&fakeIntelligenceService{report: report})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/reports/latest")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body ReportResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, report.ID.String(), body.ID)
}

func TestGetLatestReportNotFound(t *testing.T) {
	t.Parallel()

	server := newReportTestServer(&fakeIntelligenceService{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/reports/latest")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetReportByID(t *testing.T) {
	t.Parallel()

	report := completedReport(t)
	server := newReportTestServer(&fakeIntelligenceService{report: report})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/reports/" + report.ID.String())
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetReportInvalidID(t *testing.T) {
	t.Parallel()

	server := newReportTestServer(&fakeIntelligenceService{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/reports/not-a-uuid")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListReportsEndpoint(t *testing.T) {
	t.Parallel()

	server := newReportTestServer(&fakeIntelligenceService{
		reports: []*domain.Report{completedReport(t), completedReport(t)},
	})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/reports")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body []ReportSummaryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body, 2)
}

func TestListReportsRejectsInvalidLimit(t *testing.T) {
	t.Parallel()

	server := newReportTestServer(&fakeIntelligenceService{})
	defer server.Close()

	for _, query := range []string{"?limit=0", "?limit=9999", "?limit=abc", "?offset=-1"} {
		resp, err := http.Get(server.URL + "/api/reports" + query)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "query %q", query)
	}
}
