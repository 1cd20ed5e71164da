package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
	"github.com/watchtowerhq/watchtower-api/internal/service"
)

// fakeCompetitorService implements service.CompetitorService for handler tests.
type fakeCompetitorService struct {
	competitors []*domain.Competitor
	addErr      error
	getErr      error
	removeErr   error
}

func (f *fakeCompetitorService) AddCompetitor(_ context.Context, name, owner, repo string) (*domain.Competitor, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	return domain.NewCompetitor(name, owner, repo)
}

func (f *fakeCompetitorService) GetCompetitor(_ context.Context, id uuid.UUID) (*domain.Competitor, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, c := range f.competitors {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, service.ErrCompetitorNotFound
}

func (f *fakeCompetitorService) ListCompetitors(context.Context) ([]*domain.Competitor, error) {
	return f.competitors, nil
}

func (f *fakeCompetitorService) RemoveCompetitor(context.Context, uuid.UUID) error {
	return f.removeErr
}

func newCompetitorTestServer(svc service.CompetitorService) *httptest.Server {
	router := NewRouter(RouterDeps{
		CompetitorService:   svc,
		IntelligenceService: &fakeIntelligenceService{},
	})
	return httptest.NewServer(router)
}

func mustNewCompetitor(t *testing.T, name, owner, repo string) *domain.Competitor {
	t.Helper()
	c, err := domain.NewCompetitor(name, owner, repo)
	require.NoError(t, err)
	return c
}

func TestListCompetitorsEndpoint(t *testing.T) {
	t.Parallel()

	fake := &fakeCompetitorService{competitors: []*domain.Competitor{
		mustNewCompetitor(t, "Next.js", "vercel", "next.js"),
		mustNewCompetitor(t, "Nuxt", "nuxt", "nuxt"),
	}}
	server := newCompetitorTestServer(fake)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/competitors")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body []CompetitorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 2)
	assert.Equal(t, "vercel", body[0].Owner)
}

func TestCreateCompetitorEndpoint(t *testing.T) {
	t.Parallel()

	server := newCompetitorTestServer(&fakeCompetitorService{})
	defer server.Close()

	payload := `{"name":"Astro","owner":"withastro","repo":"astro"}`
	resp, err := http.Post(server.URL+"/api/competitors", "application/json", bytes.NewBufferString(payload))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body CompetitorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Astro", body.Name)
	assert.NotEmpty(t, body.ID)
}

func TestCreateCompetitorRejectsMissingFields(t *testing.T) {
	t.Parallel()

	server := newCompetitorTestServer(&fakeCompetitorService{})
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/competitors", "application/json",
		bytes.NewBufferString(`{"name":"Astro"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateCompetitorRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	server := newCompetitorTestServer(&fakeCompetitorService{})
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/competitors", "application/json",
		bytes.NewBufferString(`{not json`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateCompetitorConflict(t *testing.T) {
	t.Parallel()

	server := newCompetitorTestServer(&fakeCompetitorService{addErr: service.ErrCompetitorExists})
	defer server.Close()

	payload := `{"name":"Astro","owner":"withastro","repo":"astro"}`
	resp, err := http.Post(server.URL+"/api/competitors", "application/json", bytes.NewBufferString(payload))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var body struct {
		Error   string `json:"error"`
		TraceID string `json:"trace_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Competitor already tracks this repository", body.Error)
	assert.NotEmpty(t, body.TraceID)
}

func TestGetCompetitorNotFound(t *testing.T) {
	t.Parallel()

	server := newCompetitorTestServer(&fakeCompetitorService{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/competitors/" + uuid.NewString())
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteCompetitorEndpoint(t *testing.T) {
	t.Parallel()

	server := newCompetitorTestServer(&fakeCompetitorService{})
	defer server.Close()

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/competitors/"+uuid.NewString(), nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestDeleteCompetitorInvalidID(t *testing.T) {
	t.Parallel()

	server := newCompetitorTestServer(&fakeCompetitorService{})
	defer server.Close()

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/competitors/not-a-uuid", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	server := newCompetitorTestServer(&fakeCompetitorService{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
