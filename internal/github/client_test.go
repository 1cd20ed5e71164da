package github

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchtowerhq/watchtower-api/internal/cache"
)

// fakeCache is an in-memory ResponseCache for tests.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*cache.Entry
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*cache.Entry)}
}

func (f *fakeCache) Get(_ context.Context, key cache.Key) (*cache.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[key.String()]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	if entry.IsExpired() {
		return entry, cache.ErrCacheMiss
	}
	return entry, nil
}

func (f *fakeCache) Set(_ context.Context, key cache.Key, entry *cache.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key.String()] = entry
	return nil
}

func (f *fakeCache) UpdateTTL(_ context.Context, key cache.Key, newExpires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry, ok := f.entries[key.String()]; ok {
		entry.Expires = newExpires
	}
	return nil
}

func testClient(t *testing.T, serverURL string, responseCache ResponseCache) *Client {
	t.Helper()

	cfg := DefaultConfig("")
	cfg.BaseURL = serverURL
	cfg.MaxRetries = 3
	cfg.InitialBackoff = time.Millisecond

	client, err := NewClient(cfg, responseCache, slog.Default())
	require.NoError(t, err)
	return client
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig("")
	cfg.BaseURL = ""
	_, err := NewClient(cfg, nil, slog.Default())
	assert.Error(t, err)

	cfg = DefaultConfig("")
	cfg.UserAgent = ""
	_, err = NewClient(cfg, nil, slog.Default())
	assert.Error(t, err)

	_, err = NewClient(DefaultConfig(""), nil, nil)
	assert.Error(t, err)
}

func TestListReleasesSkipsDraftsAndLimits(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/vercel/next.js/releases", r.URL.Path)
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"tag_name":"v15.0.0","body":"Add new router","draft":false},
			{"tag_name":"v15.0.1-draft","body":"wip","draft":true},
			{"tag_name":"v14.2.0","body":"Fix memory leak","draft":false},
			{"tag_name":"v14.1.0","body":"Implement caching","draft":false}
		]`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)

	releases, err := client.ListReleases(context.Background(), "vercel", "next.js", 2)
	require.NoError(t, err)
	require.Len(t, releases, 2)
	assert.Equal(t, "v15.0.0", releases[0].TagName)
	assert.Equal(t, "v14.2.0", releases[1].TagName)
}

func TestListIssuesSinceQuery(t *testing.T) {
	t.Parallel()

	since := time.Date(2026, 8, 16, 9, 41, 27, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/nuxt/nuxt/issues", r.URL.Path)
		q := r.URL.Query()
		// since is truncated to the hour so consecutive polls share a
		// cache key.
		assert.Equal(t, "2026-08-16T09:00:00Z", q.Get("since"))
		assert.Equal(t, "all", q.Get("state"))
		assert.Equal(t, "50", q.Get("per_page"))
		_, _ = w.Write([]byte(`[
			{"number":101,"title":"Bug: hydration mismatch","state":"open"},
			{"number":102,"title":"Add feature request","state":"closed","pull_request":{}}
		]`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)

	issues, err := client.ListIssuesSince(context.Background(), "nuxt", "nuxt", since, 50)
	require.NoError(t, err)

	// The pull request row is dropped.
	require.Len(t, issues, 1)
	assert.Equal(t, 101, issues[0].Number)
	assert.False(t, issues[0].IsPullRequest())
}

func TestGetAuthorizationHeader(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	cfg := DefaultConfig("ghp_test")
	cfg.BaseURL = server.URL
	client, err := NewClient(cfg, nil, slog.Default())
	require.NoError(t, err)

	_, err = client.ListReleases(context.Background(), "remix-run", "remix", 5)
	require.NoError(t, err)
}

func TestGetRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)

	_, err := client.ListReleases(context.Background(), "sveltejs", "kit", 5)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestGetDoesNotRetryNotFound(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)

	_, err := client.ListReleases(context.Background(), "nobody", "nothing", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestGetRateLimitExhausted(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)

	_, err := client.ListReleases(context.Background(), "withastro", "astro", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestGetServesFreshCacheHitWithoutNetwork(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Cache-Control", "private, max-age=60")
		w.Header().Set("ETag", `W/"v1"`)
		_, _ = w.Write([]byte(`[{"tag_name":"v1.0.0"}]`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, newFakeCache())

	_, err := client.ListReleases(context.Background(), "vercel", "next.js", 5)
	require.NoError(t, err)

	releases, err := client.ListReleases(context.Background(), "vercel", "next.js", 5)
	require.NoError(t, err)
	require.Len(t, releases, 1)

	// Second call answered from cache.
	assert.Equal(t, 1, calls)
}

func TestGetRevalidatesStaleEntryWith304(t *testing.T) {
	t.Parallel()

	var conditional bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `W/"v1"` {
			conditional = true
			w.WriteHeader(http.StatusNotModified)
			return
		}
		_, _ = w.Write([]byte(`[{"tag_name":"v1.0.0"}]`))
	}))
	defer server.Close()

	fc := newFakeCache()
	client := testClient(t, server.URL, fc)

	// Seed the cache with an already-stale entry carrying an ETag.
	key := cache.Key{Endpoint: "/repos/vercel/next.js/releases"}
	require.NoError(t, fc.Set(context.Background(), key, &cache.Entry{
		Data:    []byte(`[{"tag_name":"v1.0.0"}]`),
		ETag:    `W/"v1"`,
		Expires: time.Now().Add(-time.Minute),
	}))

	releases, err := client.ListReleases(context.Background(), "vercel", "next.js", 5)
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.True(t, conditional, "expected a conditional request")
	assert.Equal(t, "v1.0.0", releases[0].TagName)
}

func TestFetchSnapshot(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/remix-run/remix/releases":
			_, _ = w.Write([]byte(`[{"tag_name":"v2.0.0","body":"New data loading"}]`))
		case "/repos/remix-run/remix/issues":
			_, _ = w.Write([]byte(`[{"number":7,"title":"Bug: loader crash","state":"open"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)

	snap, err := client.FetchSnapshot(context.Background(), "remix-run", "remix")
	require.NoError(t, err)
	assert.Equal(t, "remix-run/remix", snap.Slug())
	require.Len(t, snap.Releases, 1)
	require.Len(t, snap.Issues, 1)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestFetchSnapshotPropagatesFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(t, server.URL, nil)

	_, err := client.FetchSnapshot(context.Background(), "gone", "gone")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	plain := http.Header{}
	exhausted := http.Header{}
	exhausted.Set("X-RateLimit-Remaining", "0")

	assert.Equal(t, ErrorClassClient, classifyStatus(http.StatusNotFound, plain))
	assert.Equal(t, ErrorClassClient, classifyStatus(http.StatusForbidden, plain))
	assert.Equal(t, ErrorClassRateLimit, classifyStatus(http.StatusForbidden, exhausted))
	assert.Equal(t, ErrorClassRateLimit, classifyStatus(http.StatusTooManyRequests, plain))
	assert.Equal(t, ErrorClassServer, classifyStatus(http.StatusBadGateway, plain))
}
