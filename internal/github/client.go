package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/watchtowerhq/watchtower-api/internal/cache"
)

// Prometheus metrics for GitHub client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchtower_github_requests_total",
		Help: "Total GitHub API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "watchtower_github_request_duration_seconds",
		Help:    "GitHub API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchtower_github_errors_total",
		Help: "Total GitHub API errors by class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchtower_github_retries_total",
		Help: "Total retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "watchtower_github_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchtower_github_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted",
	})

	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "watchtower_github_rate_limit_remaining",
		Help: "Requests remaining in the current GitHub rate-limit window",
	})
)

// ResponseCache is the conditional-request cache consumed by the client.
// *cache.Manager satisfies it; a nil cache disables caching.
type ResponseCache interface {
	Get(ctx context.Context, key cache.Key) (*cache.Entry, error)
	Set(ctx context.Context, key cache.Key, entry *cache.Entry) error
	UpdateTTL(ctx context.Context, key cache.Key, newExpires time.Time) error
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the GitHub REST API.
	BaseURL string

	// Token is the optional bearer token. Unauthenticated requests work
	// with a much smaller rate-limit budget.
	Token string

	// UserAgent sent with every request (required by GitHub).
	UserAgent string

	// IssueWindow bounds how far back issues are fetched.
	IssueWindow time.Duration

	// MaxReleases caps how many recent releases a snapshot includes.
	MaxReleases int

	// IssuesPerPage is the page size for the issues endpoint.
	IssuesPerPage int

	// MaxRetries is the number of attempts per request.
	MaxRetries int

	// InitialBackoff is the first retry delay.
	InitialBackoff time.Duration

	// Timeout bounds each HTTP request.
	Timeout time.Duration
}

// DefaultConfig returns a configuration matching the GitHub API defaults
// the pipeline was designed around.
func DefaultConfig(token string) Config {
	return Config{
		BaseURL:        "https://api.github.com",
		Token:          token,
		UserAgent:      "watchtower-api/1.0",
		IssueWindow:    7 * 24 * time.Hour,
		MaxReleases:    5,
		IssuesPerPage:  50,
		MaxRetries:     3,
		InitialBackoff: time.Second,
		Timeout:        30 * time.Second,
	}
}

// Client fetches repository metadata from the GitHub REST API.
type Client struct {
	httpClient *http.Client
	cache      ResponseCache
	config     Config
	logger     *slog.Logger
}

// NewClient creates a new GitHub client. responseCache may be nil to
// disable response caching.
func NewClient(cfg Config, responseCache ResponseCache, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      responseCache,
		config:     cfg,
		logger:     logger.With(slog.String("component", "github_client")),
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// FetchSnapshot assembles a repository snapshot for one competitor: its
// recent non-draft releases and the issues updated within the configured
// window. A failure on either endpoint fails the snapshot; partial data
// would silently skew the analysis.
func (c *Client) FetchSnapshot(ctx context.Context, owner, repo string) (*RepoSnapshot, error) {
	releases, err := c.ListReleases(ctx, owner, repo, c.config.MaxReleases)
	if err != nil {
		return nil, fmt.Errorf("fetch releases for %s/%s: %w", owner, repo, err)
	}

	since := time.Now().UTC().Add(-c.config.IssueWindow)
	issues, err := c.ListIssuesSince(ctx, owner, repo, since, c.config.IssuesPerPage)
	if err != nil {
		return nil, fmt.Errorf("fetch issues for %s/%s: %w", owner, repo, err)
	}

	return &RepoSnapshot{
		Owner:     owner,
		Repo:      repo,
		Releases:  releases,
		Issues:    issues,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// ListReleases returns up to limit recent published releases, skipping
// drafts.
func (c *Client) ListReleases(ctx context.Context, owner, repo string, limit int) ([]Release, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/releases", owner, repo)

	body, err := c.get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var all []Release
	if err := json.Unmarshal(body, &all); err != nil {
		return nil, fmt.Errorf("decode releases response: %w", err)
	}

	releases := make([]Release, 0, limit)
	for _, r := range all {
		if r.Draft {
			continue
		}
		releases = append(releases, r)
		if len(releases) >= limit {
			break
		}
	}

	return releases, nil
}

// ListIssuesSince returns issues updated at or after since, in any state.
// Pull requests, which the API mixes into the listing, are dropped. The
// since parameter is truncated to the hour so repeated polls within the
// same hour share a cache key and conditional requests can hit.
func (c *Client) ListIssuesSince(ctx context.Context, owner, repo string, since time.Time, perPage int) ([]Issue, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/issues", owner, repo)

	params := url.Values{}
	params.Set("since", since.UTC().Truncate(time.Hour).Format(time.RFC3339))
	params.Set("state", "all")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("sort", "created")

	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	var all []Issue
	if err := json.Unmarshal(body, &all); err != nil {
		return nil, fmt.Errorf("decode issues response: %w", err)
	}

	issues := make([]Issue, 0, len(all))
	for _, issue := range all {
		if issue.IsPullRequest() {
			continue
		}
		issues = append(issues, issue)
	}

	return issues, nil
}

// get performs a GET request against the API with caching, conditional
// requests, retry, and rate-limit tracking, returning the response body.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	key := cache.Key{Endpoint: endpoint, QueryParams: params}

	var cachedEntry *cache.Entry
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.WarnContext(ctx, "cache get failed",
				"endpoint", endpoint, "error", err)
		}
		cachedEntry = entry

		// Fresh hit: skip the network entirely.
		if cachedEntry != nil && !cachedEntry.IsExpired() {
			requestsTotal.WithLabelValues(endpoint, "cache_hit").Inc()
			return cachedEntry.Data, nil
		}
	}

	var resp *http.Response

	classify := func(err error) ErrorClass {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr.ErrorClass
		}
		return ErrorClassNetwork
	}

	retryErr := retryWithBackoff(ctx, c.logger, c.config.MaxRetries, c.config.InitialBackoff, func() error {
		req, err := c.newRequest(ctx, endpoint, params)
		if err != nil {
			return &APIError{ErrorClass: ErrorClassClient, Message: err.Error()}
		}

		if cache.ShouldMakeConditionalRequest(cachedEntry) {
			cache.AddConditionalHeaders(req, cachedEntry)
			cache.ConditionalRequestsSent.Inc()
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &APIError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err}
		}

		c.trackRateLimit(ctx, resp.Header)

		if resp.StatusCode == http.StatusNotModified {
			return nil
		}

		if resp.StatusCode >= 400 {
			class := classifyStatus(resp.StatusCode, resp.Header)
			errorsTotal.WithLabelValues(string(class)).Inc()
			requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

			apiErr := &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: class,
				Message:    resp.Status,
			}
			resp.Body.Close()

			c.logger.WarnContext(ctx, "GitHub request error",
				"endpoint", endpoint,
				"status", resp.StatusCode,
				"error_class", string(class))

			return apiErr
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		return nil
	}, classify)

	if retryErr != nil {
		return nil, c.finalError(retryErr)
	}

	// 304: serve the cached body and extend its freshness.
	if resp.StatusCode == http.StatusNotModified {
		resp.Body.Close()
		requestsTotal.WithLabelValues(endpoint, "304").Inc()
		cache.NotModifiedResponses.Inc()

		if cachedEntry == nil {
			// A 304 without a cached body cannot be satisfied.
			return nil, &APIError{
				StatusCode: http.StatusNotModified,
				ErrorClass: ErrorClassClient,
				Message:    "304 response with no cached entry",
			}
		}

		if c.cache != nil {
			if err := c.cache.UpdateTTL(ctx, key, time.Now().Add(cache.DefaultTTL)); err != nil {
				c.logger.WarnContext(ctx, "failed to refresh cache TTL",
					"endpoint", endpoint, "error", err)
			}
		}

		return cachedEntry.Data, nil
	}

	entry, err := cache.ResponseToEntry(resp)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("read response: %w", err)
	}

	if c.cache != nil && resp.StatusCode == http.StatusOK {
		if err := c.cache.Set(ctx, key, entry); err != nil {
			c.logger.WarnContext(ctx, "failed to cache response",
				"endpoint", endpoint, "error", err)
		}
	}

	// Drain the restored body so the connection is reusable.
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return entry.Data, nil
}

// newRequest builds an authenticated GET request for the endpoint.
func (c *Client) newRequest(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	u := c.config.BaseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	return req, nil
}

// trackRateLimit records the remaining rate-limit budget from response
// headers and warns when it runs low.
func (c *Client) trackRateLimit(ctx context.Context, headers http.Header) {
	remainingStr := headers.Get("X-RateLimit-Remaining")
	if remainingStr == "" {
		return
	}

	remaining, err := strconv.Atoi(remainingStr)
	if err != nil {
		return
	}

	rateLimitRemaining.Set(float64(remaining))

	if remaining <= 10 {
		c.logger.WarnContext(ctx, "GitHub rate-limit budget low",
			"remaining", remaining,
			"reset", headers.Get("X-RateLimit-Reset"))
	}
}

// finalError maps exhausted/terminal request errors to the package's
// sentinel errors where callers need to branch on them.
func (c *Client) finalError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case apiErr.ErrorClass == ErrorClassRateLimit:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}
	return err
}

// classifyStatus categorizes an HTTP error status for retry handling.
// GitHub signals primary rate limiting with 403 or 429 plus an exhausted
// X-RateLimit-Remaining budget or a Retry-After header.
func classifyStatus(status int, headers http.Header) ErrorClass {
	switch {
	case status == http.StatusForbidden || status == http.StatusTooManyRequests:
		if headers.Get("X-RateLimit-Remaining") == "0" || headers.Get("Retry-After") != "" {
			return ErrorClassRateLimit
		}
		if status == http.StatusTooManyRequests {
			return ErrorClassRateLimit
		}
		return ErrorClassClient
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}
