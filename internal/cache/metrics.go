package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for cache operations.
var (
	Hits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchtower_cache_hits_total",
		Help: "Total cache hits for GitHub API responses",
	})

	Misses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchtower_cache_misses_total",
		Help: "Total cache misses for GitHub API responses",
	})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "watchtower_cache_errors_total",
		Help: "Total cache backend errors by operation",
	}, []string{"operation"})

	ConditionalRequestsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchtower_cache_conditional_requests_total",
		Help: "Total conditional requests sent with cached validators",
	})

	NotModifiedResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "watchtower_cache_not_modified_total",
		Help: "Total 304 Not Modified responses answered from cache",
	})
)
