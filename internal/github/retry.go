package github

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// retryConfig holds the backoff parameters for one error class.
type retryConfig struct {
	maxAttempts       int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
}

// retryConfigForClass returns the backoff parameters for an error class.
// Rate-limit errors back off longer than ordinary server hiccups.
func retryConfigForClass(class ErrorClass, maxAttempts int, initialBackoff time.Duration) retryConfig {
	cfg := retryConfig{
		maxAttempts:       maxAttempts,
		initialBackoff:    initialBackoff,
		maxBackoff:        30 * time.Second,
		backoffMultiplier: 2.0,
	}

	if class == ErrorClassRateLimit {
		cfg.initialBackoff = 5 * initialBackoff
		cfg.maxBackoff = 2 * time.Minute
	}

	return cfg
}

// retryWithBackoff executes fn with exponential backoff retry logic.
// classify is consulted after each failure to pick the backoff profile.
// It respects context cancellation and adds jitter to prevent lockstep
// retries.
func retryWithBackoff(
	ctx context.Context,
	logger *slog.Logger,
	maxAttempts int,
	initialBackoff time.Duration,
	fn func() error,
	classify func(err error) ErrorClass,
) error {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.InfoContext(ctx, "request succeeded after retry",
					"attempt", attempt)
			}
			return nil
		}

		lastErr = err
		class := classify(err)

		if !shouldRetry(class) {
			return lastErr
		}

		if attempt >= maxAttempts {
			break
		}

		cfg := retryConfigForClass(class, maxAttempts, initialBackoff)

		backoff := cfg.initialBackoff
		for i := 1; i < attempt; i++ {
			backoff = time.Duration(float64(backoff) * cfg.backoffMultiplier)
		}
		if backoff > cfg.maxBackoff {
			backoff = cfg.maxBackoff
		}

		// ±20% jitter
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))

		retriesTotal.WithLabelValues(string(class)).Inc()
		retryBackoffSeconds.WithLabelValues(string(class)).Observe(jitter.Seconds())

		logger.DebugContext(ctx, "retrying request after backoff",
			"error_class", string(class),
			"attempt", attempt,
			"backoff", jitter.String())

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrRetryExhausted, ctx.Err())
		case <-time.After(jitter):
		}
	}

	retryExhaustedTotal.Inc()
	logger.WarnContext(ctx, "retry attempts exhausted",
		"max_attempts", maxAttempts)

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, maxAttempts, lastErr)
}
