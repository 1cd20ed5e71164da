package insight

import "errors"

// Common errors returned by analyzer and report generator implementations.
var (
	// ErrInvalidConfig indicates the implementation was constructed with
	// missing or invalid configuration.
	ErrInvalidConfig = errors.New("invalid analyzer configuration")

	// ErrInvalidResponse indicates the model returned output that could
	// not be parsed into the expected structure.
	ErrInvalidResponse = errors.New("invalid model response")

	// ErrContentBlocked indicates generation was stopped by safety
	// filters.
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// ErrTransientFailure indicates a retryable failure (network,
	// throttling, model overload).
	ErrTransientFailure = errors.New("transient generation failure")

	// ErrGenerationFailed indicates a non-retryable generation failure.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrNoAnalyses indicates report generation was requested with no
	// competitor analyses to summarize.
	ErrNoAnalyses = errors.New("no competitor analyses to report on")
)
