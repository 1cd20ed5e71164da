// Package redact removes credentials from strings before they are logged
// or returned in error responses. Error messages in this service can carry
// GitHub tokens, Gemini API keys, or database connection strings when an
// upstream call fails; everything that crosses the API boundary goes
// through this package first.
package redact

import "regexp"

// Redaction placeholders
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedTokenPlaceholder      = "[REDACTED_TOKEN]"
)

var (
	// Database connection strings with inline credentials
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|redis)://[^@\s]+@`)

	// GitHub tokens: classic (ghp_), fine-grained (github_pat_), OAuth
	// (gho_), and installation tokens (ghs_, ghu_)
	githubTokenRegex = regexp.MustCompile(`\b(?:ghp|gho|ghs|ghu)_[A-Za-z0-9]{20,}\b|\bgithub_pat_[A-Za-z0-9_]{20,}\b`)

	// Google API keys as issued for the Gemini API
	googleKeyRegex = regexp.MustCompile(`\bAIza[A-Za-z0-9_\-]{30,}\b`)

	// Authorization header values
	bearerRegex = regexp.MustCompile(`(?i)(bearer|token)\s+[A-Za-z0-9_\-.~+/]{8,}`)

	// Generic key=value credential assignments
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|password|passwd)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	patterns = []*regexp.Regexp{
		dbConnRegex, githubTokenRegex, googleKeyRegex, bearerRegex, apiKeyRegex,
	}

	patternPlaceholders = map[*regexp.Regexp]string{
		dbConnRegex:      RedactedCredentialPlaceholder,
		githubTokenRegex: RedactedTokenPlaceholder,
		googleKeyRegex:   RedactedKeyPlaceholder,
		bearerRegex:      RedactedTokenPlaceholder,
		apiKeyRegex:      RedactedKeyPlaceholder,
	}
)

// String redacts credentials from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, pattern := range patterns {
		result = pattern.ReplaceAllString(result, patternPlaceholders[pattern])
	}

	return result
}

// Error redacts credentials from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
