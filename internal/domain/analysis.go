package domain

import "errors"

// Common validation errors for CompetitorAnalysis
var (
	ErrEmptyProjectName = errors.New("analysis project name cannot be empty")
)

// Release summarizes a single published release of a competitor project.
type Release struct {
	Version     string `json:"version"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// IssuePattern is a recurring issue category observed in a competitor's
// tracker along with how often it occurred in the analysis window.
type IssuePattern struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

// CompetitorAnalysis is the data analyzer's structured output for a single
// competitor project: recent releases, the key features and breaking
// changes extracted from them, recurring issue patterns, and the issues
// bucketed by category.
type CompetitorAnalysis struct {
	ProjectName     string         `json:"project_name"`
	RecentReleases  []Release      `json:"recent_releases"`
	KeyFeatures     []string       `json:"key_features"`
	BreakingChanges []string       `json:"breaking_changes,omitempty"`
	RecurringIssues []IssuePattern `json:"recurring_issues"`
	IssueCategories []IssuePattern `json:"issue_categories,omitempty"`
	CriticalBugs    []string       `json:"critical_bugs,omitempty"`
	FeatureRequests []string       `json:"feature_requests,omitempty"`
}

// Validate checks that the analysis identifies a project. The remaining
// fields may legitimately be empty (a quiet repository week).
func (a *CompetitorAnalysis) Validate() error {
	if a.ProjectName == "" {
		return ErrEmptyProjectName
	}
	return nil
}
