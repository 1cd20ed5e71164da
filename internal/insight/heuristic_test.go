package insight

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
	"github.com/watchtowerhq/watchtower-api/internal/github"
)

func newTestAnalyzer(t *testing.T) *HeuristicAnalyzer {
	t.Helper()
	h, err := NewHeuristicAnalyzer(slog.Default())
	require.NoError(t, err)
	return h
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestNewHeuristicAnalyzerRequiresLogger(t *testing.T) {
	t.Parallel()

	_, err := NewHeuristicAnalyzer(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAnalyzeCompetitorExtractsReleasesAndFeatures(t *testing.T) {
	t.Parallel()

	h := newTestAnalyzer(t)

	published := time.Date(2026, 8, 18, 14, 0, 0, 0, time.UTC)
	snap := &github.RepoSnapshot{
		Owner: "vercel",
		Repo:  "next.js",
		Releases: []github.Release{
			{
				TagName:     "v15.0.0",
				Body:        "Add partial prerendering\nFix router regression\nImplement streaming metadata",
				PublishedAt: ptrTime(published),
			},
			{
				TagName: "v14.9.9-draft",
				Body:    "Add something secret",
				Draft:   true,
			},
		},
	}

	analysis, err := h.AnalyzeCompetitor(context.Background(), "Next.js", snap)
	require.NoError(t, err)

	assert.Equal(t, "Next.js", analysis.ProjectName)
	require.Len(t, analysis.RecentReleases, 1, "drafts must be skipped")
	assert.Equal(t, "v15.0.0", analysis.RecentReleases[0].Version)
	assert.Equal(t, "2026-08-18", analysis.RecentReleases[0].Date)

	// Two feature lines per release, matched on feature keywords.
	require.Len(t, analysis.KeyFeatures, 2)
	assert.Equal(t, "Add partial prerendering", analysis.KeyFeatures[0])
	assert.Equal(t, "Implement streaming metadata", analysis.KeyFeatures[1])
}

func TestAnalyzeCompetitorTruncatesLongDescriptions(t *testing.T) {
	t.Parallel()

	h := newTestAnalyzer(t)

	body := strings.Repeat("x", 300)
	snap := &github.RepoSnapshot{
		Releases: []github.Release{{TagName: "v1.0.0", Body: body}},
	}

	analysis, err := h.AnalyzeCompetitor(context.Background(), "Remix", snap)
	require.NoError(t, err)
	require.Len(t, analysis.RecentReleases, 1)
	assert.Len(t, analysis.RecentReleases[0].Description, maxDescriptionLength+3)
	assert.True(t, strings.HasSuffix(analysis.RecentReleases[0].Description, "..."))
}

func TestAnalyzeCompetitorExtractsBreakingChanges(t *testing.T) {
	t.Parallel()

	h := newTestAnalyzer(t)

	snap := &github.RepoSnapshot{
		Releases: []github.Release{
			{
				TagName: "v3.0.0",
				Body:    "BREAKING: removed the legacy adapter API\nAdd new adapter hooks\nDeprecated the old config loader",
			},
		},
	}

	analysis, err := h.AnalyzeCompetitor(context.Background(), "SvelteKit", snap)
	require.NoError(t, err)

	// Two breaking-change lines per release note.
	require.Len(t, analysis.BreakingChanges, 2)
	assert.Equal(t, "BREAKING: removed the legacy adapter API", analysis.BreakingChanges[0])
	assert.Equal(t, "Deprecated the old config loader", analysis.BreakingChanges[1])
}

func TestAnalyzeCompetitorBucketsIssues(t *testing.T) {
	t.Parallel()

	h := newTestAnalyzer(t)

	snap := &github.RepoSnapshot{
		Issues: []github.Issue{
			{Title: "App crash on startup", Labels: []github.Label{{Name: "bug"}}},
			{Title: "Unexpected behaviour in dev", Labels: []github.Label{{Name: "Bug"}}},
			{Title: "Dev server broken after upgrade"},
			{Title: "Support pnpm workspaces", Labels: []github.Label{{Name: "enhancement"}}},
			{Title: "Typo in the routing guide"},
			{Title: "Slow builds with large monorepos"},
			{Title: "How to disable prefetching?"},
		},
	}

	analysis, err := h.AnalyzeCompetitor(context.Background(), "Astro", snap)
	require.NoError(t, err)

	// Labels match case-insensitively; keyword-only titles match too.
	assert.Equal(t, []domain.IssuePattern{
		{Pattern: "Bug reports", Count: 3},
		{Pattern: "Feature requests", Count: 1},
		{Pattern: "Documentation", Count: 1},
		{Pattern: "Performance", Count: 1},
		{Pattern: "Questions", Count: 1},
	}, analysis.IssueCategories)

	assert.Equal(t, []string{
		"App crash on startup",
		"Unexpected behaviour in dev",
		"Dev server broken after upgrade",
	}, analysis.CriticalBugs)
	assert.Equal(t, []string{"Support pnpm workspaces"}, analysis.FeatureRequests)
}

func TestAnalyzeCompetitorFindsRecurringIssuePatterns(t *testing.T) {
	t.Parallel()

	h := newTestAnalyzer(t)

	snap := &github.RepoSnapshot{
		Issues: []github.Issue{
			{Title: "Hydration mismatch on nested routes"},
			{Title: "Hydration error in dev server"},
			{Title: "Hydration broken after upgrade"},
			{Title: "Middleware timeout on edge runtime"},
			{Title: "Middleware crash with custom matcher"},
			{Title: "Docs typo"},
		},
	}

	analysis, err := h.AnalyzeCompetitor(context.Background(), "Nuxt", snap)
	require.NoError(t, err)

	require.NotEmpty(t, analysis.RecurringIssues)
	assert.Equal(t, domain.IssuePattern{Pattern: "Hydration", Count: 3}, analysis.RecurringIssues[0])
	assert.Contains(t, analysis.RecurringIssues, domain.IssuePattern{Pattern: "Middleware", Count: 2})

	// Single-occurrence and short words are not patterns.
	for _, p := range analysis.RecurringIssues {
		assert.GreaterOrEqual(t, p.Count, minPatternOccurrences)
		assert.GreaterOrEqual(t, len(p.Pattern), minPatternWordLength)
	}
}

func TestAnalyzeCompetitorValidation(t *testing.T) {
	t.Parallel()

	h := newTestAnalyzer(t)

	_, err := h.AnalyzeCompetitor(context.Background(), "", &github.RepoSnapshot{})
	assert.ErrorIs(t, err, domain.ErrEmptyProjectName)

	_, err = h.AnalyzeCompetitor(context.Background(), "Astro", nil)
	assert.ErrorIs(t, err, ErrGenerationFailed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.AnalyzeCompetitor(ctx, "Astro", &github.RepoSnapshot{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateReportDerivesCommonTrends(t *testing.T) {
	t.Parallel()

	h := newTestAnalyzer(t)
	h.now = func() time.Time {
		return time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	}

	analyses := []*domain.CompetitorAnalysis{
		{ProjectName: "Next.js", KeyFeatures: []string{"Add edge rendering", "Implement turbopack"}},
		{ProjectName: "Nuxt", KeyFeatures: []string{"Add edge rendering"}},
		{ProjectName: "SvelteKit", KeyFeatures: []string{"New adapter API"}},
	}

	content, err := h.GenerateReport(context.Background(), analyses)
	require.NoError(t, err)

	assert.Equal(t, "2026-08-23", content.ReportDate)
	require.Len(t, content.Analyses, 3)
	assert.Equal(t, []string{"Common focus: Add edge rendering"}, content.IndustryTrends)
	assert.Equal(t, defaultRecommendations, content.Recommendations)
}

func TestGenerateReportFallsBackToDefaultTrends(t *testing.T) {
	t.Parallel()

	h := newTestAnalyzer(t)

	analyses := []*domain.CompetitorAnalysis{
		{ProjectName: "Remix", KeyFeatures: []string{"Add single fetch"}},
	}

	content, err := h.GenerateReport(context.Background(), analyses)
	require.NoError(t, err)
	assert.Equal(t, defaultIndustryTrends, content.IndustryTrends)
}

func TestGenerateReportRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	h := newTestAnalyzer(t)

	_, err := h.GenerateReport(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoAnalyses)
}
