package insight

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
	"github.com/watchtowerhq/watchtower-api/internal/github"
)

// Keyword sets used to mine release notes and issue titles.
var (
	featureKeywords  = []string{"feature", "new", "add", "implement"}
	breakingKeywords = []string{"breaking", "deprecated", "removed"}

	// Generic words excluded from recurring-pattern mining.
	patternStopwords = map[string]bool{
		"issue":   true,
		"error":   true,
		"problem": true,
	}

	wordPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)
)

const (
	maxKeyFeatures        = 5
	maxBreakingChanges    = 3
	maxRecurringPatterns  = 5
	maxCriticalBugs       = 5
	maxFeatureRequests    = 5
	maxDescriptionLength  = 200
	featureLinesPerNote   = 2
	breakingLinesPerNote  = 2
	minPatternWordLength  = 5
	minPatternOccurrences = 2
)

const (
	bugCategory            = "Bug reports"
	featureRequestCategory = "Feature requests"
)

// issueCategory is one issue bucket, matched on label names or title
// keywords.
type issueCategory struct {
	name       string
	labels     []string
	titleWords []string
}

var issueCategories = []issueCategory{
	{
		name:       bugCategory,
		labels:     []string{"bug", "error", "crash", "problem"},
		titleWords: []string{"bug", "error", "crash", "issue", "problem", "broken"},
	},
	{
		name:       featureRequestCategory,
		labels:     []string{"enhancement", "feature", "request"},
		titleWords: []string{"feature", "request", "enhancement", "add", "support"},
	},
	{
		name:       "Documentation",
		labels:     []string{"documentation", "docs"},
		titleWords: []string{"docs", "documentation", "readme", "typo"},
	},
	{
		name:       "Performance",
		labels:     []string{"performance"},
		titleWords: []string{"performance", "slow", "memory leak", "regression"},
	},
	{
		name:       "Questions",
		labels:     []string{"question"},
		titleWords: []string{"question", "how to", "how do"},
	},
}

// Default report text used when the data is too thin to derive trends.
var (
	defaultIndustryTrends = []string{
		"Performance optimizations",
		"Developer experience improvements",
		"TypeScript support",
	}

	defaultRecommendations = []string{
		"Monitor emerging patterns in competitor releases",
		"Address common industry pain points",
		"Focus on performance and developer experience",
		"Stay updated with framework-specific optimizations",
	}
)

// HeuristicAnalyzer is a keyword-based Analyzer and ReportGenerator. It
// mines release notes for feature mentions and issue titles for recurring
// technical terms, without any model call. It backs the pipeline when no
// LLM is configured and serves as the fallback when generation fails.
type HeuristicAnalyzer struct {
	logger *slog.Logger
	// now is injected for tests; defaults to time.Now.
	now func() time.Time
}

var (
	_ Analyzer        = (*HeuristicAnalyzer)(nil)
	_ ReportGenerator = (*HeuristicAnalyzer)(nil)
)

// NewHeuristicAnalyzer creates a heuristic analyzer.
func NewHeuristicAnalyzer(logger *slog.Logger) (*HeuristicAnalyzer, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger is required", ErrInvalidConfig)
	}
	return &HeuristicAnalyzer{
		logger: logger.With(slog.String("component", "heuristic_analyzer")),
		now:    time.Now,
	}, nil
}

// AnalyzeCompetitor mines the snapshot for releases, feature mentions, and
// recurring issue patterns.
func (h *HeuristicAnalyzer) AnalyzeCompetitor(ctx context.Context, name string, snapshot *github.RepoSnapshot) (*domain.CompetitorAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domain.ErrEmptyProjectName
	}
	if snapshot == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrGenerationFailed)
	}

	releases, features, breaking := h.analyzeReleases(snapshot.Releases)
	patterns := h.analyzeIssues(snapshot.Issues)
	categories, bugs, requests := h.categorizeIssues(snapshot.Issues)

	h.logger.DebugContext(ctx, "heuristic analysis complete",
		"project", name,
		"releases", len(releases),
		"key_features", len(features),
		"breaking_changes", len(breaking),
		"recurring_issues", len(patterns),
		"issue_categories", len(categories))

	return &domain.CompetitorAnalysis{
		ProjectName:     name,
		RecentReleases:  releases,
		KeyFeatures:     features,
		BreakingChanges: breaking,
		RecurringIssues: patterns,
		IssueCategories: categories,
		CriticalBugs:    bugs,
		FeatureRequests: requests,
	}, nil
}

// analyzeReleases summarizes releases and extracts the lines of the notes
// that mention feature or breaking-change keywords.
func (h *HeuristicAnalyzer) analyzeReleases(releases []github.Release) ([]domain.Release, []string, []string) {
	summaries := make([]domain.Release, 0, len(releases))
	var features, breaking []string
	seenFeature := make(map[string]bool)
	seenBreaking := make(map[string]bool)

	for _, r := range releases {
		if r.Draft {
			continue
		}

		summaries = append(summaries, domain.Release{
			Version:     releaseVersion(r),
			Date:        releaseDate(r),
			Description: truncate(r.Body, maxDescriptionLength),
		})

		features = appendMatchingLines(features, seenFeature, r.Body, featureKeywords, featureLinesPerNote, maxKeyFeatures)
		breaking = appendMatchingLines(breaking, seenBreaking, r.Body, breakingKeywords, breakingLinesPerNote, maxBreakingChanges)
	}

	return summaries, features, breaking
}

// appendMatchingLines collects up to perNote lines of body that mention one
// of the keywords, deduplicated across releases, capped at max overall.
func appendMatchingLines(dst []string, seen map[string]bool, body string, keywords []string, perNote, max int) []string {
	if !containsAny(strings.ToLower(body), keywords) {
		return dst
	}

	taken := 0
	for _, line := range strings.Split(body, "\n") {
		if taken >= perNote || len(dst) >= max {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !containsAny(strings.ToLower(trimmed), keywords) {
			continue
		}
		if seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		dst = append(dst, trimmed)
		taken++
	}

	return dst
}

// categorizeIssues buckets issues by label or title keywords. An issue may
// land in more than one bucket. Bug and feature-request titles are also
// collected verbatim for the analysis.
func (h *HeuristicAnalyzer) categorizeIssues(issues []github.Issue) ([]domain.IssuePattern, []string, []string) {
	counts := make([]int, len(issueCategories))
	var bugs, requests []string

	for _, issue := range issues {
		title := strings.ToLower(issue.Title)
		for i, cat := range issueCategories {
			if !matchesCategory(issue, title, cat) {
				continue
			}
			counts[i]++
			switch cat.name {
			case bugCategory:
				if len(bugs) < maxCriticalBugs {
					bugs = append(bugs, issue.Title)
				}
			case featureRequestCategory:
				if len(requests) < maxFeatureRequests {
					requests = append(requests, issue.Title)
				}
			}
		}
	}

	var buckets []domain.IssuePattern
	for i, cat := range issueCategories {
		if counts[i] > 0 {
			buckets = append(buckets, domain.IssuePattern{Pattern: cat.name, Count: counts[i]})
		}
	}

	return buckets, bugs, requests
}

func matchesCategory(issue github.Issue, loweredTitle string, cat issueCategory) bool {
	for _, label := range issue.Labels {
		name := strings.ToLower(label.Name)
		for _, want := range cat.labels {
			if name == want {
				return true
			}
		}
	}
	return containsAny(loweredTitle, cat.titleWords)
}

// analyzeIssues counts recurring technical terms across issue titles and
// returns the most frequent ones.
func (h *HeuristicAnalyzer) analyzeIssues(issues []github.Issue) []domain.IssuePattern {
	if len(issues) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, issue := range issues {
		title := strings.ToLower(issue.Title)
		for _, word := range wordPattern.FindAllString(title, -1) {
			if len(word) < minPatternWordLength || patternStopwords[word] {
				continue
			}
			counts[word]++
		}
	}

	type wordCount struct {
		word  string
		count int
	}
	ranked := make([]wordCount, 0, len(counts))
	for word, count := range counts {
		if count >= minPatternOccurrences {
			ranked = append(ranked, wordCount{word, count})
		}
	}

	// Stable order: frequency first, then alphabetical.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})

	if len(ranked) > maxRecurringPatterns {
		ranked = ranked[:maxRecurringPatterns]
	}

	patterns := make([]domain.IssuePattern, 0, len(ranked))
	for _, wc := range ranked {
		patterns = append(patterns, domain.IssuePattern{
			Pattern: capitalize(wc.word),
			Count:   wc.count,
		})
	}

	return patterns
}

// GenerateReport derives cross-competitor trends from features that appear
// in more than one analysis, falling back to generic trends when nothing
// repeats.
func (h *HeuristicAnalyzer) GenerateReport(ctx context.Context, analyses []*domain.CompetitorAnalysis) (*domain.ReportContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		return nil, ErrNoAnalyses
	}

	featureCounts := make(map[string]int)
	var featureOrder []string
	for _, a := range analyses {
		for _, f := range a.KeyFeatures {
			if featureCounts[f] == 0 {
				featureOrder = append(featureOrder, f)
			}
			featureCounts[f]++
		}
	}

	var trends []string
	for _, f := range featureOrder {
		if featureCounts[f] >= 2 && len(trends) < 3 {
			trends = append(trends, "Common focus: "+f)
		}
	}
	if len(trends) == 0 {
		trends = append(trends, defaultIndustryTrends...)
	}

	content := &domain.ReportContent{
		ReportDate:      h.now().UTC().Format("2006-01-02"),
		Analyses:        make([]domain.CompetitorAnalysis, 0, len(analyses)),
		IndustryTrends:  trends,
		Recommendations: append([]string(nil), defaultRecommendations...),
	}
	for _, a := range analyses {
		content.Analyses = append(content.Analyses, *a)
	}

	h.logger.DebugContext(ctx, "heuristic report generated",
		"analyses", len(analyses),
		"industry_trends", len(trends))

	return content, nil
}

func releaseVersion(r github.Release) string {
	if r.TagName != "" {
		return r.TagName
	}
	if r.Name != "" {
		return r.Name
	}
	return "Unknown"
}

func releaseDate(r github.Release) string {
	if r.PublishedAt == nil {
		return ""
	}
	return r.PublishedAt.UTC().Format("2006-01-02")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
