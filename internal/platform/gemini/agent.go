package gemini

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/watchtowerhq/watchtower-api/internal/config"
	"github.com/watchtowerhq/watchtower-api/internal/domain"
	"github.com/watchtowerhq/watchtower-api/internal/github"
	"github.com/watchtowerhq/watchtower-api/internal/insight"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// snapshot limits applied before prompting, to keep token usage bounded.
const (
	promptMaxReleases    = 3
	promptMaxReleaseBody = 500
	promptMaxIssues      = 20
	promptMaxIssueLabels = 3
	defaultMaxRetries    = 3
	defaultBaseDelaySecs = 2
)

// modelCaller abstracts the raw Gemini call so retry and response parsing
// can be tested without a live client.
type modelCaller interface {
	generate(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)
}

// clientCaller is the production modelCaller backed by *genai.Client.
type clientCaller struct {
	client *genai.Client
	model  string
}

func (c *clientCaller) generate(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
}

// Agent implements insight.Analyzer and insight.ReportGenerator using the
// Gemini API. It runs two roles with separate prompt templates: a data
// analyzer producing per-competitor analyses and a report generator
// synthesizing the weekly report.
type Agent struct {
	logger        *slog.Logger
	config        config.LLMConfig
	caller        modelCaller
	analyzePrompt *template.Template
	reportPrompt  *template.Template
	// sleep pauses between retries; injected for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var (
	_ insight.Analyzer        = (*Agent)(nil)
	_ insight.ReportGenerator = (*Agent)(nil)
)

// NewAgent creates a Gemini-backed agent. The API key and model name are
// required; use the heuristic analyzer when no key is configured.
func NewAgent(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Agent, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", insight.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", insight.ErrInvalidConfig)
	}

	analyzePrompt, err := template.ParseFS(promptFS, "prompts/analyze.tmpl")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse analyze prompt: %v", insight.ErrInvalidConfig, err)
	}
	reportPrompt, err := template.ParseFS(promptFS, "prompts/report.tmpl")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse report prompt: %v", insight.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", insight.ErrInvalidConfig, err)
	}

	return &Agent{
		logger:        logger.With(slog.String("component", "gemini_agent")),
		config:        cfg,
		caller:        &clientCaller{client: client, model: cfg.ModelName},
		analyzePrompt: analyzePrompt,
		reportPrompt:  reportPrompt,
		sleep:         sleepContext,
	}, nil
}

// AnalyzeCompetitor runs the data-analyzer role over one repository
// snapshot and returns the structured analysis.
func (a *Agent) AnalyzeCompetitor(ctx context.Context, name string, snapshot *github.RepoSnapshot) (*domain.CompetitorAnalysis, error) {
	if name == "" {
		return nil, domain.ErrEmptyProjectName
	}
	if snapshot == nil {
		return nil, fmt.Errorf("%w: nil snapshot", insight.ErrGenerationFailed)
	}

	prompt, err := a.buildAnalysisPrompt(name, snapshot)
	if err != nil {
		return nil, err
	}

	text, err := a.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var analysis domain.CompetitorAnalysis
	if err := json.Unmarshal([]byte(extractJSON(text)), &analysis); err != nil {
		return nil, fmt.Errorf("%w: failed to parse analysis JSON: %v", insight.ErrInvalidResponse, err)
	}

	// Models occasionally omit the project name; pin it to the input.
	analysis.ProjectName = name

	if err := analysis.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", insight.ErrInvalidResponse, err)
	}

	a.logger.InfoContext(ctx, "competitor analysis generated",
		"project", name,
		"releases", len(analysis.RecentReleases),
		"key_features", len(analysis.KeyFeatures),
		"recurring_issues", len(analysis.RecurringIssues))

	return &analysis, nil
}

// GenerateReport runs the report-generator role over the collected
// analyses and assembles the weekly report content.
func (a *Agent) GenerateReport(ctx context.Context, analyses []*domain.CompetitorAnalysis) (*domain.ReportContent, error) {
	if len(analyses) == 0 {
		return nil, insight.ErrNoAnalyses
	}

	prompt, err := a.buildReportPrompt(analyses)
	if err != nil {
		return nil, err
	}

	text, err := a.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var synthesis reportSchema
	if err := json.Unmarshal([]byte(extractJSON(text)), &synthesis); err != nil {
		return nil, fmt.Errorf("%w: failed to parse report JSON: %v", insight.ErrInvalidResponse, err)
	}
	if len(synthesis.IndustryTrends) == 0 && len(synthesis.Recommendations) == 0 {
		return nil, fmt.Errorf("%w: report synthesis is empty", insight.ErrInvalidResponse)
	}

	content := &domain.ReportContent{
		ReportDate:      time.Now().UTC().Format("2006-01-02"),
		Analyses:        make([]domain.CompetitorAnalysis, 0, len(analyses)),
		IndustryTrends:  synthesis.IndustryTrends,
		Recommendations: synthesis.Recommendations,
	}
	for _, analysis := range analyses {
		content.Analyses = append(content.Analyses, *analysis)
	}

	a.logger.InfoContext(ctx, "weekly report generated",
		"analyses", len(analyses),
		"industry_trends", len(content.IndustryTrends),
		"recommendations", len(content.Recommendations))

	return content, nil
}

// buildAnalysisPrompt renders the data-analyzer prompt with a trimmed
// snapshot.
func (a *Agent) buildAnalysisPrompt(name string, snapshot *github.RepoSnapshot) (string, error) {
	releases := snapshot.Releases
	if len(releases) > promptMaxReleases {
		releases = releases[:promptMaxReleases]
	}
	type promptRelease struct {
		TagName     string `json:"tag_name"`
		Name        string `json:"name"`
		Body        string `json:"body"`
		PublishedAt string `json:"published_at"`
	}
	trimmedReleases := make([]promptRelease, 0, len(releases))
	for _, r := range releases {
		pr := promptRelease{TagName: r.TagName, Name: r.Name, Body: clip(r.Body, promptMaxReleaseBody)}
		if r.PublishedAt != nil {
			pr.PublishedAt = r.PublishedAt.UTC().Format(time.RFC3339)
		}
		trimmedReleases = append(trimmedReleases, pr)
	}

	issues := snapshot.Issues
	if len(issues) > promptMaxIssues {
		issues = issues[:promptMaxIssues]
	}
	type promptIssue struct {
		Title     string   `json:"title"`
		Labels    []string `json:"labels"`
		State     string   `json:"state"`
		CreatedAt string   `json:"created_at"`
	}
	trimmedIssues := make([]promptIssue, 0, len(issues))
	for _, i := range issues {
		labels := make([]string, 0, len(i.Labels))
		for _, l := range i.Labels {
			if len(labels) >= promptMaxIssueLabels {
				break
			}
			labels = append(labels, l.Name)
		}
		trimmedIssues = append(trimmedIssues, promptIssue{
			Title:     i.Title,
			Labels:    labels,
			State:     i.State,
			CreatedAt: i.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	releasesJSON, err := json.Marshal(trimmedReleases)
	if err != nil {
		return "", fmt.Errorf("marshal releases for prompt: %w", err)
	}
	issuesJSON, err := json.Marshal(trimmedIssues)
	if err != nil {
		return "", fmt.Errorf("marshal issues for prompt: %w", err)
	}

	var buf bytes.Buffer
	err = a.analyzePrompt.Execute(&buf, analysisPromptData{
		ProjectName: name,
		Slug:        snapshot.Slug(),
		Releases:    string(releasesJSON),
		Issues:      string(issuesJSON),
	})
	if err != nil {
		return "", fmt.Errorf("execute analyze prompt: %w", err)
	}

	return buf.String(), nil
}

// buildReportPrompt renders the report-generator prompt.
func (a *Agent) buildReportPrompt(analyses []*domain.CompetitorAnalysis) (string, error) {
	analysesJSON, err := json.Marshal(analyses)
	if err != nil {
		return "", fmt.Errorf("marshal analyses for prompt: %w", err)
	}

	var buf bytes.Buffer
	if err := a.reportPrompt.Execute(&buf, reportPromptData{Analyses: string(analysesJSON)}); err != nil {
		return "", fmt.Errorf("execute report prompt: %w", err)
	}

	return buf.String(), nil
}

// callWithRetry calls the model with exponential backoff for transient
// errors. Permanent errors (blocked content, unparseable responses) are
// returned immediately.
func (a *Agent) callWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := a.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	baseDelaySeconds := a.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = defaultBaseDelaySecs
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; attempt <= maxRetries; attempt++ {
		a.logger.DebugContext(ctx, "calling Gemini API",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1)

		text, transient, err := a.callOnce(ctx, prompt)
		if err == nil {
			return text, nil
		}

		a.logger.WarnContext(ctx, "Gemini API call failed",
			"attempt", attempt+1,
			"transient", transient,
			"error", err)

		if !transient {
			return "", err
		}
		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				insight.ErrTransientFailure, maxRetries, err)
		}

		// delay = baseDelay * 2^attempt * (0.5 + rand[0, 0.5))
		backoff := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5) * float64(time.Second))

		if err := a.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("%w: %v", insight.ErrTransientFailure, err)
		}
	}

	return "", fmt.Errorf("%w: retry loop exhausted", insight.ErrTransientFailure)
}

// callOnce performs one model call and extracts the text parts. The second
// return reports whether a failure is worth retrying.
func (a *Agent) callOnce(ctx context.Context, prompt string) (string, bool, error) {
	resp, err := a.caller.generate(ctx, prompt)
	if err != nil {
		// API and network failures are assumed transient.
		return "", true, fmt.Errorf("%w: %v", insight.ErrTransientFailure, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false, fmt.Errorf("%w: no content generated", insight.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", false, fmt.Errorf("%w: generation stopped by safety filters", insight.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", false, fmt.Errorf("%w: empty content in response", insight.ErrInvalidResponse)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return "", false, fmt.Errorf("%w: response contained no text parts", insight.ErrInvalidResponse)
	}

	return text.String(), false, nil
}

// extractJSON strips markdown code fences the model sometimes wraps JSON
// output in.
func extractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// clip truncates s to at most max bytes.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
