package insight

import (
	"context"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
	"github.com/watchtowerhq/watchtower-api/internal/github"
)

// Analyzer produces a structured analysis of one competitor from its
// repository snapshot.
type Analyzer interface {
	// AnalyzeCompetitor extracts releases, key features, and recurring
	// issue patterns for the named project. Implementations must respect
	// context cancellation.
	AnalyzeCompetitor(ctx context.Context, name string, snapshot *github.RepoSnapshot) (*domain.CompetitorAnalysis, error)
}

// ReportGenerator synthesizes the weekly report content from the set of
// per-competitor analyses.
type ReportGenerator interface {
	// GenerateReport derives industry trends and recommendations from the
	// analyses. Returns ErrNoAnalyses when the slice is empty.
	GenerateReport(ctx context.Context, analyses []*domain.CompetitorAnalysis) (*domain.ReportContent, error)
}
