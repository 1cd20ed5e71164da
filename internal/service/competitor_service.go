package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
	"github.com/watchtowerhq/watchtower-api/internal/store"
)

// CompetitorService manages the set of tracked competitor repositories.
type CompetitorService interface {
	// AddCompetitor starts tracking a GitHub repository under the given
	// display name. Returns ErrCompetitorExists if the repository is
	// already tracked.
	AddCompetitor(ctx context.Context, name, owner, repo string) (*domain.Competitor, error)

	// GetCompetitor retrieves a tracked competitor by ID.
	GetCompetitor(ctx context.Context, id uuid.UUID) (*domain.Competitor, error)

	// ListCompetitors returns all tracked competitors ordered by name.
	ListCompetitors(ctx context.Context) ([]*domain.Competitor, error)

	// RemoveCompetitor stops tracking a competitor. Existing reports that
	// mention it are unaffected.
	RemoveCompetitor(ctx context.Context, id uuid.UUID) error
}

type competitorServiceImpl struct {
	competitors store.CompetitorStore
	logger      *slog.Logger
}

// NewCompetitorService creates a CompetitorService backed by the given store.
func NewCompetitorService(competitors store.CompetitorStore, logger *slog.Logger) (CompetitorService, error) {
	if competitors == nil {
		return nil, &ServiceError{
			Operation: "create_service",
			Message:   "competitor store cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &competitorServiceImpl{
		competitors: competitors,
		logger:      logger.With("component", "competitor_service"),
	}, nil
}

func (s *competitorServiceImpl) AddCompetitor(ctx context.Context, name, owner, repo string) (*domain.Competitor, error) {
	competitor, err := domain.NewCompetitor(name, owner, repo)
	if err != nil {
		s.logger.Warn("rejected invalid competitor",
			"error", err,
			"name", name,
			"owner", owner,
			"repo", repo)
		return nil, err
	}

	if err := s.competitors.Create(ctx, competitor); err != nil {
		s.logger.Error("failed to create competitor",
			"error", err,
			"slug", competitor.Slug())
		return nil, newServiceError("add_competitor", "failed to save competitor", err)
	}

	s.logger.Info("competitor added",
		"competitor_id", competitor.ID,
		"slug", competitor.Slug())
	return competitor, nil
}

func (s *competitorServiceImpl) GetCompetitor(ctx context.Context, id uuid.UUID) (*domain.Competitor, error) {
	competitor, err := s.competitors.GetByID(ctx, id)
	if err != nil {
		return nil, newServiceError("get_competitor", "failed to retrieve competitor", err)
	}
	return competitor, nil
}

func (s *competitorServiceImpl) ListCompetitors(ctx context.Context) ([]*domain.Competitor, error) {
	competitors, err := s.competitors.List(ctx)
	if err != nil {
		s.logger.Error("failed to list competitors", "error", err)
		return nil, newServiceError("list_competitors", "failed to list competitors", err)
	}
	return competitors, nil
}

func (s *competitorServiceImpl) RemoveCompetitor(ctx context.Context, id uuid.UUID) error {
	if err := s.competitors.Delete(ctx, id); err != nil {
		s.logger.Error("failed to remove competitor",
			"error", err,
			"competitor_id", id)
		return newServiceError("remove_competitor", "failed to delete competitor", err)
	}

	s.logger.Info("competitor removed", "competitor_id", id)
	return nil
}
