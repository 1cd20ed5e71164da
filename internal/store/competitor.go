package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
)

// CompetitorStore defines persistence operations for tracked competitors.
type CompetitorStore interface {
	// Create saves a new competitor.
	// Returns ErrCompetitorExists if the owner/repo pair is already tracked.
	// Returns validation errors from the domain Competitor if data is invalid.
	Create(ctx context.Context, competitor *domain.Competitor) error

	// GetByID retrieves a competitor by its unique ID.
	// Returns ErrCompetitorNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Competitor, error)

	// List retrieves all tracked competitors ordered by name.
	List(ctx context.Context) ([]*domain.Competitor, error)

	// Delete removes a competitor.
	// Returns ErrCompetitorNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new CompetitorStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) CompetitorStore
}
