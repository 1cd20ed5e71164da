package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
	"github.com/watchtowerhq/watchtower-api/internal/platform/logger"
	"github.com/watchtowerhq/watchtower-api/internal/store"
)

// PostgresCompetitorStore implements the store.CompetitorStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCompetitorStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCompetitorStore creates a new PostgreSQL implementation of the
// CompetitorStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller. If logger is nil, a
// default logger is used.
func NewPostgresCompetitorStore(db store.DBTX, logger *slog.Logger) *PostgresCompetitorStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCompetitorStore{
		db:     db,
		logger: logger.With(slog.String("component", "competitor_store")),
	}
}

// Ensure PostgresCompetitorStore implements store.CompetitorStore
var _ store.CompetitorStore = (*PostgresCompetitorStore)(nil)

// Create implements store.CompetitorStore.Create
// It saves a new competitor to the database, handling domain validation.
// Returns store.ErrCompetitorExists if the owner/repo pair is already tracked.
func (s *PostgresCompetitorStore) Create(ctx context.Context, competitor *domain.Competitor) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := competitor.Validate(); err != nil {
		log.Warn("competitor validation failed during create",
			slog.String("error", err.Error()),
			slog.String("competitor_id", competitor.ID.String()))
		return err
	}

	query := `
		INSERT INTO competitors (id, name, owner, repo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		competitor.ID,
		competitor.Name,
		competitor.Owner,
		competitor.Repo,
		competitor.CreatedAt,
		competitor.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate competitor repository",
				slog.String("competitor_id", competitor.ID.String()),
				slog.String("slug", competitor.Slug()))
			return fmt.Errorf("%w: %s", store.ErrCompetitorExists, competitor.Slug())
		}

		log.Error("failed to create competitor",
			slog.String("error", err.Error()),
			slog.String("competitor_id", competitor.ID.String()))
		return MapError(err)
	}

	log.Info("competitor created successfully",
		slog.String("competitor_id", competitor.ID.String()),
		slog.String("name", competitor.Name),
		slog.String("slug", competitor.Slug()))
	return nil
}

// GetByID implements store.CompetitorStore.GetByID
// Returns store.ErrCompetitorNotFound if the competitor does not exist.
func (s *PostgresCompetitorStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Competitor, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, owner, repo, created_at, updated_at
		FROM competitors
		WHERE id = $1
	`

	var competitor domain.Competitor
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&competitor.ID,
		&competitor.Name,
		&competitor.Owner,
		&competitor.Repo,
		&competitor.CreatedAt,
		&competitor.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("competitor not found", slog.String("competitor_id", id.String()))
			return nil, store.ErrCompetitorNotFound
		}
		log.Error("failed to get competitor by ID",
			slog.String("error", err.Error()),
			slog.String("competitor_id", id.String()))
		return nil, MapError(err)
	}

	return &competitor, nil
}

// List implements store.CompetitorStore.List
// It retrieves all tracked competitors ordered by name.
// Returns an empty slice when nothing is tracked.
func (s *PostgresCompetitorStore) List(ctx context.Context) ([]*domain.Competitor, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, owner, repo, created_at, updated_at
		FROM competitors
		ORDER BY name ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list competitors", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	competitors := []*domain.Competitor{}
	for rows.Next() {
		var competitor domain.Competitor
		err := rows.Scan(
			&competitor.ID,
			&competitor.Name,
			&competitor.Owner,
			&competitor.Repo,
			&competitor.CreatedAt,
			&competitor.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan competitor row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		competitors = append(competitors, &competitor)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("listed competitors", slog.Int("count", len(competitors)))
	return competitors, nil
}

// Delete implements store.CompetitorStore.Delete
// Returns store.ErrCompetitorNotFound if the competitor does not exist.
func (s *PostgresCompetitorStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM competitors WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete competitor",
			slog.String("error", err.Error()),
			slog.String("competitor_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "competitor"); err != nil {
		log.Debug("competitor not found for delete",
			slog.String("competitor_id", id.String()))
		return fmt.Errorf("%w: %v", store.ErrCompetitorNotFound, err)
	}

	log.Info("competitor deleted successfully",
		slog.String("competitor_id", id.String()))
	return nil
}

// WithTx implements store.CompetitorStore.WithTx
// It returns a new store instance bound to the given transaction.
func (s *PostgresCompetitorStore) WithTx(tx *sql.Tx) store.CompetitorStore {
	return &PostgresCompetitorStore{
		db:     tx,
		logger: s.logger,
	}
}
