package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/watchtowerhq/watchtower-api/internal/domain"
	"github.com/watchtowerhq/watchtower-api/internal/store"
)

// abandonedReportMessage is stored on reports failed by reconciliation.
const abandonedReportMessage = "Abandoned: no generation task found after restart"

// ReconcileStaleReports marks reports that are stuck in a non-terminal
// status, are older than the given age, and have no pending or processing
// generation task as failed. Task recovery runs first at startup, so any
// report whose task survived the restart keeps its queued task and is left
// alone. The select and the updates run in one transaction so a concurrent
// requeue cannot race the sweep.
func ReconcileStaleReports(ctx context.Context, db *sql.DB, reports store.ReportStore, olderThan time.Duration, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var reconciled int
	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id FROM reports
			WHERE status IN ($1, $2)
			  AND updated_at < $3
			  AND id NOT IN (
				SELECT (payload->>'report_id')::uuid FROM tasks
				WHERE status IN ($4, $5)
			  )
			FOR UPDATE
		`,
			domain.ReportStatusPending,
			domain.ReportStatusProcessing,
			time.Now().UTC().Add(-olderThan),
			"pending",
			"processing",
		)
		if err != nil {
			return fmt.Errorf("failed to query stale reports: %w", err)
		}

		var staleIDs []uuid.UUID
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				_ = rows.Close()
				return fmt.Errorf("failed to scan stale report ID: %w", err)
			}
			staleIDs = append(staleIDs, id)
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return fmt.Errorf("error iterating stale reports: %w", err)
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("failed to close rows: %w", err)
		}

		txReports := reports.WithTx(tx)
		for _, id := range staleIDs {
			if err := txReports.UpdateStatus(ctx, id, domain.ReportStatusFailed, abandonedReportMessage); err != nil {
				return fmt.Errorf("failed to mark report %s as failed: %w", id, err)
			}
			logger.Warn("marked abandoned report as failed", "report_id", id)
		}

		reconciled = len(staleIDs)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return reconciled, nil
}
