package database

import (
	"context"
	"fmt"
)

// CopyCheckpoints copies every ritual_checkpoints row from src into dst,
// archived rows included. Rows already in dst with the same run id are
// replaced. With dryRun set, rows are counted but nothing is written.
func CopyCheckpoints(ctx context.Context, src, dst *Database, dryRun bool) (int64, error) {
	rows, err := src.db.QueryContext(ctx, `SELECT run_id, seed, plan_fingerprint, next_action_index,
		placed_count, failed_action_ids, updated_at, completed FROM ritual_checkpoints ORDER BY run_id`)
	if err != nil {
		return 0, fmt.Errorf("failed to read checkpoints: %w", err)
	}
	defer rows.Close()

	insert := dst.qb.Build(`INSERT INTO ritual_checkpoints
		(run_id, seed, plan_fingerprint, next_action_index, placed_count, failed_action_ids, updated_at, completed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id) DO UPDATE SET
			seed = excluded.seed,
			plan_fingerprint = excluded.plan_fingerprint,
			next_action_index = excluded.next_action_index,
			placed_count = excluded.placed_count,
			failed_action_ids = excluded.failed_action_ids,
			updated_at = excluded.updated_at,
			completed = excluded.completed`)

	var count int64
	for rows.Next() {
		var (
			runID, fingerprint, failed, updatedAt string
			seed                                  int64
			next, placed, completed               int
		)
		if err := rows.Scan(&runID, &seed, &fingerprint, &next, &placed, &failed, &updatedAt, &completed); err != nil {
			return count, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		if dryRun {
			count++
			continue
		}
		if _, err := dst.db.ExecContext(ctx, insert,
			runID, seed, fingerprint, next, placed, failed, updatedAt, completed); err != nil {
			return count, fmt.Errorf("failed to copy checkpoint %s: %w", runID, err)
		}
		count++
	}
	return count, rows.Err()
}
