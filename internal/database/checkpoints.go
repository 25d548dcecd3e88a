package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lawnchairsociety/mazeritual/internal/checkpoint"
)

// CheckpointStore implements checkpoint.Store on top of a Database.
// Each run owns one row of ritual_checkpoints.
type CheckpointStore struct {
	d       *Database
	archive bool
}

// Checkpoints returns a store backed by d. With archive set, completed runs
// are flagged instead of deleted. Closing the store closes d.
func (d *Database) Checkpoints(archive bool) *CheckpointStore {
	return &CheckpointStore{d: d, archive: archive}
}

// Load returns the active checkpoint for runID.
func (s *CheckpointStore) Load(ctx context.Context, runID string) (*checkpoint.Checkpoint, error) {
	query := s.d.qb.Build(`SELECT seed, plan_fingerprint, next_action_index, placed_count, failed_action_ids, updated_at
		FROM ritual_checkpoints WHERE run_id = ? AND completed = 0`)

	var (
		cp        checkpoint.Checkpoint
		failed    string
		updatedAt string
	)
	err := s.d.db.QueryRowContext(ctx, query, runID).Scan(
		&cp.Seed, &cp.PlanFingerprint, &cp.NextActionIndex, &cp.PlacedCount, &failed, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, checkpoint.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	cp.RunID = runID
	cp.FailedActionIDs, err = parseIDs(failed)
	if err != nil {
		return nil, &checkpoint.CorruptError{RunID: runID, Reason: "bad failed action list", Err: err}
	}
	cp.Timestamp, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, &checkpoint.CorruptError{RunID: runID, Reason: "bad timestamp", Err: err}
	}
	return &cp, nil
}

// Save upserts the checkpoint row. The statement runs in autocommit mode so
// the row is durable when Save returns.
func (s *CheckpointStore) Save(ctx context.Context, cp *checkpoint.Checkpoint) error {
	query := s.d.qb.Build(`INSERT INTO ritual_checkpoints
		(run_id, seed, plan_fingerprint, next_action_index, placed_count, failed_action_ids, updated_at, completed)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT (run_id) DO UPDATE SET
			seed = excluded.seed,
			plan_fingerprint = excluded.plan_fingerprint,
			next_action_index = excluded.next_action_index,
			placed_count = excluded.placed_count,
			failed_action_ids = excluded.failed_action_ids,
			updated_at = excluded.updated_at,
			completed = 0`)

	_, err := s.d.db.ExecContext(ctx, query,
		cp.RunID, cp.Seed, cp.PlanFingerprint, cp.NextActionIndex, cp.PlacedCount,
		formatIDs(cp.FailedActionIDs), cp.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Complete deletes the run's row, or flags it completed when archiving.
func (s *CheckpointStore) Complete(ctx context.Context, runID string) error {
	query := `DELETE FROM ritual_checkpoints WHERE run_id = ?`
	if s.archive {
		query = `UPDATE ritual_checkpoints SET completed = 1 WHERE run_id = ?`
	}
	if _, err := s.d.db.ExecContext(ctx, s.d.qb.Build(query), runID); err != nil {
		return fmt.Errorf("failed to finish checkpoint: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *CheckpointStore) Close() error {
	return s.d.Close()
}

func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

func parseIDs(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
