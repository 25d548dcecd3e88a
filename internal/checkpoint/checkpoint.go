// Package checkpoint persists run progress so an interrupted ritual can resume.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Store.Load when no checkpoint exists for a run.
var ErrNotFound = errors.New("checkpoint not found")

// runNamespace scopes run ids generated by RunID.
var runNamespace = uuid.MustParse("6f1c9b52-3d0e-5a7e-9a51-0b8f1e7c2d44")

// RunID derives the stable id of a run from the seed and grid dimensions.
func RunID(seed int64, width, height int) string {
	name := fmt.Sprintf("%d:%d:%d", seed, width, height)
	return uuid.NewSHA1(runNamespace, []byte(name)).String()
}

// Checkpoint is a snapshot of executor progress.
type Checkpoint struct {
	RunID           string    `yaml:"run_id"`
	Seed            int64     `yaml:"seed"`
	PlanFingerprint string    `yaml:"plan_fingerprint"`
	NextActionIndex int       `yaml:"next_action_index"`
	PlacedCount     int       `yaml:"placed_count"`
	FailedActionIDs []int     `yaml:"failed_action_ids"`
	Timestamp       time.Time `yaml:"timestamp"`
}

// Verify checks that the checkpoint belongs to a plan with the given seed,
// fingerprint and length, and that its counters are consistent.
func (c *Checkpoint) Verify(seed int64, fingerprint string, total int) error {
	corrupt := func(format string, args ...any) error {
		return &CorruptError{RunID: c.RunID, Reason: fmt.Sprintf(format, args...)}
	}

	if c.Seed != seed {
		return corrupt("seed %d does not match plan seed %d", c.Seed, seed)
	}
	if c.PlanFingerprint != fingerprint {
		return corrupt("plan fingerprint changed")
	}
	if c.NextActionIndex < 0 || c.NextActionIndex > total {
		return corrupt("next action index %d outside plan of %d actions", c.NextActionIndex, total)
	}
	seen := make(map[int]bool, len(c.FailedActionIDs))
	for _, id := range c.FailedActionIDs {
		if id < 0 || id >= c.NextActionIndex {
			return corrupt("failed action %d was never attempted", id)
		}
		if seen[id] {
			return corrupt("failed action %d listed twice", id)
		}
		seen[id] = true
	}
	if c.PlacedCount+len(c.FailedActionIDs) != c.NextActionIndex {
		return corrupt("%d placed + %d failed does not add up to %d attempted", c.PlacedCount, len(c.FailedActionIDs), c.NextActionIndex)
	}
	return nil
}

// CorruptError reports a checkpoint that cannot be read or does not match the
// current plan. Runs discard such checkpoints and start fresh.
type CorruptError struct {
	RunID  string
	Reason string
	Err    error
}

func (e *CorruptError) Error() string {
	msg := fmt.Sprintf("checkpoint %s is corrupt: %s", e.RunID, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Store holds at most one checkpoint per run id.
type Store interface {
	// Load returns the checkpoint for runID, ErrNotFound when there is none,
	// or a *CorruptError when the stored record cannot be decoded.
	Load(ctx context.Context, runID string) (*Checkpoint, error)
	// Save replaces the checkpoint for cp.RunID. It returns once the record is durable.
	Save(ctx context.Context, cp *Checkpoint) error
	// Complete removes or archives the checkpoint of a finished run.
	Complete(ctx context.Context, runID string) error
	Close() error
}
