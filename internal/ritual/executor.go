// Package ritual places a planned maze in the world one action at a time,
// checkpointing progress so a run survives crashes and disconnects.
package ritual

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lawnchairsociety/mazeritual/internal/checkpoint"
	"github.com/lawnchairsociety/mazeritual/internal/logger"
	"github.com/lawnchairsociety/mazeritual/internal/plan"
)

// RunState is the lifecycle state of a run.
type RunState int

const (
	StateStarting RunState = iota
	StateRunning
	// StatePaused means the run is waiting for material.
	StatePaused
	StateCompleted
	StateAborted
	// StateStopped means the caller cancelled the run. Progress is checkpointed.
	StateStopped
)

func (s RunState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

const defaultReplenishPoll = 500 * time.Millisecond

// Settings tune one executor.
type Settings struct {
	RunID string
	// CheckpointInterval is the number of successful placements between checkpoints.
	CheckpointInterval int
	// MaxRetries is the number of retries after the first failed attempt.
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxBackoff caps the retry delay. Zero leaves it uncapped.
	MaxBackoff          time.Duration
	Pacing              time.Duration
	ReplenishBatchSize  int
	ReplenishTimeout    time.Duration
	ReplenishPoll       time.Duration
	RetryFailedOnResume bool
}

func (s *Settings) normalize() {
	if s.CheckpointInterval < 1 {
		s.CheckpointInterval = 1
	}
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}
	if s.ReplenishBatchSize < 1 {
		s.ReplenishBatchSize = 1
	}
	if s.ReplenishPoll <= 0 {
		s.ReplenishPoll = defaultReplenishPoll
	}
}

// Summary describes how a run ended.
type Summary struct {
	RunID             string
	State             RunState
	Total             int
	Placed            int
	Failed            int
	FailedActions     []plan.Action
	ReplenishRequests int
	Resumed           bool
	Reason            string
}

// Executor drives a plan through a World. It is single-threaded: one action
// is in flight at a time, and Run must be called only once.
type Executor struct {
	plan     *plan.Plan
	world    World
	store    checkpoint.Store
	settings Settings
	clock    Clock

	state             RunState
	next              int
	placed            int
	failed            []int
	requeue           []int
	sinceCheckpoint   int
	replenishRequests int
	resumed           bool

	onTransition func(from, to RunState)
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(e *Executor) {
		e.clock = c
	}
}

// WithStateHook registers fn to be called on every run state change.
func WithStateHook(fn func(from, to RunState)) Option {
	return func(e *Executor) {
		e.onTransition = fn
	}
}

// NewExecutor creates an executor for p. The plan's action states are reset
// when Run starts.
func NewExecutor(p *plan.Plan, world World, store checkpoint.Store, settings Settings, opts ...Option) *Executor {
	settings.normalize()
	e := &Executor{
		plan:     p,
		world:    world,
		store:    store,
		settings: settings,
		clock:    SystemClock(),
		state:    StateStarting,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current run state.
func (e *Executor) State() RunState {
	return e.state
}

// Run places every remaining action. It returns a summary for every outcome
// once the run has started. The error is nil only for StateCompleted; a
// cancelled run returns the context's error with StateStopped.
func (e *Executor) Run(ctx context.Context) (*Summary, error) {
	if err := e.resume(ctx); err != nil {
		return e.finish(StateAborted, err.Error()), err
	}
	e.logTravel(ctx)
	e.setState(StateRunning)

	total := e.plan.Len()
	for e.next < total {
		if err := ctx.Err(); err != nil {
			return e.stop(ctx, err)
		}

		id := e.next
		ok, err := e.attempt(ctx, id)
		if err != nil {
			return e.halt(ctx, err)
		}
		e.next++
		if ok {
			if err := e.recordSuccess(ctx); err != nil {
				return e.halt(ctx, err)
			}
		} else {
			e.failed = append(e.failed, id)
		}

		if e.next < total || len(e.requeue) > 0 {
			if err := e.clock.Sleep(ctx, e.settings.Pacing); err != nil {
				return e.stop(ctx, err)
			}
		}
	}

	if err := e.retryFailed(ctx); err != nil {
		return e.halt(ctx, err)
	}
	return e.complete(ctx)
}

// retryFailed gives actions that failed in an earlier session one more pass.
func (e *Executor) retryFailed(ctx context.Context) error {
	queue := e.requeue
	e.requeue = nil
	if len(queue) == 0 {
		return nil
	}
	logger.Info("Retrying actions that failed before resume", "run_id", e.settings.RunID, "count", len(queue))

	for i, id := range queue {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := e.attempt(ctx, id)
		if err != nil {
			return err
		}
		if ok {
			e.failed = slices.DeleteFunc(e.failed, func(f int) bool { return f == id })
			if err := e.recordSuccess(ctx); err != nil {
				return err
			}
		}
		if i < len(queue)-1 {
			if err := e.clock.Sleep(ctx, e.settings.Pacing); err != nil {
				return err
			}
		}
	}
	return nil
}

// attempt places one action, retrying transient failures. It reports false
// when the action is recorded as failed. A non-nil error ends the run.
func (e *Executor) attempt(ctx context.Context, id int) (bool, error) {
	a := &e.plan.Actions[id]
	failures := 0
	depletions := 0
	for {
		if err := e.ensureMaterial(ctx, a); err != nil {
			return false, err
		}

		a.State = plan.StatePending
		err := e.world.PlaceAt(ctx, a.Pos, a.Role)
		if err == nil {
			a.State = plan.StatePlaced
			return true, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}

		// The counter and the placer can disagree briefly. Depletion reported
		// while material is counted is treated as an ordinary failure once it
		// has happened more often than a failure would be retried.
		if errors.Is(err, ErrMaterialDepleted) && depletions <= e.settings.MaxRetries {
			depletions++
			if err := e.replenish(ctx, a); err != nil {
				return false, err
			}
			continue
		}

		failures++
		a.State = plan.StateFailed
		if failures > e.settings.MaxRetries {
			logger.Warning("Placement failed, giving up",
				"run_id", e.settings.RunID,
				"action", a.ID,
				"role", a.Role.String(),
				"pos", a.Pos.String(),
				"attempts", failures,
				"error", err)
			return false, nil
		}

		delay := e.backoff(failures)
		logger.Debug("Placement failed, retrying",
			"action", a.ID,
			"pos", a.Pos.String(),
			"attempt", failures,
			"delay", delay,
			"error", err)
		if err := e.clock.Sleep(ctx, delay); err != nil {
			return false, err
		}
	}
}

// backoff returns the delay before retry n (1-based).
func (e *Executor) backoff(n int) time.Duration {
	delay := e.settings.RetryBackoff
	for i := 1; i < n; i++ {
		delay *= 2
		if e.settings.MaxBackoff > 0 && delay >= e.settings.MaxBackoff {
			break
		}
	}
	if e.settings.MaxBackoff > 0 && delay > e.settings.MaxBackoff {
		delay = e.settings.MaxBackoff
	}
	return delay
}

func (e *Executor) ensureMaterial(ctx context.Context, a *plan.Action) error {
	n, err := e.world.CountAvailableMaterial(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// Let the placement itself report depletion.
		logger.Warning("Material count unavailable", "run_id", e.settings.RunID, "error", err)
		return nil
	}
	if n > 0 {
		return nil
	}
	return e.replenish(ctx, a)
}

// replenish pauses the run until material is available again or the
// replenishment timeout elapses.
func (e *Executor) replenish(ctx context.Context, a *plan.Action) error {
	a.State = plan.StateBlocked
	e.setState(StatePaused)
	logger.Warning("Material depleted, requesting replenishment",
		"run_id", e.settings.RunID,
		"action", a.ID,
		"batch", e.settings.ReplenishBatchSize)

	deadline := e.clock.Now().Add(e.settings.ReplenishTimeout)
	requested := false
	for {
		if !requested {
			err := e.world.RequestReplenishment(ctx, e.settings.ReplenishBatchSize)
			switch {
			case err == nil:
				requested = true
				e.replenishRequests++
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				logger.Warning("Replenishment request failed", "run_id", e.settings.RunID, "error", err)
			}
		}

		n, err := e.world.CountAvailableMaterial(ctx)
		if err == nil && n > 0 {
			logger.Info("Material replenished", "run_id", e.settings.RunID, "available", n)
			a.State = plan.StatePending
			e.setState(StateRunning)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		remaining := deadline.Sub(e.clock.Now())
		if remaining <= 0 {
			return &MaterialDepletedError{ActionID: a.ID, Waited: e.settings.ReplenishTimeout}
		}
		if err := e.clock.Sleep(ctx, min(e.settings.ReplenishPoll, remaining)); err != nil {
			return err
		}
	}
}

func (e *Executor) recordSuccess(ctx context.Context) error {
	e.placed++
	e.sinceCheckpoint++
	if e.sinceCheckpoint < e.settings.CheckpointInterval {
		return nil
	}
	return e.save(ctx)
}

func (e *Executor) snapshot() *checkpoint.Checkpoint {
	failed := slices.Clone(e.failed)
	slices.Sort(failed)
	return &checkpoint.Checkpoint{
		RunID:           e.settings.RunID,
		Seed:            e.plan.Seed,
		PlanFingerprint: e.plan.Fingerprint,
		NextActionIndex: e.next,
		PlacedCount:     e.placed,
		FailedActionIDs: failed,
		Timestamp:       e.clock.Now().UTC(),
	}
}

func (e *Executor) save(ctx context.Context) error {
	cp := e.snapshot()
	if err := e.store.Save(ctx, cp); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	e.sinceCheckpoint = 0
	logger.Debug("Checkpoint saved",
		"run_id", cp.RunID,
		"next_action_index", cp.NextActionIndex,
		"placed", cp.PlacedCount,
		"failed", len(cp.FailedActionIDs))
	return nil
}

// resume restores progress from the stored checkpoint. Unreadable or
// mismatched checkpoints are discarded and the run starts from the beginning.
func (e *Executor) resume(ctx context.Context) error {
	e.plan.Reset()

	cp, err := e.store.Load(ctx, e.settings.RunID)
	var corrupt *checkpoint.CorruptError
	switch {
	case errors.Is(err, checkpoint.ErrNotFound):
		logger.Info("Starting run", "run_id", e.settings.RunID, "actions", e.plan.Len())
		return nil
	case errors.As(err, &corrupt):
		logger.Warning("Discarding unreadable checkpoint", "run_id", e.settings.RunID, "error", err)
		return nil
	case err != nil:
		return fmt.Errorf("load checkpoint: %w", err)
	}

	if err := cp.Verify(e.plan.Seed, e.plan.Fingerprint, e.plan.Len()); err != nil {
		logger.Warning("Discarding checkpoint that does not match the plan", "run_id", e.settings.RunID, "error", err)
		return nil
	}

	failed := make(map[int]bool, len(cp.FailedActionIDs))
	for _, id := range cp.FailedActionIDs {
		failed[id] = true
	}
	for i := 0; i < cp.NextActionIndex; i++ {
		if failed[i] {
			e.plan.Actions[i].State = plan.StateFailed
		} else {
			e.plan.Actions[i].State = plan.StatePlaced
		}
	}
	e.next = cp.NextActionIndex
	e.placed = cp.PlacedCount
	e.failed = slices.Clone(cp.FailedActionIDs)
	e.resumed = true
	if e.settings.RetryFailedOnResume {
		e.requeue = slices.Clone(cp.FailedActionIDs)
	}

	logger.Info("Resuming run from checkpoint",
		"run_id", e.settings.RunID,
		"next_action_index", cp.NextActionIndex,
		"placed", cp.PlacedCount,
		"failed", len(cp.FailedActionIDs),
		"saved_at", cp.Timestamp)
	return nil
}

func (e *Executor) logTravel(ctx context.Context) {
	if e.next >= e.plan.Len() {
		return
	}
	pos, err := e.world.CurrentPosition(ctx)
	if err != nil {
		logger.Debug("Current position unavailable", "error", err)
		return
	}
	target := e.plan.Actions[e.next].Pos
	logger.Info("Heading to next placement",
		"from", pos.String(),
		"to", target.String(),
		"distance", plan.Distance(pos, target))
}

// halt ends the run after a fatal error, writing a final checkpoint so an
// operator can resume later.
func (e *Executor) halt(ctx context.Context, cause error) (*Summary, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return e.stop(ctx, ctxErr)
	}
	if err := e.save(context.WithoutCancel(ctx)); err != nil {
		logger.Error("Final checkpoint failed", "run_id", e.settings.RunID, "error", err)
	}
	return e.finish(StateAborted, cause.Error()), cause
}

// stop ends a cancelled run. Every action is either placed, failed or not yet
// attempted, so the checkpoint written here is exact.
func (e *Executor) stop(ctx context.Context, cause error) (*Summary, error) {
	if err := e.save(context.WithoutCancel(ctx)); err != nil {
		logger.Error("Checkpoint on stop failed", "run_id", e.settings.RunID, "error", err)
		return e.finish(StateStopped, err.Error()), errors.Join(cause, err)
	}
	return e.finish(StateStopped, "cancelled"), cause
}

func (e *Executor) complete(ctx context.Context) (*Summary, error) {
	if err := e.store.Complete(ctx, e.settings.RunID); err != nil {
		// A leftover checkpoint at the end of the plan resumes straight into completion.
		logger.Warning("Could not clear checkpoint", "run_id", e.settings.RunID, "error", err)
	}
	return e.finish(StateCompleted, ""), nil
}

func (e *Executor) finish(state RunState, reason string) *Summary {
	e.setState(state)

	failed := slices.Clone(e.failed)
	slices.Sort(failed)
	s := &Summary{
		RunID:             e.settings.RunID,
		State:             state,
		Total:             e.plan.Len(),
		Placed:            e.placed,
		Failed:            len(failed),
		ReplenishRequests: e.replenishRequests,
		Resumed:           e.resumed,
		Reason:            reason,
	}
	for _, id := range failed {
		s.FailedActions = append(s.FailedActions, e.plan.Actions[id])
	}

	logger.Always("Ritual finished",
		"run_id", s.RunID,
		"state", s.State.String(),
		"placed", s.Placed,
		"failed", s.Failed,
		"total", s.Total,
		"replenish_requests", s.ReplenishRequests,
		"reason", s.Reason)
	for _, a := range s.FailedActions {
		logger.Always("Failed placement", "run_id", s.RunID, "action", a.ID, "role", a.Role.String(), "pos", a.Pos.String())
	}
	return s
}

func (e *Executor) setState(s RunState) {
	if e.state == s {
		return
	}
	from := e.state
	e.state = s
	logger.Debug("Run state changed", "run_id", e.settings.RunID, "from", from.String(), "to", s.String())
	if e.onTransition != nil {
		e.onTransition(from, s)
	}
}
