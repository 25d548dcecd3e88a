package ritual

import (
	"context"
	"fmt"

	"github.com/lawnchairsociety/mazeritual/internal/checkpoint"
	"github.com/lawnchairsociety/mazeritual/internal/config"
	"github.com/lawnchairsociety/mazeritual/internal/logger"
	"github.com/lawnchairsociety/mazeritual/internal/maze"
	"github.com/lawnchairsociety/mazeritual/internal/plan"
)

// Prepared is a chosen maze and its placement plan.
type Prepared struct {
	RunID     string
	Candidate *maze.Candidate
	Solution  maze.Path
	Plan      *plan.Plan
	// SeedDrawn reports that no seed was configured and the search base came
	// from the clock. Such runs cannot be resumed by id.
	SeedDrawn bool
}

// Prepare searches for the best seed, solves it and builds the placement plan.
func Prepare(ctx context.Context, cfg *config.RitualConfig) (*Prepared, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, drawn := maze.ResolveSeed(cfg.Seed)
	if drawn {
		logger.Warning("No seed configured, using a clock seed; this run cannot be resumed after a restart", "seed", base)
	}

	nearRadius := cfg.NearRadius
	if nearRadius == 0 {
		nearRadius = maze.DefaultNearRadius(cfg.Width, cfg.Height)
	}

	best, err := maze.Search(ctx, maze.SearchOptions{
		BaseSeed:   base,
		Count:      cfg.SeedSearchCount,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Weights:    cfg.ScoringWeights.Weights,
		NearRadius: nearRadius,
		Workers:    cfg.SearchWorkers,
		OnCandidate: func(seed int64, m maze.Metrics, score float64, err error) {
			if err != nil {
				logger.Debug("Seed disqualified", "seed", seed, "error", err)
				return
			}
			logger.Debug("Seed scored", "seed", seed, "score", score, "solution_length", m.SolutionLength)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("seed search: %w", err)
	}
	logger.Info("Seed selected",
		"seed", best.Seed,
		"score", best.Score,
		"solution_length", best.Metrics.SolutionLength,
		"dead_ends", best.Metrics.DeadEndCount,
		"branches", best.Metrics.BranchCount,
		"longest_false_path", best.Metrics.LongestFalsePath)

	entrance, exit := maze.DefaultEndpoints(cfg.Width, cfg.Height)
	solution, err := maze.Solve(best.Grid, entrance, exit)
	if err != nil {
		return nil, fmt.Errorf("solve seed %d: %w", best.Seed, err)
	}

	p, err := plan.Build(best.Grid, plan.Options{
		Origin:   cfg.Origin,
		CellSize: cfg.CellSize,
		Overlay:  cfg.Overlay,
		Solution: solution,
	})
	if err != nil {
		return nil, err
	}
	walls, markers := p.Counts()
	logger.Info("Plan built", "walls", walls, "markers", markers, "fingerprint", p.Fingerprint)

	return &Prepared{
		RunID:     checkpoint.RunID(best.Seed, cfg.Width, cfg.Height),
		Candidate: best,
		Solution:  solution,
		Plan:      p,
		SeedDrawn: drawn,
	}, nil
}

// SettingsFromConfig maps the configuration record onto executor settings.
func SettingsFromConfig(cfg *config.RitualConfig, runID string) Settings {
	return Settings{
		RunID:               runID,
		CheckpointInterval:  cfg.CheckpointInterval,
		MaxRetries:          cfg.MaxRetries,
		RetryBackoff:        cfg.RetryBackoff(),
		MaxBackoff:          cfg.MaxBackoff(),
		Pacing:              cfg.Pacing(),
		ReplenishBatchSize:  cfg.ReplenishBatchSize,
		ReplenishTimeout:    cfg.ReplenishTimeout(),
		ReplenishPoll:       cfg.ReplenishPoll(),
		RetryFailedOnResume: cfg.RetryFailedOnResume,
	}
}

// Run prepares the configured maze and executes its plan against world.
func Run(ctx context.Context, cfg *config.RitualConfig, world World, store checkpoint.Store, opts ...Option) (*Summary, error) {
	prepared, err := Prepare(ctx, cfg)
	if err != nil {
		return nil, err
	}
	exec := NewExecutor(prepared.Plan, world, store, SettingsFromConfig(cfg, prepared.RunID), opts...)
	return exec.Run(ctx)
}
