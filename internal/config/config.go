package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/mazeritual/internal/database"
	"github.com/lawnchairsociety/mazeritual/internal/maze"
	"github.com/lawnchairsociety/mazeritual/internal/plan"
)

// RitualConfig is the single configuration record for a maze ritual run.
// It is read once at startup and shared by pointer; components only read it.
type RitualConfig struct {
	// Seed is the first seed of the search. Nil draws a seed from the clock.
	Seed   *int64 `yaml:"seed"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`

	// SeedSearchCount is how many consecutive seeds are generated and scored.
	SeedSearchCount int `yaml:"seed_search_count"`

	// SearchWorkers bounds parallel generation during the search. 1 scores one seed at a time.
	SearchWorkers int `yaml:"search_workers"`

	ScoringWeights ScoringWeights `yaml:"scoring_weights"`

	// NearRadius is the BFS distance under which dead ends count as near the entrance.
	// 0 uses (width+height)/2.
	NearRadius int `yaml:"near_radius"`

	// Overlay adds solution markers to the placement plan.
	Overlay  bool          `yaml:"overlay"`
	Origin   plan.Position `yaml:"origin"`
	CellSize int           `yaml:"cell_size"`

	// CheckpointInterval is the number of successful placements between checkpoints.
	CheckpointInterval int `yaml:"checkpoint_interval"`

	// MaxRetries is how often a transiently failing placement is retried.
	MaxRetries int `yaml:"max_retries"`

	// RetryBackoffMS is the first retry delay; each further retry doubles it.
	RetryBackoffMS int `yaml:"retry_backoff_ms"`

	// MaxBackoffMS caps the retry delay. 0 means uncapped.
	MaxBackoffMS int `yaml:"max_backoff_ms"`

	// PacingMS is the pause between placements to respect server rate limits.
	PacingMS int `yaml:"pacing_ms"`

	ReplenishBatchSize int `yaml:"replenish_batch_size"`
	ReplenishTimeoutMS int `yaml:"replenish_timeout_ms"`
	ReplenishPollMS    int `yaml:"replenish_poll_ms"`

	// ArchiveCheckpoints keeps the checkpoint of a completed run instead of deleting it.
	ArchiveCheckpoints bool `yaml:"archive_checkpoints"`

	// RetryFailedOnResume re-attempts actions that failed in an earlier session.
	RetryFailedOnResume bool `yaml:"retry_failed_on_resume"`

	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Game       GameConfig       `yaml:"game"`
}

// CheckpointConfig selects where checkpoints are stored.
type CheckpointConfig struct {
	// Driver is "file", "sqlite" or "postgres".
	Driver string `yaml:"driver"`

	// Dir holds one YAML file per run for the file driver.
	Dir string `yaml:"dir"`

	// Database configures the sqlite and postgres drivers. Its own driver
	// field is ignored in favor of Driver above.
	Database database.Config `yaml:"database"`
}

// DatabaseConfig returns the database settings with the driver filled in.
func (c CheckpointConfig) DatabaseConfig() database.Config {
	cfg := c.Database
	cfg.Driver = c.Driver
	return cfg
}

// GameConfig holds the connection settings for the game client bridge.
type GameConfig struct {
	URL              string `yaml:"url"`
	RequestTimeoutMS int    `yaml:"request_timeout_ms"`
}

// ScoringWeights decodes either a mapping
// (solution, branch, false_path, near_dead_end) or a list of four numbers.
type ScoringWeights struct {
	maze.Weights `yaml:",inline"`
}

// UnmarshalYAML accepts the list form in addition to the mapping form.
func (w *ScoringWeights) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var vals []float64
		if err := node.Decode(&vals); err != nil {
			return err
		}
		if len(vals) != 4 {
			return fmt.Errorf("line %d: scoring_weights needs 4 values, got %d", node.Line, len(vals))
		}
		w.Weights = maze.Weights{Solution: vals[0], Branch: vals[1], FalsePath: vals[2], NearDeadEnd: vals[3]}
		return nil
	}
	return node.Decode(&w.Weights)
}

// DefaultConfig returns a RitualConfig with working defaults.
func DefaultConfig() *RitualConfig {
	return &RitualConfig{
		Width:              21,
		Height:             21,
		SeedSearchCount:    32,
		SearchWorkers:      1,
		ScoringWeights:     ScoringWeights{maze.DefaultWeights()},
		CellSize:           1,
		CheckpointInterval: 10,
		MaxRetries:         3,
		RetryBackoffMS:     250,
		MaxBackoffMS:       5000,
		PacingMS:           150,
		ReplenishBatchSize: 16,
		ReplenishTimeoutMS: 30000,
		ReplenishPollMS:    500,
		Checkpoint: CheckpointConfig{
			Driver:   "file",
			Dir:      "data/checkpoints",
			Database: database.DefaultConfig("data/ritual.db"),
		},
		Game: GameConfig{
			URL:              "ws://localhost:4443/ritual",
			RequestTimeoutMS: 5000,
		},
	}
}

// LoadConfig loads the ritual configuration from a YAML file and applies
// environment overrides. A missing file yields the defaults.
func LoadConfig(path string) (*RitualConfig, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return config, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, config); err != nil {
				return DefaultConfig(), fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	if err := config.applyEnv(); err != nil {
		return config, err
	}
	return config, nil
}

func (c *RitualConfig) applyEnv() error {
	if s := os.Getenv("RITUAL_SEED"); s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return &maze.ConfigurationError{Field: "seed", Reason: fmt.Sprintf("RITUAL_SEED %q is not an integer", s)}
		}
		c.Seed = &seed
	}
	if dir := os.Getenv("RITUAL_CHECKPOINT_DIR"); dir != "" {
		c.Checkpoint.Dir = dir
	}
	if url := os.Getenv("RITUAL_GAME_URL"); url != "" {
		c.Game.URL = url
	}
	return nil
}

// Validate reports the first invalid setting as a *maze.ConfigurationError.
func (c *RitualConfig) Validate() error {
	if err := maze.ValidateDimensions(c.Width, c.Height); err != nil {
		return err
	}
	if err := c.ScoringWeights.Validate(); err != nil {
		return err
	}

	positive := []struct {
		field string
		value int
	}{
		{"seed_search_count", c.SeedSearchCount},
		{"search_workers", c.SearchWorkers},
		{"cell_size", c.CellSize},
		{"checkpoint_interval", c.CheckpointInterval},
		{"replenish_batch_size", c.ReplenishBatchSize},
	}
	for _, p := range positive {
		if p.value < 1 {
			return &maze.ConfigurationError{Field: p.field, Reason: fmt.Sprintf("must be at least 1, got %d", p.value)}
		}
	}

	nonNegative := []struct {
		field string
		value int
	}{
		{"near_radius", c.NearRadius},
		{"max_retries", c.MaxRetries},
		{"retry_backoff_ms", c.RetryBackoffMS},
		{"max_backoff_ms", c.MaxBackoffMS},
		{"pacing_ms", c.PacingMS},
		{"replenish_timeout_ms", c.ReplenishTimeoutMS},
		{"replenish_poll_ms", c.ReplenishPollMS},
	}
	for _, p := range nonNegative {
		if p.value < 0 {
			return &maze.ConfigurationError{Field: p.field, Reason: fmt.Sprintf("must not be negative, got %d", p.value)}
		}
	}

	switch c.Checkpoint.Driver {
	case "file":
		if c.Checkpoint.Dir == "" {
			return &maze.ConfigurationError{Field: "checkpoint.dir", Reason: "required for the file driver"}
		}
	case "sqlite", "postgres":
	default:
		return &maze.ConfigurationError{Field: "checkpoint.driver", Reason: fmt.Sprintf("unknown driver %q", c.Checkpoint.Driver)}
	}
	return nil
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// RetryBackoff returns the first retry delay.
func (c *RitualConfig) RetryBackoff() time.Duration { return ms(c.RetryBackoffMS) }

// MaxBackoff returns the retry delay cap.
func (c *RitualConfig) MaxBackoff() time.Duration { return ms(c.MaxBackoffMS) }

// Pacing returns the pause between placements.
func (c *RitualConfig) Pacing() time.Duration { return ms(c.PacingMS) }

// ReplenishTimeout returns how long to wait for material after a replenishment request.
func (c *RitualConfig) ReplenishTimeout() time.Duration { return ms(c.ReplenishTimeoutMS) }

// ReplenishPoll returns how often material is recounted while waiting.
func (c *RitualConfig) ReplenishPoll() time.Duration { return ms(c.ReplenishPollMS) }

// RequestTimeout returns the per-request deadline for the game client.
func (g GameConfig) RequestTimeout() time.Duration { return ms(g.RequestTimeoutMS) }
