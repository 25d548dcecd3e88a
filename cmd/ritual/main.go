// ritual builds a scored maze and places it in the game world, resuming from
// the last checkpoint when a previous run was interrupted.
//
// Usage:
//
//	go run ./cmd/ritual -config data/ritual.yaml
//	go run ./cmd/ritual -config data/ritual.yaml -simulate -material 64
//	go run ./cmd/ritual -seed 42 -preview
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lawnchairsociety/mazeritual/internal/config"
	"github.com/lawnchairsociety/mazeritual/internal/gameclient"
	"github.com/lawnchairsociety/mazeritual/internal/logger"
	"github.com/lawnchairsociety/mazeritual/internal/preview"
	"github.com/lawnchairsociety/mazeritual/internal/ritual"
	"github.com/lawnchairsociety/mazeritual/internal/simworld"
)

const (
	exitCompleted = 0
	exitFailed    = 1
	exitStopped   = 2
)

func main() {
	configFile := flag.String("config", "data/ritual.yaml", "Path to ritual config YAML file")
	seed := flag.Int64("seed", 0, "First seed of the search (overrides the config file)")
	simulate := flag.Bool("simulate", false, "Run against an in-memory world instead of the game server")
	material := flag.Int("material", 64, "Starting material in the simulated world")
	wsURL := flag.String("ws", "", "Game server WebSocket URL (overrides the config file)")
	showPreview := flag.Bool("preview", false, "Print the chosen maze and exit without placing anything")
	flag.Parse()

	// Initialize logger first (before any logging)
	logConfig, err := logger.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load logging config: %v", err)
	}
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	os.Exit(run(*configFile, *seed, seedSet(), *simulate, *material, *wsURL, *showPreview))
}

func seedSet() bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			set = true
		}
	})
	return set
}

func run(configFile string, seed int64, overrideSeed, simulate bool, material int, wsURL string, showPreview bool) int {
	defer logger.Close()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		logger.Error("Failed to load config", "path", configFile, "error", err)
		return exitFailed
	}
	if overrideSeed {
		cfg.Seed = &seed
	}
	if wsURL != "" {
		cfg.Game.URL = wsURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prepared, err := ritual.Prepare(ctx, cfg)
	if err != nil {
		logger.Error("Failed to prepare ritual", "error", err)
		return exitFailed
	}

	if showPreview {
		fmt.Printf("Seed %d, %dx%d, score %.2f\n", prepared.Candidate.Seed, cfg.Width, cfg.Height, prepared.Candidate.Score)
		fmt.Print(preview.Render(prepared.Candidate.Grid, prepared.Solution))
		walls, markers := prepared.Plan.Counts()
		fmt.Printf("%d walls, %d markers, run %s\n", walls, markers, prepared.RunID)
		return exitCompleted
	}

	store, err := openStore(cfg)
	if err != nil {
		logger.Error("Failed to open checkpoint store", "driver", cfg.Checkpoint.Driver, "error", err)
		return exitFailed
	}
	defer store.Close()

	var world ritual.World
	if simulate {
		world = simworld.New(simworld.Options{
			Material: material,
			Reserve:  simworld.Unlimited,
			Start:    cfg.Origin,
		})
		logger.Info("Using simulated world", "material", material)
	} else {
		client, err := gameclient.Dial(ctx, cfg.Game.URL, cfg.Game.RequestTimeout())
		if err != nil {
			logger.Error("Failed to connect to game server", "url", cfg.Game.URL, "error", err)
			return exitFailed
		}
		defer client.Close()
		world = client
	}

	exec := ritual.NewExecutor(prepared.Plan, world, store, ritual.SettingsFromConfig(cfg, prepared.RunID))
	summary, err := exec.Run(ctx)
	switch {
	case summary != nil && summary.State == ritual.StateCompleted:
		return exitCompleted
	case summary != nil && summary.State == ritual.StateStopped:
		logger.Info("Ritual stopped, progress saved", "run_id", prepared.RunID)
		return exitStopped
	case errors.Is(err, ritual.ErrMaterialDepleted):
		logger.Error("Ritual aborted: out of material", "run_id", prepared.RunID, "error", err)
		return exitFailed
	default:
		logger.Error("Ritual failed", "run_id", prepared.RunID, "error", err)
		return exitFailed
	}
}
