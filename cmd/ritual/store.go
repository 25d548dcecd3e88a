package main

import (
	"fmt"

	"github.com/lawnchairsociety/mazeritual/internal/checkpoint"
	"github.com/lawnchairsociety/mazeritual/internal/config"
	"github.com/lawnchairsociety/mazeritual/internal/database"
	"github.com/lawnchairsociety/mazeritual/internal/logger"
)

// openStore returns the checkpoint store selected by cfg.Checkpoint.Driver.
func openStore(cfg *config.RitualConfig) (checkpoint.Store, error) {
	switch cfg.Checkpoint.Driver {
	case "file":
		store, err := checkpoint.NewFileStore(cfg.Checkpoint.Dir, cfg.ArchiveCheckpoints)
		if err != nil {
			return nil, err
		}
		logger.Info("Checkpoints stored in files", "dir", cfg.Checkpoint.Dir)
		return store, nil
	case "sqlite", "postgres":
		db, err := database.OpenWithConfig(cfg.Checkpoint.DatabaseConfig())
		if err != nil {
			return nil, err
		}
		logger.Info("Checkpoints stored in database", "driver", cfg.Checkpoint.Driver)
		return db.Checkpoints(cfg.ArchiveCheckpoints), nil
	}
	return nil, fmt.Errorf("unknown checkpoint driver %q", cfg.Checkpoint.Driver)
}
