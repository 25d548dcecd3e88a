package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/lawnchairsociety/mazeritual/internal/checkpoint"
	"github.com/lawnchairsociety/mazeritual/internal/config"
)

func TestOpenStore(t *testing.T) {
	tests := []struct {
		name   string
		driver string
	}{
		{"file", "file"},
		{"sqlite", "sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := config.DefaultConfig()
			cfg.Checkpoint.Driver = tt.driver
			cfg.Checkpoint.Dir = dir
			cfg.Checkpoint.Database.SQLitePath = filepath.Join(dir, "ritual.db")

			store, err := openStore(cfg)
			if err != nil {
				t.Fatalf("openStore failed: %v", err)
			}
			defer store.Close()

			ctx := context.Background()
			cp := &checkpoint.Checkpoint{RunID: "run", Seed: 1, PlanFingerprint: "f", NextActionIndex: 2, PlacedCount: 2}
			if err := store.Save(ctx, cp); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			got, err := store.Load(ctx, "run")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if got.NextActionIndex != 2 {
				t.Errorf("Expected next index 2, got %d", got.NextActionIndex)
			}
			if err := store.Complete(ctx, "run"); err != nil {
				t.Fatal(err)
			}
			if _, err := store.Load(ctx, "run"); !errors.Is(err, checkpoint.ErrNotFound) {
				t.Errorf("Expected ErrNotFound after completion, got %v", err)
			}
		})
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Checkpoint.Driver = "etcd"
	if _, err := openStore(cfg); err == nil {
		t.Error("Expected an error for an unknown driver")
	}
}
