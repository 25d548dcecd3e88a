package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileStore keeps each checkpoint in <dir>/<run id>.yaml.
type FileStore struct {
	dir     string
	archive bool
}

// NewFileStore creates the directory if needed. With archive set, completed
// checkpoints are renamed to <run id>.done.yaml instead of being deleted.
func NewFileStore(dir string, archive bool) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &FileStore{dir: dir, archive: archive}, nil
}

// Path returns the file a run's checkpoint lives in.
func (s *FileStore) Path(runID string) string {
	return filepath.Join(s.dir, runID+".yaml")
}

func (s *FileStore) archivePath(runID string) string {
	return filepath.Join(s.dir, runID+".done.yaml")
}

// Load reads the checkpoint for runID.
func (s *FileStore) Load(_ context.Context, runID string) (*Checkpoint, error) {
	data, err := os.ReadFile(s.Path(runID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &CorruptError{RunID: runID, Reason: "unreadable", Err: err}
	}

	var cp Checkpoint
	if err := yaml.Unmarshal(data, &cp); err != nil {
		return nil, &CorruptError{RunID: runID, Reason: "undecodable", Err: err}
	}
	if cp.RunID != runID {
		return nil, &CorruptError{RunID: runID, Reason: fmt.Sprintf("file holds run %q", cp.RunID)}
	}
	return &cp, nil
}

// Save writes the checkpoint to a temp file, syncs it and renames it into place.
func (s *FileStore) Save(_ context.Context, cp *Checkpoint) error {
	data, err := yaml.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, cp.RunID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(cp.RunID)); err != nil {
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}
	return nil
}

// Complete deletes or archives the checkpoint. A missing checkpoint is not an error.
func (s *FileStore) Complete(_ context.Context, runID string) error {
	var err error
	if s.archive {
		err = os.Rename(s.Path(runID), s.archivePath(runID))
	} else {
		err = os.Remove(s.Path(runID))
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to finish checkpoint: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
