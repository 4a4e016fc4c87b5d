package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vk/optgridgo/internal/ctxlog"
	"github.com/vk/optgridgo/internal/experiment"
)

// stateVersion guards against loading checkpoints written by an
// incompatible release.
const stateVersion = 1

// State is the on-disk checkpoint: every completed experiment result keyed
// by experiment ID, plus enough metadata to refuse a stale or foreign file.
type State struct {
	Version     int                          `json:"version"`
	Fingerprint string                       `json:"plan_fingerprint"`
	RunID       string                       `json:"run_id"`
	Completed   map[string]experiment.Result `json:"completed"`
	LastFlush   time.Time                    `json:"last_flush"`
}

// CorruptionError marks a checkpoint file that exists but cannot be trusted.
// The caller decides whether to abort or discard and start fresh.
type CorruptionError struct {
	Path   string
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("checkpoint %s is unusable: %s", e.Path, e.Reason)
}

// MismatchError marks a structurally valid checkpoint written for a
// different plan shape.
type MismatchError struct {
	Path string
	Want string
	Got  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("checkpoint %s belongs to a different plan (fingerprint %s, want %s)", e.Path, e.Got, e.Want)
}

// Load reads and verifies a checkpoint file. A missing file is not an
// error; it returns a nil state, meaning a fresh run.
func Load(ctx context.Context, path, fingerprint string) (*State, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, &CorruptionError{Path: path, Reason: err.Error()}
	}
	if state.Version != stateVersion {
		return nil, &CorruptionError{Path: path, Reason: fmt.Sprintf("unsupported version %d", state.Version)}
	}
	if state.Fingerprint != fingerprint {
		return nil, &MismatchError{Path: path, Want: fingerprint, Got: state.Fingerprint}
	}
	if state.Completed == nil {
		state.Completed = make(map[string]experiment.Result)
	}

	ctxlog.FromContext(ctx).Info("Checkpoint loaded.", "path", path, "completed", len(state.Completed), "last_flush", state.LastFlush)
	return &state, nil
}

// save writes the state atomically: encode to a temp file in the target
// directory, fsync, then rename over the destination. A crash mid-write
// leaves either the previous checkpoint or the new one, never a torn file.
func save(path string, state *State) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating checkpoint temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publishing checkpoint: %w", err)
	}
	return nil
}

// Discard removes the checkpoint file if present.
func Discard(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("discarding checkpoint: %w", err)
	}
	return nil
}
