package checkpoint

import (
	"context"
	"sync"
	"time"

	"github.com/vk/optgridgo/internal/ctxlog"
	"github.com/vk/optgridgo/internal/experiment"
)

// Manager accumulates completed results and flushes them to disk every
// interval completions, plus once more at shutdown. Safe for concurrent use.
type Manager struct {
	path     string
	interval int

	mu         sync.Mutex
	state      State
	sinceFlush int
}

// NewManager creates a manager for the given file. When resume is non-nil
// its completed set seeds the in-memory state, so experiments finished in a
// previous run are visible through Completed immediately.
func NewManager(path, fingerprint, runID string, interval int, resume *State) *Manager {
	m := &Manager{
		path:     path,
		interval: interval,
		state: State{
			Version:     stateVersion,
			Fingerprint: fingerprint,
			RunID:       runID,
			Completed:   make(map[string]experiment.Result),
		},
	}
	if resume != nil {
		for id, res := range resume.Completed {
			m.state.Completed[id] = res
		}
	}
	return m
}

// Completed returns the stored result for an experiment ID, if any.
func (m *Manager) Completed(id string) (experiment.Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.state.Completed[id]
	return res, ok
}

// Len returns the number of stored results.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.Completed)
}

// Record stores a result, overwriting any earlier attempt for the same ID,
// and flushes when the completion count since the last flush reaches the
// interval. The flush happens inline on the recording goroutine; at the
// default interval of 100 that cost is negligible next to a measurement.
func (m *Manager) Record(ctx context.Context, res experiment.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Completed[res.ID] = res
	m.sinceFlush++
	if m.sinceFlush < m.interval {
		return nil
	}
	return m.flushLocked(ctx)
}

// Flush writes the current state to disk unconditionally.
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushLocked(ctx)
}

func (m *Manager) flushLocked(ctx context.Context) error {
	m.state.LastFlush = time.Now().UTC()
	if err := save(m.path, &m.state); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Checkpoint flushed.", "path", m.path, "completed", len(m.state.Completed))
	m.sinceFlush = 0
	return nil
}
