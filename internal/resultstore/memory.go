package resultstore

import (
	"sync"

	"github.com/vk/optgridgo/internal/experiment"
)

// Memory keeps results in memory, preserving append order. Used by tests
// and by the report builder when re-reading the file would be wasteful.
type Memory struct {
	mu      sync.Mutex
	results []experiment.Result
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Append stores the result.
func (s *Memory) Append(res experiment.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, res)
	return nil
}

// Flush is a no-op.
func (s *Memory) Flush() error { return nil }

// Close is a no-op.
func (s *Memory) Close() error { return nil }

// Results returns a copy of the stored results in append order.
func (s *Memory) Results() []experiment.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]experiment.Result, len(s.results))
	copy(out, s.results)
	return out
}

// ByID returns the latest appended result for an experiment ID.
func (s *Memory) ByID(id string) (experiment.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.results) - 1; i >= 0; i-- {
		if s.results[i].ID == id {
			return s.results[i], true
		}
	}
	return experiment.Result{}, false
}
