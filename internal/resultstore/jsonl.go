package resultstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/multierr"

	"github.com/vk/optgridgo/internal/experiment"
)

// record is the line format written to the results file: the result plus
// the run that produced it, so lines from resumed runs remain attributable.
type record struct {
	RunID string `json:"run_id"`
	experiment.Result
}

// JSONL appends results to a newline-delimited JSON file, one object per
// line. Writes are buffered; Flush pushes the buffer to the OS and Close
// flushes and releases the file.
type JSONL struct {
	runID string

	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
}

// NewJSONL opens (or creates) the results file in append mode. Appending
// rather than truncating preserves the lines of an interrupted run the new
// run resumes from.
func NewJSONL(path, runID string) (*JSONL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening results file: %w", err)
	}
	return &JSONL{
		runID: runID,
		file:  file,
		buf:   bufio.NewWriter(file),
	}, nil
}

// Append writes one result line.
func (s *JSONL) Append(res experiment.Result) error {
	encoded, err := json.Marshal(record{RunID: s.runID, Result: res})
	if err != nil {
		return fmt.Errorf("encoding result %s: %w", res.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.buf.Write(encoded); err != nil {
		return fmt.Errorf("writing result %s: %w", res.ID, err)
	}
	if err := s.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("writing result %s: %w", res.ID, err)
	}
	return nil
}

// Flush pushes buffered lines to the OS.
func (s *JSONL) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.buf.Flush(); err != nil {
		return fmt.Errorf("flushing results file: %w", err)
	}
	return nil
}

// Close flushes and closes the file. Both errors are reported if both occur.
func (s *JSONL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return multierr.Combine(s.buf.Flush(), s.file.Close())
}
