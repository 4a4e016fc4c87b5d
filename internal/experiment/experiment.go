// Package experiment defines the identity and result types shared by the
// execution engine, the traversal coordinator, the checkpoint store, and the
// result store. It is a leaf package with no project dependencies.
package experiment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Definition identifies a single experiment: one operation executed under one
// configuration node at one data scale. The full set of definitions for a run
// is not known upfront; the coordinator derives them incrementally as pruning
// decisions resolve.
type Definition struct {
	Operation string `json:"operation"`
	NodeID    string `json:"node_id"`
	Scale     string `json:"scale"`
}

// ID returns the deterministic identifier for this definition. Re-deriving a
// definition from the same triple always yields the same ID, which is what
// makes checkpoint resume and result overwrite-on-retry possible.
func (d Definition) ID() string {
	sum := sha256.Sum256([]byte(d.Operation + "\x1f" + d.NodeID + "\x1f" + d.Scale))
	return hex.EncodeToString(sum[:8])
}

func (d Definition) String() string {
	return fmt.Sprintf("%s/%s@%s", d.Operation, d.NodeID, d.Scale)
}

// Outcome describes how an experiment run terminated.
type Outcome string

const (
	// OutcomeCompleted means the experiment ran to completion and produced a
	// measurement. It says nothing about output correctness; see Validation.
	OutcomeCompleted Outcome = "completed"

	// OutcomeErrored means the operation implementation returned an error.
	OutcomeErrored Outcome = "errored"

	// OutcomeTimedOut means the per-experiment wall-clock budget expired.
	OutcomeTimedOut Outcome = "timed_out"
)

// ValidationStatus is the correctness gate attached to a measurement.
type ValidationStatus string

const (
	ValidationPass    ValidationStatus = "pass"
	ValidationFail    ValidationStatus = "fail"
	ValidationSkipped ValidationStatus = "skipped"
)

// Result is the single product a worker hands back for a definition.
// Exactly one result exists per non-pruned definition; a retry overwrites
// the previous attempt rather than appending.
type Result struct {
	ID         string           `json:"id"`
	Definition Definition       `json:"definition"`
	Outcome    Outcome          `json:"outcome"`
	Validation ValidationStatus `json:"validation"`

	// MedianSeconds is the median of the measured iterations and the basis
	// for every throughput and speedup figure.
	MedianSeconds  float64 `json:"median_seconds"`
	MeanSeconds    float64 `json:"mean_seconds"`
	Throughput     float64 `json:"throughput_seqs_per_sec"`
	ThroughputMBps float64 `json:"throughput_mbps"`

	Attempts         int       `json:"attempts"`
	Error            string    `json:"error,omitempty"`
	ValidationDetail string    `json:"validation_detail,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Usable reports whether this result may participate in a speedup
// computation. A measurement whose output failed validation must never
// survive a threshold comparison, so only completed, passing results count.
func (r Result) Usable() bool {
	return r.Outcome == OutcomeCompleted && r.Validation == ValidationPass
}
