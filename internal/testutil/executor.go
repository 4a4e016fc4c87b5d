package testutil

import (
	"sync"
	"time"

	"github.com/vk/optgridgo/internal/experiment"
)

// ScriptedExecutor satisfies the traversal coordinator's executor contract
// with synchronous, scripted results: Submit immediately resolves the
// definition through the script and buffers the result. Tests control
// throughput figures exactly, so pruning decisions become deterministic
// assertions instead of wall-clock measurements.
type ScriptedExecutor struct {
	Script func(def experiment.Definition) experiment.Result

	mu        sync.Mutex
	submitted []experiment.Definition
	results   chan experiment.Result
}

// NewScriptedExecutor creates an executor whose Submit resolves through
// script.
func NewScriptedExecutor(script func(def experiment.Definition) experiment.Result) *ScriptedExecutor {
	return &ScriptedExecutor{
		Script:  script,
		results: make(chan experiment.Result, 1024),
	}
}

func (e *ScriptedExecutor) Submit(def experiment.Definition) {
	e.mu.Lock()
	e.submitted = append(e.submitted, def)
	e.mu.Unlock()
	e.results <- e.Script(def)
}

func (e *ScriptedExecutor) Results() <-chan experiment.Result {
	return e.results
}

// Submitted returns every definition submitted so far, in order.
func (e *ScriptedExecutor) Submitted() []experiment.Definition {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]experiment.Definition, len(e.submitted))
	copy(out, e.submitted)
	return out
}

// CompletedResult builds a passing, completed result with the given
// throughput for scripting convenience.
func CompletedResult(def experiment.Definition, throughput float64) experiment.Result {
	median := 0.0
	if throughput > 0 {
		median = 1000 / throughput
	}
	return experiment.Result{
		ID:            def.ID(),
		Definition:    def,
		Outcome:       experiment.OutcomeCompleted,
		Validation:    experiment.ValidationPass,
		MedianSeconds: median,
		MeanSeconds:   median,
		Throughput:    throughput,
		Attempts:      1,
		Timestamp:     time.Now().UTC(),
	}
}

// ErroredResult builds a result whose execution failed after the given
// number of attempts.
func ErroredResult(def experiment.Definition, attempts int, detail string) experiment.Result {
	return experiment.Result{
		ID:         def.ID(),
		Definition: def,
		Outcome:    experiment.OutcomeErrored,
		Attempts:   attempts,
		Error:      detail,
		Timestamp:  time.Now().UTC(),
	}
}

// FailedValidationResult builds a completed result whose output diverged
// from the reference.
func FailedValidationResult(def experiment.Definition, throughput float64) experiment.Result {
	res := CompletedResult(def, throughput)
	res.Validation = experiment.ValidationFail
	res.ValidationDetail = "count[0] mismatch"
	return res
}
