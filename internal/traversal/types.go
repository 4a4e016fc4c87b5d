package traversal

import (
	"github.com/vk/optgridgo/internal/experiment"
)

// Phase names the traversal phase a unit is in. Phases advance strictly in
// order; full parallelism applies within a phase, never across phases.
type Phase string

const (
	PhaseNotStarted            Phase = "not_started"
	PhaseBaselineEvaluated     Phase = "baseline_evaluated"
	PhaseAlternativesEvaluated Phase = "alternatives_evaluated"
	PhaseCompositionsEvaluated Phase = "compositions_evaluated"
	PhaseRefinementsEvaluated  Phase = "refinements_evaluated"
	PhaseDone                  Phase = "done"
)

// NodeStatus is a node's terminal state within one (operation, scale) unit.
type NodeStatus string

const (
	// StatusPending means the node has not reached a terminal state yet.
	StatusPending NodeStatus = "pending"

	// StatusPassed means the node completed, validated, and survived every
	// threshold comparison that applied to it.
	StatusPassed NodeStatus = "passed"

	// StatusPruned means a threshold comparison cut the node or one of its
	// ancestors.
	StatusPruned NodeStatus = "pruned"

	// StatusFailed means execution errored, timed out after retries, or the
	// output failed validation.
	StatusFailed NodeStatus = "failed"

	// StatusSkipped means the node was never scheduled because an ancestor
	// failed.
	StatusSkipped NodeStatus = "skipped"
)

// Prune and failure reasons recorded per node.
const (
	ReasonBelowThreshold     = "alternative_below_threshold"
	ReasonDiminishingReturns = "diminishing_returns"
	ReasonAncestorPruned     = "ancestor_pruned"
	ReasonAncestorFailed     = "ancestor_failed"
	ReasonExecutionError     = "execution_error"
	ReasonTimeout            = "timeout"
	ReasonValidationFailure  = "validation_failure"
	ReasonBaselineUnusable   = "baseline_unusable"
)

// PruneDecision records one pruning cut. The decision log is append-only
// and fully determined by the plan plus the observed throughputs.
type PruneDecision struct {
	NodeID    string  `json:"node_id"`
	Operation string  `json:"operation"`
	Scale     string  `json:"scale"`
	Phase     Phase   `json:"phase"`
	Threshold float64 `json:"threshold"`
	Observed  float64 `json:"observed"`
	Reason    string  `json:"reason"`
}

// UnitReport is the terminal state of one (operation, scale) unit: every
// node's status and reason, the pruning log, the selected optimal node and
// its cumulative speedup over the baseline.
type UnitReport struct {
	Operation string
	Scale     string
	Phase     Phase

	Statuses  map[string]NodeStatus
	Reasons   map[string]string
	Decisions []PruneDecision
	Results   map[string]experiment.Result

	// BaselineOK reports whether the baseline produced a usable, validated
	// measurement. Without it the unit has no reference point and every
	// other node is skipped.
	BaselineOK bool

	// Optimal is the selected configuration node ID, empty when BaselineOK
	// is false.
	Optimal string

	// Speedup is Optimal's throughput over the baseline's.
	Speedup float64
}

// Result returns the experiment result recorded for a node, if any.
func (r *UnitReport) Result(nodeID string) (experiment.Result, bool) {
	res, ok := r.Results[nodeID]
	return res, ok
}
