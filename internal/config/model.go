package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/multierr"
)

// NodeKind classifies a configuration node's role in the optimization DAG.
type NodeKind string

const (
	KindBaseline    NodeKind = "baseline"
	KindAlternative NodeKind = "alternative"
	KindComposition NodeKind = "composition"
	KindRefinement  NodeKind = "refinement"
)

// Affinity selects the core-affinity class a configuration requests.
type Affinity string

const (
	AffinityDefault          Affinity = "default"
	AffinityPerformanceCores Affinity = "p_cores"
	AffinityEfficiencyCores  Affinity = "e_cores"
)

// Encoding selects the data encoding handed to the operation implementation.
type Encoding string

const (
	EncodingASCII  Encoding = "ascii"
	EncodingTwoBit Encoding = "twobit"
)

// Hardware holds the hardware parameters of a single configuration node.
type Hardware struct {
	Threads  int      `json:"threads"`
	SIMD     bool     `json:"simd"`
	GPU      bool     `json:"gpu"`
	Affinity Affinity `json:"affinity"`
	Encoding Encoding `json:"encoding"`
}

// NodeSpec is the declarative description of one configuration node, as it
// appears in the plan file. Node order in the plan is meaningful: children
// of the same parent are traversed in declaration order.
type NodeSpec struct {
	ID     string
	Kind   NodeKind
	Parent string
	Hardware
}

// Scale is a named input-size tier used to probe scale-dependent behavior.
type Scale struct {
	Name       string
	Sequences  int
	ReadLength int
}

// Thresholds carries the two pruning thresholds. The values observed in the
// originating study (1.5 for alternatives, 1.3 for compositions) are only
// defaults; plans override them at run level, and per-operation overrides
// take precedence over the run-level values.
type Thresholds struct {
	Alternative float64
	Composition float64
}

// Execution holds the engine and retry settings for a run.
type Execution struct {
	Workers            int
	CheckpointInterval int
	Timeout            time.Duration
	WarmupRuns         int
	MeasuredRuns       int
	RetryLimit         int
}

// Output names the files a run produces under ResultsDir.
type Output struct {
	ResultsDir     string
	ResultsFile    string
	CheckpointFile string
	ReportFile     string
}

// Plan is the format-agnostic model of one exploration run. Loaders (HCL
// today) translate their syntax into this struct; everything downstream of
// the loader consumes only the model.
type Plan struct {
	Name       string
	Seed       uint64
	Operations []string
	Scales     []Scale
	Nodes      []NodeSpec
	Thresholds Thresholds

	// Overrides maps operation name to operation-specific thresholds.
	Overrides map[string]Thresholds

	Execution Execution
	Output    Output

	// Exhaustive disables all pruning: every node is executed regardless of
	// its parent's outcome. Used for audits of the pruning heuristic.
	Exhaustive bool
}

// DefaultWorkers is the worker-pool width used when the plan does not set
// one: physical cores minus one, leaving a core for the coordinator.
func DefaultWorkers() int {
	if n := runtime.NumCPU() - 1; n > 1 {
		return n
	}
	return 1
}

// ApplyDefaults fills unset plan fields with the documented defaults.
func (p *Plan) ApplyDefaults() {
	if p.Thresholds.Alternative == 0 {
		p.Thresholds.Alternative = 1.5
	}
	if p.Thresholds.Composition == 0 {
		p.Thresholds.Composition = 1.3
	}
	if p.Execution.Workers == 0 {
		p.Execution.Workers = DefaultWorkers()
	}
	if p.Execution.CheckpointInterval == 0 {
		p.Execution.CheckpointInterval = 100
	}
	if p.Execution.Timeout == 0 {
		p.Execution.Timeout = 300 * time.Second
	}
	if p.Execution.WarmupRuns == 0 {
		p.Execution.WarmupRuns = 3
	}
	if p.Execution.MeasuredRuns == 0 {
		p.Execution.MeasuredRuns = 10
	}
	if p.Execution.RetryLimit == 0 {
		p.Execution.RetryLimit = 2
	}
	if p.Output.ResultsDir == "" {
		p.Output.ResultsDir = "results"
	}
	if p.Output.ResultsFile == "" {
		p.Output.ResultsFile = "results.jsonl"
	}
	if p.Output.CheckpointFile == "" {
		p.Output.CheckpointFile = "checkpoint.json"
	}
	if p.Output.ReportFile == "" {
		p.Output.ReportFile = "report.json"
	}
	for i := range p.Nodes {
		n := &p.Nodes[i]
		if n.Threads == 0 {
			n.Threads = 1
		}
		if n.Affinity == "" {
			n.Affinity = AffinityDefault
		}
		if n.Encoding == "" {
			n.Encoding = EncodingASCII
		}
	}
}

// ThresholdsFor returns the effective thresholds for an operation,
// preferring a per-operation override when one exists. An override may set
// only one of the two values; the other falls back to the run level rather
// than to zero, which would disable pruning for that phase.
func (p *Plan) ThresholdsFor(operation string) Thresholds {
	t, ok := p.Overrides[operation]
	if !ok {
		return p.Thresholds
	}
	if t.Alternative == 0 {
		t.Alternative = p.Thresholds.Alternative
	}
	if t.Composition == 0 {
		t.Composition = p.Thresholds.Composition
	}
	return t
}

// Fingerprint returns a stable digest of everything that shapes a run's
// result set: the node graph, scales, operations, seed, and thresholds.
// A checkpoint written under one fingerprint must not be resumed under
// another. Execution and output settings are excluded so that changing the
// worker count or a file path does not invalidate a checkpoint.
func (p *Plan) Fingerprint() string {
	shape := struct {
		Name       string
		Seed       uint64
		Operations []string
		Scales     []Scale
		Nodes      []NodeSpec
		Thresholds Thresholds
		Overrides  map[string]Thresholds
		Exhaustive bool
	}{p.Name, p.Seed, p.Operations, p.Scales, p.Nodes, p.Thresholds, p.Overrides, p.Exhaustive}

	encoded, err := json.Marshal(shape)
	if err != nil {
		// Plan holds only plain values; this cannot fail in practice.
		panic(fmt.Sprintf("encoding plan fingerprint: %v", err))
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:16])
}

// Validate checks the plan for structural problems that would make a run
// meaningless. All problems are reported at once.
func (p *Plan) Validate() error {
	var err error
	if len(p.Operations) == 0 {
		err = multierr.Append(err, fmt.Errorf("plan declares no operations"))
	}
	if len(p.Scales) == 0 {
		err = multierr.Append(err, fmt.Errorf("plan declares no scales"))
	}
	if len(p.Nodes) == 0 {
		err = multierr.Append(err, fmt.Errorf("plan declares no configuration nodes"))
	}
	seen := make(map[string]bool, len(p.Scales))
	for _, s := range p.Scales {
		if seen[s.Name] {
			err = multierr.Append(err, fmt.Errorf("duplicate scale %q", s.Name))
		}
		seen[s.Name] = true
		if s.Sequences <= 0 {
			err = multierr.Append(err, fmt.Errorf("scale %q: sequences must be positive", s.Name))
		}
		if s.ReadLength <= 0 {
			err = multierr.Append(err, fmt.Errorf("scale %q: read length must be positive", s.Name))
		}
	}
	for _, n := range p.Nodes {
		switch n.Kind {
		case KindBaseline, KindAlternative, KindComposition, KindRefinement:
		default:
			err = multierr.Append(err, fmt.Errorf("node %q: unknown kind %q", n.ID, n.Kind))
		}
		if n.Threads < 1 {
			err = multierr.Append(err, fmt.Errorf("node %q: threads must be at least 1", n.ID))
		}
	}
	if p.Thresholds.Alternative <= 0 || p.Thresholds.Composition <= 0 {
		err = multierr.Append(err, fmt.Errorf("thresholds must be positive"))
	}
	for op, t := range p.Overrides {
		if t.Alternative < 0 || t.Composition < 0 {
			err = multierr.Append(err, fmt.Errorf("thresholds_for %q: thresholds must not be negative", op))
		}
	}
	return err
}
