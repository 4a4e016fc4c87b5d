package hcl

// HCL-facing schema structs. These mirror the plan file syntax exactly and
// are translated into the format-agnostic config model in translate.go.

// thresholdsBlock holds the run-level pruning thresholds.
type thresholdsBlock struct {
	Alternative float64 `hcl:"alternative,optional"`
	Composition float64 `hcl:"composition,optional"`
}

// overrideBlock is a per-operation thresholds override.
type overrideBlock struct {
	Operation   string  `hcl:"operation,label"`
	Alternative float64 `hcl:"alternative,optional"`
	Composition float64 `hcl:"composition,optional"`
}

// executionBlock holds engine and retry settings.
type executionBlock struct {
	Workers            int `hcl:"workers,optional"`
	CheckpointInterval int `hcl:"checkpoint_interval,optional"`
	TimeoutSeconds     int `hcl:"timeout_seconds,optional"`
	WarmupRuns         int `hcl:"warmup_runs,optional"`
	MeasuredRuns       int `hcl:"measured_runs,optional"`
	RetryLimit         int `hcl:"retry_limit,optional"`
}

// outputBlock names the run's output files.
type outputBlock struct {
	ResultsDir     string `hcl:"results_dir,optional"`
	ResultsFile    string `hcl:"results_file,optional"`
	CheckpointFile string `hcl:"checkpoint_file,optional"`
	ReportFile     string `hcl:"report_file,optional"`
}

// planBlock is the single top-level `plan` block of a run.
type planBlock struct {
	Name       string   `hcl:"name,label"`
	Seed       uint64   `hcl:"seed,optional"`
	Operations []string `hcl:"operations"`
	Exhaustive bool     `hcl:"exhaustive,optional"`

	Thresholds *thresholdsBlock `hcl:"thresholds,block"`
	Overrides  []*overrideBlock `hcl:"thresholds_for,block"`
	Execution  *executionBlock  `hcl:"execution,block"`
	Output     *outputBlock     `hcl:"output,block"`
}

// scaleBlock is a named input-size tier.
type scaleBlock struct {
	Name       string `hcl:"name,label"`
	Sequences  int    `hcl:"sequences"`
	ReadLength int    `hcl:"read_length"`
}

// nodeBlock declares one configuration node of the optimization DAG.
// Declaration order across files is preserved: it fixes traversal order
// among siblings.
type nodeBlock struct {
	ID       string `hcl:"id,label"`
	Kind     string `hcl:"kind"`
	Parent   string `hcl:"parent,optional"`
	Threads  int    `hcl:"threads,optional"`
	SIMD     bool   `hcl:"simd,optional"`
	GPU      bool   `hcl:"gpu,optional"`
	Affinity string `hcl:"affinity,optional"`
	Encoding string `hcl:"encoding,optional"`
}

// fileSchema is the top-level structure of a single plan file.
type fileSchema struct {
	Plan   *planBlock    `hcl:"plan,block"`
	Scales []*scaleBlock `hcl:"scale,block"`
	Nodes  []*nodeBlock  `hcl:"node,block"`
}
