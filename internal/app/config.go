package app

import "errors"

// Config holds everything an App instance needs to run one exploration.
type Config struct {
	PlanPath string

	LogFormat string
	LogLevel  string

	// Workers overrides the plan's worker-pool width when positive.
	Workers int

	// Resume loads the checkpoint and replays completed experiments.
	Resume bool

	// DiscardCheckpoint deletes any existing checkpoint before the run.
	DiscardCheckpoint bool

	// Exhaustive disables all pruning regardless of the plan setting.
	Exhaustive bool

	// ReportPath overrides the plan's report output location.
	ReportPath string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.PlanPath == "" {
		return nil, errors.New("PlanPath is a required configuration field and cannot be empty")
	}
	if cfg.Resume && cfg.DiscardCheckpoint {
		return nil, errors.New("resume and discard-checkpoint are mutually exclusive")
	}
	return &cfg, nil
}
