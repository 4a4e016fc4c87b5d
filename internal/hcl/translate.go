package hcl

import (
	"time"

	"github.com/vk/optgridgo/internal/config"
)

// translate converts the merged HCL schema into the agnostic plan model.
// Missing blocks translate to zero values; config.ApplyDefaults fills them.
func translate(s *fileSchema) *config.Plan {
	p := &config.Plan{
		Name:       s.Plan.Name,
		Seed:       s.Plan.Seed,
		Operations: s.Plan.Operations,
		Exhaustive: s.Plan.Exhaustive,
	}

	if t := s.Plan.Thresholds; t != nil {
		p.Thresholds = config.Thresholds{
			Alternative: t.Alternative,
			Composition: t.Composition,
		}
	}
	if len(s.Plan.Overrides) > 0 {
		p.Overrides = make(map[string]config.Thresholds, len(s.Plan.Overrides))
		for _, o := range s.Plan.Overrides {
			p.Overrides[o.Operation] = config.Thresholds{
				Alternative: o.Alternative,
				Composition: o.Composition,
			}
		}
	}
	if e := s.Plan.Execution; e != nil {
		p.Execution = config.Execution{
			Workers:            e.Workers,
			CheckpointInterval: e.CheckpointInterval,
			Timeout:            time.Duration(e.TimeoutSeconds) * time.Second,
			WarmupRuns:         e.WarmupRuns,
			MeasuredRuns:       e.MeasuredRuns,
			RetryLimit:         e.RetryLimit,
		}
	}
	if o := s.Plan.Output; o != nil {
		p.Output = config.Output{
			ResultsDir:     o.ResultsDir,
			ResultsFile:    o.ResultsFile,
			CheckpointFile: o.CheckpointFile,
			ReportFile:     o.ReportFile,
		}
	}

	for _, sc := range s.Scales {
		p.Scales = append(p.Scales, config.Scale{
			Name:       sc.Name,
			Sequences:  sc.Sequences,
			ReadLength: sc.ReadLength,
		})
	}
	for _, n := range s.Nodes {
		p.Nodes = append(p.Nodes, config.NodeSpec{
			ID:     n.ID,
			Kind:   config.NodeKind(n.Kind),
			Parent: n.Parent,
			Hardware: config.Hardware{
				Threads:  n.Threads,
				SIMD:     n.SIMD,
				GPU:      n.GPU,
				Affinity: config.Affinity(n.Affinity),
				Encoding: config.Encoding(n.Encoding),
			},
		})
	}
	return p
}
