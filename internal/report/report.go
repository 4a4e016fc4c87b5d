package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vk/optgridgo/internal/config"
	"github.com/vk/optgridgo/internal/dag"
	"github.com/vk/optgridgo/internal/traversal"
)

// NodeReport is one node's terminal line in the decision report.
type NodeReport struct {
	NodeID        string               `json:"node_id"`
	Kind          config.NodeKind      `json:"kind"`
	Status        traversal.NodeStatus `json:"status"`
	Reason        string               `json:"reason,omitempty"`
	Throughput    float64              `json:"throughput_seqs_per_sec,omitempty"`
	MedianSeconds float64              `json:"median_seconds,omitempty"`
	Attempts      int                  `json:"attempts,omitempty"`
}

// Optimal describes the winning configuration of one unit.
type Optimal struct {
	NodeID            string          `json:"node_id"`
	Hardware          config.Hardware `json:"hardware"`
	AncestorChain     []string        `json:"ancestor_chain"`
	Throughput        float64         `json:"throughput_seqs_per_sec"`
	CumulativeSpeedup float64         `json:"cumulative_speedup"`
}

// UnitSection is the report of one (operation, scale) unit.
type UnitSection struct {
	Operation  string                    `json:"operation"`
	Scale      string                    `json:"scale"`
	BaselineOK bool                      `json:"baseline_ok"`
	Nodes      []NodeReport              `json:"nodes"`
	Decisions  []traversal.PruneDecision `json:"prune_decisions"`
	Optimal    *Optimal                  `json:"optimal,omitempty"`
}

// Report is the exported decision report for a whole run.
type Report struct {
	Plan        string        `json:"plan"`
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Exhaustive  bool          `json:"exhaustive"`
	Success     bool          `json:"success"`
	Units       []UnitSection `json:"units"`
}

// Build assembles the decision report from the traversal's unit reports.
// Node order follows plan declaration order.
func Build(graph *dag.Graph, plan *config.Plan, runID string, units []*traversal.UnitReport) *Report {
	out := &Report{
		Plan:        plan.Name,
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Exhaustive:  plan.Exhaustive,
		Success:     traversal.Success(units),
	}

	for _, unit := range units {
		section := UnitSection{
			Operation:  unit.Operation,
			Scale:      unit.Scale,
			BaselineOK: unit.BaselineOK,
			Decisions:  unit.Decisions,
		}
		for _, id := range graph.NodeIDs() {
			line := NodeReport{
				NodeID: id,
				Kind:   graph.Node(id).Kind,
				Status: unit.Statuses[id],
				Reason: unit.Reasons[id],
			}
			if res, ok := unit.Result(id); ok {
				line.Throughput = res.Throughput
				line.MedianSeconds = res.MedianSeconds
				line.Attempts = res.Attempts
			}
			section.Nodes = append(section.Nodes, line)
		}
		if unit.Optimal != "" {
			res, _ := unit.Result(unit.Optimal)
			section.Optimal = &Optimal{
				NodeID:            unit.Optimal,
				Hardware:          graph.Node(unit.Optimal).Hardware,
				AncestorChain:     graph.AncestorChain(unit.Optimal),
				Throughput:        res.Throughput,
				CumulativeSpeedup: unit.Speedup,
			}
		}
		out.Units = append(out.Units, section)
	}
	return out
}

// WriteJSON exports the report to a file, creating parent directories as
// needed.
func (r *Report) WriteJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	encoded, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
