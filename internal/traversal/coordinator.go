package traversal

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/vk/optgridgo/internal/config"
	"github.com/vk/optgridgo/internal/ctxlog"
	"github.com/vk/optgridgo/internal/dag"
	"github.com/vk/optgridgo/internal/experiment"
)

// Executor runs experiment definitions and streams their results back.
// Submit must never block; results may arrive in any order. The engine is
// the production implementation.
type Executor interface {
	Submit(def experiment.Definition)
	Results() <-chan experiment.Result
}

// Options configures a coordinator.
type Options struct {
	Graph    *dag.Graph
	Executor Executor
	Plan     *config.Plan
}

// Coordinator drives the phased traversal for every (operation, scale)
// unit of the plan. Units are independent: each runs its own state machine
// on its own goroutine, and a demultiplexer routes executor results to the
// owning unit. All node-state bookkeeping lives here; workers never touch
// graph state.
type Coordinator struct {
	opts Options
}

// New creates a coordinator. The graph must be validated and the registry
// frozen before Run is called.
func New(opts Options) *Coordinator {
	return &Coordinator{opts: opts}
}

func unitKey(operation, scale string) string {
	return operation + "\x1f" + scale
}

// Run traverses every unit to completion and returns the unit reports in
// plan order (operations outer, scales inner). It returns an error only on
// context cancellation; per-experiment failures are contained to their
// subtree and reported through node statuses.
func (c *Coordinator) Run(ctx context.Context) ([]*UnitReport, error) {
	plan := c.opts.Plan
	logger := ctxlog.FromContext(ctx)

	var runners []*unitRunner
	inboxes := make(map[string]chan experiment.Result)
	for _, op := range plan.Operations {
		for _, scale := range plan.Scales {
			// Each node yields at most one result per unit, so a
			// graph-sized buffer means the demultiplexer never blocks.
			inbox := make(chan experiment.Result, c.opts.Graph.Len())
			inboxes[unitKey(op, scale.Name)] = inbox
			runners = append(runners, newUnitRunner(c.opts, op, scale.Name, inbox))
		}
	}
	logger.Info("Traversal starting.", "units", len(runners), "nodes", c.opts.Graph.Len(), "exhaustive", plan.Exhaustive)

	done := make(chan struct{})
	go c.demux(inboxes, done)

	group, gctx := errgroup.WithContext(ctx)
	for _, runner := range runners {
		group.Go(func() error { return runner.run(gctx) })
	}
	err := group.Wait()
	close(done)
	if err != nil {
		return nil, err
	}

	reports := make([]*UnitReport, len(runners))
	for i, runner := range runners {
		reports[i] = runner.report
	}
	logger.Info("Traversal finished.", "units", len(reports))
	return reports, nil
}

// demux routes executor results to the unit that submitted the definition.
func (c *Coordinator) demux(inboxes map[string]chan experiment.Result, done <-chan struct{}) {
	results := c.opts.Executor.Results()
	for {
		select {
		case res, ok := <-results:
			if !ok {
				return
			}
			if inbox, found := inboxes[unitKey(res.Definition.Operation, res.Definition.Scale)]; found {
				inbox <- res
			}
		case <-done:
			return
		}
	}
}

// Success reports whether a run as a whole succeeded: every unit produced a
// usable, validated baseline. Failed subtrees do not fail the run.
func Success(reports []*UnitReport) bool {
	if len(reports) == 0 {
		return false
	}
	for _, r := range reports {
		if !r.BaselineOK {
			return false
		}
	}
	return true
}

// declarationIndex maps node IDs to their plan declaration position, the
// deterministic tie-break for equal throughputs.
func declarationIndex(g *dag.Graph) map[string]int {
	idx := make(map[string]int, g.Len())
	for i, id := range g.NodeIDs() {
		idx[id] = i
	}
	return idx
}

// bestByThroughput picks the candidate with maximum usable throughput,
// breaking ties by the given ordering index, then by node ID.
func bestByThroughput(candidates []string, results map[string]experiment.Result, index map[string]int) string {
	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		ti, tj := results[sorted[i]].Throughput, results[sorted[j]].Throughput
		if ti != tj {
			return ti > tj
		}
		if index[sorted[i]] != index[sorted[j]] {
			return index[sorted[i]] < index[sorted[j]]
		}
		return sorted[i] < sorted[j]
	})
	if len(sorted) == 0 {
		return ""
	}
	return sorted[0]
}
