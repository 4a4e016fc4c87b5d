package traversal

import (
	"context"

	"github.com/vk/optgridgo/internal/config"
	"github.com/vk/optgridgo/internal/ctxlog"
	"github.com/vk/optgridgo/internal/dag"
	"github.com/vk/optgridgo/internal/experiment"
)

// unitRunner drives the state machine for one (operation, scale) unit. It
// owns all node state for the unit; workers only ever see definitions and
// produce results.
type unitRunner struct {
	opts       Options
	operation  string
	scale      string
	thresholds config.Thresholds
	exhaustive bool

	inbox  <-chan experiment.Result
	report *UnitReport
}

func newUnitRunner(opts Options, operation, scale string, inbox <-chan experiment.Result) *unitRunner {
	report := &UnitReport{
		Operation: operation,
		Scale:     scale,
		Phase:     PhaseNotStarted,
		Statuses:  make(map[string]NodeStatus, opts.Graph.Len()),
		Reasons:   make(map[string]string),
		Results:   make(map[string]experiment.Result, opts.Graph.Len()),
	}
	for _, id := range opts.Graph.NodeIDs() {
		report.Statuses[id] = StatusPending
	}
	return &unitRunner{
		opts:       opts,
		operation:  operation,
		scale:      scale,
		thresholds: opts.Plan.ThresholdsFor(operation),
		exhaustive: opts.Plan.Exhaustive,
		inbox:      inbox,
		report:     report,
	}
}

func (u *unitRunner) run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("operation", u.operation, "scale", u.scale)
	g := u.opts.Graph
	baseID := g.Baseline()

	// Baseline: executed exactly once, never pruned.
	u.submit(baseID)
	if err := u.await(ctx, 1); err != nil {
		return err
	}
	baseRes := u.report.Results[baseID]
	if !baseRes.Usable() {
		u.fail(baseID, baseRes)
		u.markPendingSubtree(baseID, StatusSkipped, ReasonBaselineUnusable)
		u.report.Phase = PhaseDone
		logger.Warn("Baseline unusable, unit abandoned.", "reason", u.report.Reasons[baseID])
		return nil
	}
	u.pass(baseID)
	u.report.BaselineOK = true
	t0 := baseRes.Throughput
	u.report.Phase = PhaseBaselineEvaluated
	logger.Debug("Baseline evaluated.", "throughput", t0)

	// Alternatives: all direct Alternative children of the baseline are
	// mutually exclusive choices; every one is tried.
	alts := nodeIDs(g.ChildrenOf(baseID, config.KindAlternative))
	u.submit(alts...)
	if err := u.await(ctx, len(alts)); err != nil {
		return err
	}
	var surviving []string
	for _, id := range alts {
		res := u.report.Results[id]
		switch {
		case !res.Usable():
			u.fail(id, res)
			if !u.exhaustive {
				u.markPendingSubtree(id, StatusSkipped, ReasonAncestorFailed)
			}
		case !u.exhaustive && res.Throughput/t0 < u.thresholds.Alternative:
			u.prune(id, PhaseAlternativesEvaluated, u.thresholds.Alternative, res.Throughput/t0, ReasonBelowThreshold)
			u.markPendingSubtree(id, StatusPruned, ReasonAncestorPruned)
		default:
			u.pass(id)
			surviving = append(surviving, id)
		}
	}
	u.report.Phase = PhaseAlternativesEvaluated

	// Compositions: strict parent-before-child chain walk. A child is
	// submitted only once its parent's validated result exists; a child
	// below the incremental threshold ends its chain, and the parent stays
	// the branch's best leaf so far.
	level := surviving
	if u.exhaustive {
		level = alts
	}
	for len(level) > 0 {
		batch := make([]string, 0)
		parentOf := make(map[string]string)
		for _, pid := range level {
			for _, child := range g.ChildrenOf(pid, config.KindComposition) {
				batch = append(batch, child.ID)
				parentOf[child.ID] = pid
			}
		}
		if len(batch) == 0 {
			break
		}
		u.submit(batch...)
		if err := u.await(ctx, len(batch)); err != nil {
			return err
		}

		var next []string
		for _, id := range batch {
			res := u.report.Results[id]
			parentRes := u.report.Results[parentOf[id]]
			switch {
			case !res.Usable():
				u.fail(id, res)
				if u.exhaustive {
					next = append(next, id)
				} else {
					u.markPendingSubtree(id, StatusSkipped, ReasonAncestorFailed)
				}
			case !u.exhaustive && parentRes.Usable() && res.Throughput/parentRes.Throughput < u.thresholds.Composition:
				u.prune(id, PhaseCompositionsEvaluated, u.thresholds.Composition, res.Throughput/parentRes.Throughput, ReasonDiminishingReturns)
				u.markPendingSubtree(id, StatusPruned, ReasonAncestorPruned)
			default:
				u.pass(id)
				next = append(next, id)
			}
		}
		level = next
	}
	u.report.Phase = PhaseCompositionsEvaluated

	// Refinements and final selection.
	var optimal string
	var err error
	if u.exhaustive {
		optimal, err = u.refineExhaustive(ctx, g)
	} else {
		optimal, err = u.refine(ctx, g, surviving, baseID)
	}
	if err != nil {
		return err
	}
	u.report.Phase = PhaseRefinementsEvaluated

	// Anything still pending was never runnable.
	for id, status := range u.report.Statuses {
		if status == StatusPending {
			u.report.Statuses[id] = StatusSkipped
		}
	}

	u.report.Optimal = optimal
	if optimal != "" && t0 > 0 {
		u.report.Speedup = u.report.Results[optimal].Throughput / t0
	}
	u.report.Phase = PhaseDone
	logger.Info("Unit done.", "optimal", optimal, "speedup", u.report.Speedup, "decisions", len(u.report.Decisions))
	return nil
}

// refine runs the refinement phase with pruning enabled: per surviving
// alternative, the branch's best leaf (absolute throughput, ties by lowest
// node ID) gets its Refinement children executed, and the branch winner is
// the best usable refinement or the leaf itself. The unit's optimal node is
// the best branch winner, falling back to the baseline when nothing
// survived.
func (u *unitRunner) refine(ctx context.Context, g *dag.Graph, surviving []string, baseID string) (string, error) {
	declIndex := declarationIndex(g)
	noIndex := map[string]int{}

	winners := []string{baseID}
	for _, altID := range surviving {
		branch := u.passedInSubtree(g, altID)
		leaf := bestByThroughput(branch, u.report.Results, noIndex)
		if leaf == "" {
			continue
		}

		refs := nodeIDs(g.ChildrenOf(leaf, config.KindRefinement))
		u.submit(refs...)
		if err := u.await(ctx, len(refs)); err != nil {
			return "", err
		}

		var usable []string
		for _, id := range refs {
			res := u.report.Results[id]
			if !res.Usable() {
				u.fail(id, res)
				continue
			}
			u.pass(id)
			usable = append(usable, id)
		}

		winner := bestByThroughput(usable, u.report.Results, declIndex)
		if winner == "" {
			winner = leaf
		}
		winners = append(winners, winner)
	}
	return bestByThroughput(winners, u.report.Results, declIndex), nil
}

// refineExhaustive runs every refinement node regardless of parent outcome
// and selects the optimal among all usable nodes.
func (u *unitRunner) refineExhaustive(ctx context.Context, g *dag.Graph) (string, error) {
	var refs []string
	for _, id := range g.NodeIDs() {
		if g.Node(id).Kind == config.KindRefinement {
			refs = append(refs, id)
		}
	}
	u.submit(refs...)
	if err := u.await(ctx, len(refs)); err != nil {
		return "", err
	}
	for _, id := range refs {
		res := u.report.Results[id]
		if res.Usable() {
			u.pass(id)
		} else {
			u.fail(id, res)
		}
	}

	var usable []string
	for id, res := range u.report.Results {
		if res.Usable() {
			usable = append(usable, id)
		}
	}
	return bestByThroughput(usable, u.report.Results, declarationIndex(g)), nil
}

func (u *unitRunner) submit(ids ...string) {
	for _, id := range ids {
		u.opts.Executor.Submit(experiment.Definition{
			Operation: u.operation,
			NodeID:    id,
			Scale:     u.scale,
		})
	}
}

func (u *unitRunner) await(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		select {
		case res := <-u.inbox:
			u.report.Results[res.Definition.NodeID] = res
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (u *unitRunner) pass(id string) {
	u.report.Statuses[id] = StatusPassed
}

func (u *unitRunner) fail(id string, res experiment.Result) {
	u.report.Statuses[id] = StatusFailed
	u.report.Reasons[id] = failureReason(res)
}

func (u *unitRunner) prune(id string, phase Phase, threshold, observed float64, reason string) {
	u.report.Statuses[id] = StatusPruned
	u.report.Reasons[id] = reason
	u.report.Decisions = append(u.report.Decisions, PruneDecision{
		NodeID:    id,
		Operation: u.operation,
		Scale:     u.scale,
		Phase:     phase,
		Threshold: threshold,
		Observed:  observed,
		Reason:    reason,
	})
}

// markPendingSubtree sets every still-pending descendant of root (root
// excluded) to the given terminal status.
func (u *unitRunner) markPendingSubtree(rootID string, status NodeStatus, reason string) {
	for _, child := range u.opts.Graph.Children(rootID) {
		if u.report.Statuses[child.ID] == StatusPending {
			u.report.Statuses[child.ID] = status
			u.report.Reasons[child.ID] = reason
		}
		u.markPendingSubtree(child.ID, status, reason)
	}
}

// passedInSubtree returns the passed nodes among root and its descendants.
func (u *unitRunner) passedInSubtree(g *dag.Graph, rootID string) []string {
	var out []string
	if u.report.Statuses[rootID] == StatusPassed {
		out = append(out, rootID)
	}
	for _, child := range g.Children(rootID) {
		out = append(out, u.passedInSubtree(g, child.ID)...)
	}
	return out
}

func failureReason(res experiment.Result) string {
	switch {
	case res.Outcome == experiment.OutcomeTimedOut:
		return ReasonTimeout
	case res.Outcome == experiment.OutcomeErrored:
		return ReasonExecutionError
	case res.Validation != experiment.ValidationPass:
		return ReasonValidationFailure
	}
	return ReasonExecutionError
}

func nodeIDs(nodes []*dag.ConfigNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
