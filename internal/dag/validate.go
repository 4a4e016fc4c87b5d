package dag

import (
	"fmt"
	"strings"

	"github.com/vk/optgridgo/internal/config"
)

// MalformedDagError reports every structural problem found in one pass,
// carrying the offending node IDs.
type MalformedDagError struct {
	NodeIDs []string
	Reasons []string
}

func (e *MalformedDagError) Error() string {
	return fmt.Sprintf("malformed optimization DAG:\n- %s", strings.Join(e.Reasons, "\n- "))
}

// Validate walks the graph once and checks the structural invariants:
// exactly one Baseline, every parent reference resolves, every node is
// reachable from Baseline, and no parent chain forms a cycle.
func (g *Graph) Validate() error {
	var bad MalformedDagError

	var baselines []string
	for _, id := range g.order {
		node := g.nodes[id]
		switch {
		case node.Kind == config.KindBaseline:
			baselines = append(baselines, id)
			if node.Parent != "" {
				bad.NodeIDs = append(bad.NodeIDs, id)
				bad.Reasons = append(bad.Reasons, fmt.Sprintf("baseline node %q must not declare a parent", id))
			}
		case node.Parent == "":
			bad.NodeIDs = append(bad.NodeIDs, id)
			bad.Reasons = append(bad.Reasons, fmt.Sprintf("non-baseline node %q has no parent", id))
		default:
			if _, ok := g.nodes[node.Parent]; !ok {
				bad.NodeIDs = append(bad.NodeIDs, id)
				bad.Reasons = append(bad.Reasons, fmt.Sprintf("node %q references unknown parent %q", id, node.Parent))
			}
		}
	}

	switch len(baselines) {
	case 0:
		bad.Reasons = append(bad.Reasons, "no baseline node declared")
	case 1:
		g.baseline = baselines[0]
	default:
		bad.NodeIDs = append(bad.NodeIDs, baselines...)
		bad.Reasons = append(bad.Reasons, fmt.Sprintf("more than one baseline node: %s", strings.Join(baselines, ", ")))
	}

	if len(bad.Reasons) > 0 {
		return &bad
	}

	// Standard depth-first coloring over child edges: white (unvisited),
	// grey (on stack), black (done).
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(g.nodes))

	var visit func(id string) *MalformedDagError
	visit = func(id string) *MalformedDagError {
		color[id] = grey
		for _, childID := range g.children[id] {
			switch color[childID] {
			case grey:
				return &MalformedDagError{
					NodeIDs: []string{id, childID},
					Reasons: []string{fmt.Sprintf("cycle detected through %q -> %q", id, childID)},
				}
			case white:
				if err := visit(childID); err != nil {
					return err
				}
			}
		}
		color[id] = black
		return nil
	}
	if err := visit(g.baseline); err != nil {
		return err
	}
	reachable := make(map[string]bool, len(color))
	for id, c := range color {
		reachable[id] = c == black
	}

	// A cycle of parent references is never reachable from the baseline, so
	// sweep the remaining components for cycles before reporting them as
	// merely unreachable.
	for _, id := range g.order {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}

	for _, id := range g.order {
		if !reachable[id] {
			bad.NodeIDs = append(bad.NodeIDs, id)
			bad.Reasons = append(bad.Reasons, fmt.Sprintf("node %q is unreachable from baseline %q", id, g.baseline))
		}
	}
	if len(bad.Reasons) > 0 {
		return &bad
	}

	g.validated = true
	return nil
}

// Validated reports whether Validate has succeeded on this graph.
func (g *Graph) Validated() bool { return g.validated }
