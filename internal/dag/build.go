package dag

import (
	"context"
	"fmt"

	"github.com/vk/optgridgo/internal/config"
	"github.com/vk/optgridgo/internal/ctxlog"
)

// FromPlan constructs and validates the optimization DAG from the plan's
// node declarations. Declaration order is preserved for traversal ordering.
func FromPlan(ctx context.Context, plan *config.Plan) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)

	g := &Graph{
		nodes:    make(map[string]*ConfigNode, len(plan.Nodes)),
		children: make(map[string][]string),
	}
	for _, spec := range plan.Nodes {
		if _, exists := g.nodes[spec.ID]; exists {
			return nil, &MalformedDagError{
				NodeIDs: []string{spec.ID},
				Reasons: []string{fmt.Sprintf("node %q declared more than once", spec.ID)},
			}
		}
		g.nodes[spec.ID] = &ConfigNode{
			ID:       spec.ID,
			Kind:     spec.Kind,
			Parent:   spec.Parent,
			Hardware: spec.Hardware,
		}
		g.order = append(g.order, spec.ID)
		if spec.Parent != "" {
			g.children[spec.Parent] = append(g.children[spec.Parent], spec.ID)
		}
	}
	logger.Debug("DAG nodes created.", "count", g.Len())

	if err := g.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("DAG validation passed.", "baseline", g.baseline)
	return g, nil
}
