package dag

import (
	"github.com/vk/optgridgo/internal/config"
)

// ConfigNode is one vertex of the optimization DAG: a concrete hardware
// configuration plus its position in the exploration hierarchy.
type ConfigNode struct {
	ID     string
	Kind   config.NodeKind
	Parent string // empty only for the Baseline node
	config.Hardware
}

// Graph is the validated optimization DAG. It is built once per run from
// the plan's node declarations and is immutable after Validate succeeds.
//
// Child order is insertion-stable: ChildrenOf returns children in plan
// declaration order, so two runs over the same plan always traverse in the
// same order.
type Graph struct {
	nodes     map[string]*ConfigNode
	order     []string
	children  map[string][]string
	baseline  string
	validated bool
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id string) *ConfigNode {
	return g.nodes[id]
}

// Baseline returns the ID of the unique Baseline node. Only meaningful
// after Validate.
func (g *Graph) Baseline() string { return g.baseline }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// NodeIDs returns all node IDs in declaration order.
func (g *Graph) NodeIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// ChildrenOf returns the children of the given node with the given kind,
// in declaration order.
func (g *Graph) ChildrenOf(id string, kind config.NodeKind) []*ConfigNode {
	var out []*ConfigNode
	for _, childID := range g.children[id] {
		child := g.nodes[childID]
		if child.Kind == kind {
			out = append(out, child)
		}
	}
	return out
}

// Children returns all children of the given node regardless of kind, in
// declaration order.
func (g *Graph) Children(id string) []*ConfigNode {
	out := make([]*ConfigNode, 0, len(g.children[id]))
	for _, childID := range g.children[id] {
		out = append(out, g.nodes[childID])
	}
	return out
}

// AncestorChain returns the path from the Baseline node down to (and
// including) the given node, following parent links.
func (g *Graph) AncestorChain(id string) []string {
	var reversed []string
	for cur := id; cur != ""; {
		node := g.nodes[cur]
		if node == nil {
			break
		}
		reversed = append(reversed, cur)
		cur = node.Parent
	}
	chain := make([]string, len(reversed))
	for i, id := range reversed {
		chain[len(reversed)-1-i] = id
	}
	return chain
}
