// Package dag models the optimization configuration space as a directed
// acyclic graph rooted at a single Baseline node. Alternatives branch from
// Baseline, Compositions chain below Alternatives, and Refinements tune
// Composition leaves.
//
// The graph is built once per run from the declarative plan and is
// immutable after validation; all node-state bookkeeping during a run lives
// in the traversal coordinator, never in the graph.
package dag
