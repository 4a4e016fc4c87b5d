// Package traversal drives the phased exploration of the optimization DAG:
// baseline first, then all alternatives, then composition chains in strict
// parent-before-child order, then refinements of each branch's best leaf.
// Threshold comparisons prune subtrees whose measured speedup does not pay
// for itself; every cut is recorded as a PruneDecision.
//
// Soundness assumption, documented verbatim for auditors: pruning relies on
// a monotonic-overhead assumption — a configuration that underperforms its
// parent cannot be rescued by stacking more of the same kind of
// optimization on top of it. This is a heuristic, not a theorem; the
// exhaustive flag disables all pruning (every node runs regardless of
// parent outcome) so the heuristic itself can be audited.
package traversal
