// Package report renders the decision report of a run: per operation and
// scale, every node's terminal status and reason, the pruning log, and the
// selected optimal configuration with its ancestor chain and cumulative
// speedup.
package report
