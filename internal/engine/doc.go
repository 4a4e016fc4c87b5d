// Package engine executes experiments on a bounded worker pool. The
// coordinator submits experiment definitions as pruning decisions resolve;
// the engine measures each one (warmups, timed iterations, median
// reduction), validates the output against the operation's reference, and
// streams results back. Completed work found in the checkpoint is replayed
// instead of re-executed.
package engine
