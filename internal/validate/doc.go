// Package validate gates every measurement on output correctness. Each
// operation's naive implementation produces the reference output per data
// scale, and every optimized configuration's output must match it under the
// operation's comparator before its timing may influence a pruning decision.
package validate
