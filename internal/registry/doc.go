// Package registry provides the static catalog of performance operations.
//
// The registry maps operation names to their implementations and immutable
// descriptors (category, complexity score, declared capabilities). It is
// constructed once at startup, frozen before the traversal coordinator
// starts, and passed by reference into everything that needs it.
package registry
