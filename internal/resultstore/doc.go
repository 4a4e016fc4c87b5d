// Package resultstore persists finished experiment results. The primary
// implementation appends newline-delimited JSON so partial output from an
// interrupted run is still parseable line by line.
package resultstore
