// Package hcl implements the HCL loader for exploration plans.
//
// A plan consists of one `plan` block (thresholds, execution settings,
// output locations), any number of `scale` blocks, and the `node` blocks
// declaring the optimization DAG. Files may be split freely; the loader
// merges every .hcl file under the given paths into a single model.
//
// Plan expressions evaluate against a small context: `cores` is the number
// of logical CPUs, so plans can write `workers = cores - 1`.
package hcl
