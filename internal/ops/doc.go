// Package ops defines the closed capability interface for performance
// primitives and ships the reference operation set the scheduler is tested
// against. Concrete accelerated kernels live behind the same interface on
// real hardware; here the SIMD and parallel variants are honest Go
// renditions of the same computation shapes.
package ops
