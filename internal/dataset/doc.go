// Package dataset provides the data fixtures experiments run against.
//
// Fixtures are synthetic FASTQ-like records generated from a seeded PRNG,
// so a run's measurements are reproducible and a resumed run sees exactly
// the data the interrupted run saw.
package dataset
