// Package checkpoint persists completed experiment results so an
// interrupted run can resume without re-executing finished work. Files are
// written atomically via rename and are tied to a plan fingerprint so a
// checkpoint is never replayed against a different exploration.
package checkpoint
