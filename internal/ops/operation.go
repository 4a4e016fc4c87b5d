package ops

import (
	"context"
	"fmt"
	"math"

	"github.com/vk/optgridgo/internal/config"
	"github.com/vk/optgridgo/internal/dataset"
)

// Operation is the closed capability interface every registered operation
// implements. Implementations must tolerate concurrent invocation from
// different workers with different hardware configurations and hold no
// mutable state across calls.
type Operation interface {
	Name() string
	Complexity() float64

	// Execute runs the operation under the given hardware configuration.
	// The context carries the per-experiment deadline; long loops should
	// observe it.
	Execute(ctx context.Context, data []dataset.Record, hw config.Hardware) (Output, error)

	// ExecuteBaseline runs the reference scalar implementation. Its output
	// is the ground truth every optimized configuration is validated against.
	ExecuteBaseline(data []dataset.Record) (Output, error)

	// Comparator returns the equivalence predicate for this operation's
	// output kind.
	Comparator() Comparator
}

// OutputKind tags the shape of an operation's output.
type OutputKind string

const (
	// OutputCounts is a vector of discrete counters. Equality is exact.
	OutputCounts OutputKind = "counts"

	// OutputRatio is one or more floating-point aggregates. Equality is
	// tolerance-bounded.
	OutputRatio OutputKind = "ratio"
)

// Output is the closed result type of an operation execution. One of Ints
// or Floats is populated depending on Kind.
type Output struct {
	Kind   OutputKind
	Ints   []int64
	Floats []float64
}

// Comparator decides whether two outputs are equivalent. A nil return means
// equivalent; a non-nil error carries the mismatch detail.
type Comparator func(got, want Output) error

// ExactComparator compares discrete counter vectors element-wise.
func ExactComparator(got, want Output) error {
	if got.Kind != want.Kind {
		return fmt.Errorf("output kind mismatch: %s vs %s", got.Kind, want.Kind)
	}
	if len(got.Ints) != len(want.Ints) {
		return fmt.Errorf("count vector length mismatch: %d vs %d", len(got.Ints), len(want.Ints))
	}
	for i := range got.Ints {
		if got.Ints[i] != want.Ints[i] {
			return fmt.Errorf("count[%d] mismatch: %d vs %d", i, got.Ints[i], want.Ints[i])
		}
	}
	return nil
}

// ToleranceComparator compares floating aggregates within a relative epsilon.
func ToleranceComparator(eps float64) Comparator {
	return func(got, want Output) error {
		if got.Kind != want.Kind {
			return fmt.Errorf("output kind mismatch: %s vs %s", got.Kind, want.Kind)
		}
		if len(got.Floats) != len(want.Floats) {
			return fmt.Errorf("aggregate length mismatch: %d vs %d", len(got.Floats), len(want.Floats))
		}
		for i := range got.Floats {
			g, w := got.Floats[i], want.Floats[i]
			scale := math.Max(math.Abs(g), math.Abs(w))
			if scale == 0 {
				continue
			}
			if math.Abs(g-w)/scale > eps {
				return fmt.Errorf("aggregate[%d] outside tolerance: %g vs %g (eps %g)", i, g, w, eps)
			}
		}
		return nil
	}
}

// CapabilityError reports a hardware demand the operation cannot serve,
// e.g. a GPU configuration for a CPU-only implementation.
type CapabilityError struct {
	Operation  string
	Capability string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("operation %q does not support %s execution", e.Operation, e.Capability)
}
