package testutil

import (
	"context"

	"github.com/vk/optgridgo/internal/config"
	"github.com/vk/optgridgo/internal/dataset"
	"github.com/vk/optgridgo/internal/ops"
)

// StubOperation is a scriptable ops.Operation for engine and app tests.
// The zero value is not usable; construct with NewStubOperation.
type StubOperation struct {
	OpName    string
	Cost      float64
	Baseline  ops.Output
	ExecuteFn func(ctx context.Context, data []dataset.Record, hw config.Hardware) (ops.Output, error)
	CompareFn ops.Comparator
}

// NewStubOperation returns a stub whose Execute and ExecuteBaseline both
// yield the given output, with an exact comparator. Override ExecuteFn to
// script failures or divergent outputs.
func NewStubOperation(name string, out ops.Output) *StubOperation {
	return &StubOperation{
		OpName:   name,
		Cost:     0.5,
		Baseline: out,
		ExecuteFn: func(context.Context, []dataset.Record, config.Hardware) (ops.Output, error) {
			return out, nil
		},
		CompareFn: ops.ExactComparator,
	}
}

func (s *StubOperation) Name() string               { return s.OpName }
func (s *StubOperation) Complexity() float64        { return s.Cost }
func (s *StubOperation) Comparator() ops.Comparator { return s.CompareFn }

func (s *StubOperation) Execute(ctx context.Context, data []dataset.Record, hw config.Hardware) (ops.Output, error) {
	return s.ExecuteFn(ctx, data, hw)
}

func (s *StubOperation) ExecuteBaseline([]dataset.Record) (ops.Output, error) {
	return s.Baseline, nil
}
