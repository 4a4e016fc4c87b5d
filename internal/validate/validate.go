package validate

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/optgridgo/internal/config"
	"github.com/vk/optgridgo/internal/ctxlog"
	"github.com/vk/optgridgo/internal/dataset"
	"github.com/vk/optgridgo/internal/experiment"
	"github.com/vk/optgridgo/internal/ops"
)

// Validator holds the ground-truth outputs a run validates against. The
// reference for each (operation, scale) pair is computed once with the
// operation's naive implementation and cached for every configuration that
// follows, so a large grid pays the scalar cost exactly once per pair.
//
// Safe for concurrent use by the engine's workers.
type Validator struct {
	mu   sync.Mutex
	refs map[string]ops.Output
}

// New creates an empty validator.
func New() *Validator {
	return &Validator{refs: make(map[string]ops.Output)}
}

func refKey(operation string, scale config.Scale) string {
	return operation + "/" + scale.Name
}

// Reference returns the ground-truth output for (operation, scale),
// computing it on first use.
func (v *Validator) Reference(ctx context.Context, op ops.Operation, scale config.Scale, data []dataset.Record) (ops.Output, error) {
	key := refKey(op.Name(), scale)

	v.mu.Lock()
	defer v.mu.Unlock()
	if ref, ok := v.refs[key]; ok {
		return ref, nil
	}

	ctxlog.FromContext(ctx).Debug("Computing validation reference.", "operation", op.Name(), "scale", scale.Name)
	ref, err := op.ExecuteBaseline(data)
	if err != nil {
		return ops.Output{}, fmt.Errorf("computing reference output for %s: %w", key, err)
	}
	v.refs[key] = ref
	return ref, nil
}

// Check compares an optimized configuration's output against the ground
// truth using the operation's own comparator. A mismatch is not an error at
// this level; it is a ValidationFail with the comparator's detail attached,
// and the caller decides what to do with the measurement.
func (v *Validator) Check(ctx context.Context, op ops.Operation, scale config.Scale, data []dataset.Record, got ops.Output) (experiment.ValidationStatus, string, error) {
	ref, err := v.Reference(ctx, op, scale, data)
	if err != nil {
		return experiment.ValidationSkipped, "", err
	}

	if cmpErr := op.Comparator()(got, ref); cmpErr != nil {
		return experiment.ValidationFail, cmpErr.Error(), nil
	}
	return experiment.ValidationPass, "", nil
}
