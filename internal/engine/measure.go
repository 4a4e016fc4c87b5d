package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/vk/optgridgo/internal/config"
	"github.com/vk/optgridgo/internal/ctxlog"
	"github.com/vk/optgridgo/internal/dataset"
	"github.com/vk/optgridgo/internal/experiment"
	"github.com/vk/optgridgo/internal/ops"
)

// measurement is the raw product of one successful experiment attempt.
type measurement struct {
	durations []time.Duration
	output    ops.Output
}

// execute runs one experiment end to end: fixture, warmups, measured
// iterations, validation. Execution errors and timeouts are retried with
// exponential backoff up to the configured retry limit; capability errors
// are permanent.
func (e *Engine) execute(ctx context.Context, def experiment.Definition) experiment.Result {
	logger := ctxlog.FromContext(ctx)
	started := time.Now()

	res := experiment.Result{
		ID:         def.ID(),
		Definition: def,
		Attempts:   1,
		Validation: experiment.ValidationSkipped,
	}
	fail := func(err error) experiment.Result {
		res.Outcome = experiment.OutcomeErrored
		res.Error = err.Error()
		res.Timestamp = time.Now().UTC()
		return res
	}

	op, err := e.opts.Registry.Get(def.Operation)
	if err != nil {
		return fail(err)
	}
	node := e.opts.Graph.Node(def.NodeID)
	if node == nil {
		return fail(fmt.Errorf("unknown configuration node %q", def.NodeID))
	}
	scale, ok := e.scales[def.Scale]
	if !ok {
		return fail(fmt.Errorf("unknown scale %q", def.Scale))
	}
	supported, err := e.opts.Registry.SupportsHardware(def.Operation, node.Hardware)
	if err != nil {
		return fail(err)
	}
	if !supported {
		// Fail before the fixture is built and the timeout budget is spent.
		return fail(fmt.Errorf("operation %q does not support configuration node %q", def.Operation, def.NodeID))
	}
	data, err := e.opts.Provider.Fixture(ctx, def.Operation, scale, e.opts.Seed)
	if err != nil {
		return fail(err)
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = e.opts.RetryBaseDelay
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(e.opts.Execution.RetryLimit)), ctx)

	var m measurement
	attempts := 0
	err = backoff.Retry(func() error {
		attempts++
		var attemptErr error
		m, attemptErr = e.measure(ctx, op, node.Hardware, data)
		if attemptErr == nil {
			return nil
		}

		var capErr *ops.CapabilityError
		if errors.As(attemptErr, &capErr) {
			// The capability demand will not change between attempts.
			return backoff.Permanent(attemptErr)
		}
		logger.Warn("Experiment attempt failed, retrying.", "experiment", def.String(), "attempt", attempts, "error", attemptErr)
		return attemptErr
	}, policy)

	res.Attempts = attempts
	res.Timestamp = time.Now().UTC()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			res.Outcome = experiment.OutcomeTimedOut
		} else {
			res.Outcome = experiment.OutcomeErrored
		}
		res.Error = err.Error()
		return res
	}

	res.Outcome = experiment.OutcomeCompleted
	res.MedianSeconds = median(m.durations).Seconds()
	res.MeanSeconds = mean(m.durations).Seconds()
	if res.MedianSeconds > 0 {
		res.Throughput = float64(len(data)) / res.MedianSeconds
		res.ThroughputMBps = float64(totalBases(data)) / res.MedianSeconds / 1e6
	}

	status, detail, err := e.opts.Validator.Check(ctx, op, scale, data, m.output)
	if err != nil {
		res.Validation = experiment.ValidationSkipped
		res.Error = err.Error()
	} else {
		res.Validation = status
		res.ValidationDetail = detail
	}

	logger.Debug("Experiment finished.",
		"experiment", def.String(),
		"outcome", res.Outcome,
		"validation", res.Validation,
		"median_s", res.MedianSeconds,
		"throughput", res.Throughput,
		"attempts", res.Attempts,
		"elapsed", time.Since(started))
	return res
}

// measure runs the warmup and measured iterations under the per-experiment
// wall-clock budget. The output of the final measured iteration is kept for
// validation; all iterations run the same pure function on the same data,
// so any one of them is representative.
func (e *Engine) measure(ctx context.Context, op ops.Operation, hw config.Hardware, data []dataset.Record) (measurement, error) {
	if e.opts.Execution.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Execution.Timeout)
		defer cancel()
	}

	for i := 0; i < e.opts.Execution.WarmupRuns; i++ {
		if _, err := op.Execute(ctx, data, hw); err != nil {
			return measurement{}, fmt.Errorf("warmup %d: %w", i+1, err)
		}
	}

	m := measurement{durations: make([]time.Duration, 0, e.opts.Execution.MeasuredRuns)}
	for i := 0; i < e.opts.Execution.MeasuredRuns; i++ {
		start := time.Now()
		out, err := op.Execute(ctx, data, hw)
		if err != nil {
			return measurement{}, fmt.Errorf("measured run %d: %w", i+1, err)
		}
		m.durations = append(m.durations, time.Since(start))
		m.output = out
	}
	return m, nil
}

func median(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func mean(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}

func totalBases(data []dataset.Record) int {
	total := 0
	for _, rec := range data {
		total += len(rec.Sequence)
	}
	return total
}
