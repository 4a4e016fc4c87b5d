package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/optgridgo/internal/checkpoint"
	"github.com/vk/optgridgo/internal/config"
	"github.com/vk/optgridgo/internal/dag"
	"github.com/vk/optgridgo/internal/dataset"
	"github.com/vk/optgridgo/internal/experiment"
	"github.com/vk/optgridgo/internal/ops"
	"github.com/vk/optgridgo/internal/registry"
	"github.com/vk/optgridgo/internal/resultstore"
	"github.com/vk/optgridgo/internal/testutil"
	"github.com/vk/optgridgo/internal/validate"
)

var testOutput = ops.Output{Kind: ops.OutputCounts, Ints: []int64{10, 20, 30, 40}}

func testExecution() config.Execution {
	return config.Execution{
		Workers:      2,
		Timeout:      5 * time.Second,
		WarmupRuns:   1,
		MeasuredRuns: 3,
		RetryLimit:   2,
	}
}

type harness struct {
	engine *Engine
	store  *resultstore.Memory
	ckpt   *checkpoint.Manager
}

func newHarness(t *testing.T, op ops.Operation, exec config.Execution) *harness {
	t.Helper()
	return newHarnessCaps(t, op, exec,
		registry.CapScalar, registry.CapSIMD, registry.CapParallel, registry.CapGPU)
}

func newHarnessCaps(t *testing.T, op ops.Operation, exec config.Execution, caps ...registry.Capability) *harness {
	t.Helper()

	reg := registry.New()
	require.NoError(t, reg.Register(registry.Descriptor{
		Name:         op.Name(),
		Category:     registry.CategoryElementWise,
		Complexity:   op.Complexity(),
		Capabilities: caps,
	}, op))

	graph, err := dag.FromPlan(context.Background(), &config.Plan{
		Nodes: []config.NodeSpec{
			{ID: "scalar", Kind: config.KindBaseline, Hardware: config.Hardware{Threads: 1}},
			{ID: "simd", Kind: config.KindAlternative, Parent: "scalar", Hardware: config.Hardware{Threads: 1, SIMD: true}},
			{ID: "gpu", Kind: config.KindAlternative, Parent: "scalar", Hardware: config.Hardware{Threads: 1, GPU: true}},
		},
	})
	require.NoError(t, err)

	h := &harness{
		store: resultstore.NewMemory(),
		ckpt:  checkpoint.NewManager(t.TempDir()+"/checkpoint.json", "fp", "run", 1000, nil),
	}
	h.engine = New(Options{
		Registry:       reg,
		Graph:          graph,
		Provider:       dataset.NewSynthetic(),
		Validator:      validate.New(),
		Checkpoint:     h.ckpt,
		Store:          h.store,
		Scales:         []config.Scale{{Name: "tiny", Sequences: 8, ReadLength: 16}},
		Seed:           7,
		Execution:      exec,
		RetryBaseDelay: time.Millisecond,
	})
	return h
}

// runAll submits the definitions, collects one result each, and shuts the
// engine down.
func (h *harness) runAll(t *testing.T, defs ...experiment.Definition) map[string]experiment.Result {
	t.Helper()
	h.engine.Start(context.Background())
	for _, def := range defs {
		h.engine.Submit(def)
	}
	out := make(map[string]experiment.Result, len(defs))
	for range defs {
		select {
		case res := <-h.engine.Results():
			out[res.Definition.NodeID] = res
		case <-time.After(30 * time.Second):
			t.Fatal("timed out waiting for results")
		}
	}
	require.NoError(t, h.engine.Close())
	return out
}

func def(node string) experiment.Definition {
	return experiment.Definition{Operation: "stub", NodeID: node, Scale: "tiny"}
}

func TestExecuteMeasuresAndValidates(t *testing.T) {
	h := newHarness(t, testutil.NewStubOperation("stub", testOutput), testExecution())
	results := h.runAll(t, def("scalar"), def("simd"))

	for _, node := range []string{"scalar", "simd"} {
		res := results[node]
		assert.Equal(t, experiment.OutcomeCompleted, res.Outcome, node)
		assert.Equal(t, experiment.ValidationPass, res.Validation, node)
		assert.Equal(t, 1, res.Attempts, node)
		assert.Greater(t, res.Throughput, 0.0, node)
		assert.Greater(t, res.ThroughputMBps, 0.0, node)
		assert.True(t, res.Usable(), node)
	}
	assert.Len(t, h.store.Results(), 2)
	assert.Equal(t, 2, h.ckpt.Len())
}

func TestDivergentOutputFailsValidation(t *testing.T) {
	stub := testutil.NewStubOperation("stub", testOutput)
	stub.ExecuteFn = func(_ context.Context, _ []dataset.Record, hw config.Hardware) (ops.Output, error) {
		if hw.SIMD {
			return ops.Output{Kind: ops.OutputCounts, Ints: []int64{10, 20, 30, 41}}, nil
		}
		return testOutput, nil
	}

	h := newHarness(t, stub, testExecution())
	results := h.runAll(t, def("simd"))

	res := results["simd"]
	assert.Equal(t, experiment.OutcomeCompleted, res.Outcome)
	assert.Equal(t, experiment.ValidationFail, res.Validation)
	assert.Contains(t, res.ValidationDetail, "mismatch")
	assert.False(t, res.Usable())
}

func TestTimeoutProducesTimedOutOutcome(t *testing.T) {
	stub := testutil.NewStubOperation("stub", testOutput)
	stub.ExecuteFn = func(ctx context.Context, _ []dataset.Record, _ config.Hardware) (ops.Output, error) {
		<-ctx.Done()
		return ops.Output{}, ctx.Err()
	}

	exec := testExecution()
	exec.Timeout = 20 * time.Millisecond
	h := newHarness(t, stub, exec)
	results := h.runAll(t, def("scalar"))

	res := results["scalar"]
	assert.Equal(t, experiment.OutcomeTimedOut, res.Outcome)
	assert.Equal(t, 3, res.Attempts, "timed-out experiments are retried up to the limit")
	assert.False(t, res.Usable())
}

func TestTransientErrorIsRetried(t *testing.T) {
	var calls atomic.Int64
	stub := testutil.NewStubOperation("stub", testOutput)
	stub.ExecuteFn = func(context.Context, []dataset.Record, config.Hardware) (ops.Output, error) {
		if calls.Add(1) <= 2 {
			return ops.Output{}, errors.New("transient allocation failure")
		}
		return testOutput, nil
	}

	h := newHarness(t, stub, testExecution())
	results := h.runAll(t, def("scalar"))

	res := results["scalar"]
	assert.Equal(t, experiment.OutcomeCompleted, res.Outcome)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, experiment.ValidationPass, res.Validation)
}

func TestRetryLimitExhausted(t *testing.T) {
	stub := testutil.NewStubOperation("stub", testOutput)
	stub.ExecuteFn = func(context.Context, []dataset.Record, config.Hardware) (ops.Output, error) {
		return ops.Output{}, errors.New("persistent failure")
	}

	exec := testExecution()
	exec.RetryLimit = 1
	h := newHarness(t, stub, exec)
	results := h.runAll(t, def("scalar"))

	res := results["scalar"]
	assert.Equal(t, experiment.OutcomeErrored, res.Outcome)
	assert.Equal(t, 2, res.Attempts)
	assert.Contains(t, res.Error, "persistent failure")
}

func TestCapabilityErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int64
	stub := testutil.NewStubOperation("stub", testOutput)
	stub.ExecuteFn = func(_ context.Context, _ []dataset.Record, hw config.Hardware) (ops.Output, error) {
		calls.Add(1)
		if hw.GPU {
			return ops.Output{}, &ops.CapabilityError{Operation: "stub", Capability: "gpu"}
		}
		return testOutput, nil
	}

	h := newHarness(t, stub, testExecution())
	results := h.runAll(t, def("gpu"))

	res := results["gpu"]
	assert.Equal(t, experiment.OutcomeErrored, res.Outcome)
	assert.Equal(t, 1, res.Attempts)
	assert.EqualValues(t, 1, calls.Load(), "one warmup call, no retries")
}

func TestUndeclaredCapabilityFailsBeforeExecution(t *testing.T) {
	var calls atomic.Int64
	stub := testutil.NewStubOperation("stub", testOutput)
	inner := stub.ExecuteFn
	stub.ExecuteFn = func(ctx context.Context, data []dataset.Record, hw config.Hardware) (ops.Output, error) {
		calls.Add(1)
		return inner(ctx, data, hw)
	}

	h := newHarnessCaps(t, stub, testExecution(),
		registry.CapScalar, registry.CapSIMD, registry.CapParallel)
	results := h.runAll(t, def("gpu"))

	res := results["gpu"]
	assert.Equal(t, experiment.OutcomeErrored, res.Outcome)
	assert.Contains(t, res.Error, "does not support")
	assert.Zero(t, calls.Load(), "undeclared demand is rejected without running the operation")
}

func TestInterruptLetsInFlightExperimentFinish(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int64
	stub := testutil.NewStubOperation("stub", testOutput)
	stub.ExecuteFn = func(ctx context.Context, _ []dataset.Record, _ config.Hardware) (ops.Output, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return ops.Output{}, err
		}
		return testOutput, nil
	}

	h := newHarness(t, stub, testExecution())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.engine.Start(ctx)
	h.engine.Submit(def("scalar"))

	<-started
	cancel()
	close(release)

	var res experiment.Result
	select {
	case res = <-h.engine.Results():
	case <-time.After(30 * time.Second):
		t.Fatal("timed out waiting for the in-flight result")
	}
	require.NoError(t, h.engine.Close())

	assert.Equal(t, experiment.OutcomeCompleted, res.Outcome,
		"cancellation must not abort a running measurement")
	cached, ok := h.ckpt.Completed(res.ID)
	require.True(t, ok)
	assert.Equal(t, experiment.OutcomeCompleted, cached.Outcome,
		"an interrupt must not checkpoint in-flight work as errored")
}

func TestInterruptStopsQueuedExperiments(t *testing.T) {
	var calls atomic.Int64
	stub := testutil.NewStubOperation("stub", testOutput)
	inner := stub.ExecuteFn
	stub.ExecuteFn = func(ctx context.Context, data []dataset.Record, hw config.Hardware) (ops.Output, error) {
		calls.Add(1)
		return inner(ctx, data, hw)
	}

	h := newHarness(t, stub, testExecution())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.engine.Start(ctx)
	h.engine.Submit(def("scalar"))
	require.NoError(t, h.engine.Close())

	assert.Zero(t, calls.Load(), "nothing queued after cancellation may start")
	assert.Zero(t, h.ckpt.Len())
}

func TestErroredCheckpointEntryIsReExecuted(t *testing.T) {
	var calls atomic.Int64
	stub := testutil.NewStubOperation("stub", testOutput)
	inner := stub.ExecuteFn
	stub.ExecuteFn = func(ctx context.Context, data []dataset.Record, hw config.Hardware) (ops.Output, error) {
		calls.Add(1)
		return inner(ctx, data, hw)
	}

	h := newHarness(t, stub, testExecution())
	interrupted := testutil.ErroredResult(def("scalar"), 1, "context canceled")
	require.NoError(t, h.ckpt.Record(context.Background(), interrupted))

	results := h.runAll(t, def("scalar"))

	res := results["scalar"]
	assert.Equal(t, experiment.OutcomeCompleted, res.Outcome)
	assert.Positive(t, calls.Load(), "a non-completed entry is executed afresh")
	recorded, ok := h.ckpt.Completed(interrupted.ID)
	require.True(t, ok)
	assert.Equal(t, experiment.OutcomeCompleted, recorded.Outcome,
		"the fresh result overwrites the stale entry")
}

func TestCheckpointedExperimentIsReplayed(t *testing.T) {
	var calls atomic.Int64
	stub := testutil.NewStubOperation("stub", testOutput)
	inner := stub.ExecuteFn
	stub.ExecuteFn = func(ctx context.Context, data []dataset.Record, hw config.Hardware) (ops.Output, error) {
		calls.Add(1)
		return inner(ctx, data, hw)
	}

	h := newHarness(t, stub, testExecution())
	cached := testutil.CompletedResult(def("scalar"), 1234)
	require.NoError(t, h.ckpt.Record(context.Background(), cached))

	results := h.runAll(t, def("scalar"))

	res := results["scalar"]
	assert.Equal(t, cached.Throughput, res.Throughput)
	assert.EqualValues(t, 0, calls.Load(), "checkpointed work is not re-executed")
	assert.Empty(t, h.store.Results(), "replayed results are not re-appended")
}
