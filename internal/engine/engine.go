package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vk/optgridgo/internal/checkpoint"
	"github.com/vk/optgridgo/internal/config"
	"github.com/vk/optgridgo/internal/ctxlog"
	"github.com/vk/optgridgo/internal/dag"
	"github.com/vk/optgridgo/internal/dataset"
	"github.com/vk/optgridgo/internal/experiment"
	"github.com/vk/optgridgo/internal/registry"
	"github.com/vk/optgridgo/internal/resultstore"
	"github.com/vk/optgridgo/internal/validate"
)

// Options wires the engine to the rest of the run.
type Options struct {
	Registry   *registry.Registry
	Graph      *dag.Graph
	Provider   dataset.Provider
	Validator  *validate.Validator
	Checkpoint *checkpoint.Manager
	Store      resultstore.Store

	Scales    []config.Scale
	Seed      uint64
	Execution config.Execution

	// RetryBaseDelay is the first retry backoff interval. Zero means the
	// production default of 500ms; tests shrink it.
	RetryBaseDelay time.Duration
}

// Engine executes experiment definitions on a bounded worker pool and hands
// every finished result back on the Results channel. Definitions already
// present in the checkpoint are replayed without re-execution.
type Engine struct {
	opts   Options
	scales map[string]config.Scale

	q       *queue
	work    chan experiment.Definition
	results chan experiment.Result
	group   *errgroup.Group
}

// New creates an engine. Start must be called before Submit.
func New(opts Options) *Engine {
	if opts.RetryBaseDelay == 0 {
		opts.RetryBaseDelay = 500 * time.Millisecond
	}
	scales := make(map[string]config.Scale, len(opts.Scales))
	for _, s := range opts.Scales {
		scales[s.Name] = s
	}
	workers := opts.Execution.Workers
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		opts:    opts,
		scales:  scales,
		q:       newQueue(),
		work:    make(chan experiment.Definition),
		results: make(chan experiment.Result, workers*2),
	}
}

// Start launches the dispatcher and the worker pool. Cancelling ctx is an
// ordered stop: the dispatcher hands out no further definitions, but
// experiments already running finish on a detached context and still reach
// the checkpoint and the store.
func (e *Engine) Start(ctx context.Context) {
	execCtx := context.WithoutCancel(ctx)
	var runCtx context.Context
	e.group, runCtx = errgroup.WithContext(ctx)
	e.group.Go(func() error { return e.dispatch(runCtx) })
	workers := e.opts.Execution.Workers
	if workers < 1 {
		workers = 1
	}
	ctxlog.FromContext(ctx).Info("Engine started.", "workers", workers)
	for i := 0; i < workers; i++ {
		e.group.Go(func() error { return e.worker(runCtx, execCtx) })
	}
}

// Submit enqueues a definition for execution. It never blocks.
func (e *Engine) Submit(def experiment.Definition) {
	e.q.push(def)
}

// Results is the stream of finished results. It is closed by Close.
func (e *Engine) Results() <-chan experiment.Result {
	return e.results
}

// Close stops accepting work, waits for in-flight experiments to finish,
// and closes the results channel. Callers must have consumed every result
// they are owed before calling Close.
func (e *Engine) Close() error {
	e.q.close()
	err := e.group.Wait()
	close(e.results)
	return err
}

// dispatch drains the unbounded submit queue into the worker channel.
// Cancellation stops dispatch without error so queued definitions never
// start after an interrupt.
func (e *Engine) dispatch(ctx context.Context) error {
	defer close(e.work)
	for {
		// Checked first so a definition never races a cancellation that is
		// already in effect.
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		def, ok, done := e.q.pop()
		if done {
			return nil
		}
		if !ok {
			select {
			case <-e.q.signal:
				continue
			case <-ctx.Done():
				return nil
			}
		}
		select {
		case e.work <- def:
		case <-ctx.Done():
			return nil
		}
	}
}

// worker executes on execCtx, which outlives a run cancellation; ctx only
// unblocks result delivery once the coordinator has stopped consuming, at
// which point the result is already durable.
func (e *Engine) worker(ctx, execCtx context.Context) error {
	logger := ctxlog.FromContext(execCtx)
	for def := range e.work {
		res, replayed := e.resolve(execCtx, def)
		if replayed {
			logger.Debug("Replaying checkpointed result.", "experiment", def.String())
		} else {
			if err := e.opts.Checkpoint.Record(execCtx, res); err != nil {
				return err
			}
			if err := e.opts.Store.Append(res); err != nil {
				return err
			}
		}
		// Delivery is attempted first; cancellation only unblocks a send
		// into a full buffer, which means the consumer is gone.
		select {
		case e.results <- res:
		default:
			select {
			case e.results <- res:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// resolve returns the checkpointed result when a completed one exists,
// otherwise runs the experiment. Errored and timed-out entries left behind
// by an interrupted run are executed afresh on resume.
func (e *Engine) resolve(ctx context.Context, def experiment.Definition) (experiment.Result, bool) {
	if cached, ok := e.opts.Checkpoint.Completed(def.ID()); ok && cached.Outcome == experiment.OutcomeCompleted {
		return cached, true
	}
	return e.execute(ctx, def), false
}
