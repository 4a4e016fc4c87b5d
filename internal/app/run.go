package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"github.com/vk/optgridgo/internal/checkpoint"
	"github.com/vk/optgridgo/internal/ctxlog"
	"github.com/vk/optgridgo/internal/dataset"
	"github.com/vk/optgridgo/internal/engine"
	"github.com/vk/optgridgo/internal/report"
	"github.com/vk/optgridgo/internal/resultstore"
	"github.com/vk/optgridgo/internal/traversal"
	"github.com/vk/optgridgo/internal/validate"
)

// ErrRunFailed marks a run that finished without a usable, validated
// baseline for every operation. It maps to a non-zero exit code.
var ErrRunFailed = errors.New("run finished without a usable baseline for every operation")

// Run executes the full exploration: checkpoint handling, engine startup,
// phased traversal, and report export. On operator interrupt no new
// experiments start, in-flight experiments finish, and the checkpoint is
// flushed once they have so the next invocation resumes with zero lost
// work.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	fingerprint := a.plan.Fingerprint()
	out := a.plan.Output
	checkpointPath := filepath.Join(out.ResultsDir, out.CheckpointFile)
	resultsPath := filepath.Join(out.ResultsDir, out.ResultsFile)
	reportPath := a.cfg.ReportPath
	if reportPath == "" {
		reportPath = filepath.Join(out.ResultsDir, out.ReportFile)
	}
	a.logger.Info("Run starting.", "run_id", runID, "plan", a.plan.Name, "fingerprint", fingerprint)

	if a.cfg.DiscardCheckpoint {
		if err := checkpoint.Discard(checkpointPath); err != nil {
			return err
		}
		a.logger.Info("Existing checkpoint discarded.", "path", checkpointPath)
	}
	var resumed *checkpoint.State
	if a.cfg.Resume {
		state, err := checkpoint.Load(ctx, checkpointPath, fingerprint)
		if err != nil {
			return fmt.Errorf("cannot resume (pass -discard-checkpoint to start over): %w", err)
		}
		if state == nil {
			a.logger.Warn("No checkpoint found, starting fresh.", "path", checkpointPath)
		}
		resumed = state
	}
	ckpt := checkpoint.NewManager(checkpointPath, fingerprint, runID, a.plan.Execution.CheckpointInterval, resumed)

	store, err := resultstore.NewJSONL(resultsPath, runID)
	if err != nil {
		return err
	}
	defer store.Close()

	eng := engine.New(engine.Options{
		Registry:   a.registry,
		Graph:      a.graph,
		Provider:   dataset.NewSynthetic(),
		Validator:  validate.New(),
		Checkpoint: ckpt,
		Store:      store,
		Scales:     a.plan.Scales,
		Seed:       a.plan.Seed,
		Execution:  a.plan.Execution,
	})
	eng.Start(ctx)

	coordinator := traversal.New(traversal.Options{
		Graph:    a.graph,
		Executor: eng,
		Plan:     a.plan,
	})
	units, runErr := coordinator.Run(ctx)

	// Close waits for in-flight experiments, which keep recording after an
	// interrupt; flushing afterwards guarantees their results hit the disk.
	if err := eng.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if err := ckpt.Flush(ctx); err != nil {
		a.logger.Error("Checkpoint flush failed.", "error", err)
	}
	if err := store.Flush(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return fmt.Errorf("traversal aborted: %w", runErr)
	}

	rep := report.Build(a.graph, a.plan, runID, units)
	if err := rep.WriteJSON(reportPath); err != nil {
		return err
	}
	a.logger.Info("Decision report written.", "path", reportPath)

	for _, unit := range units {
		if unit.Optimal == "" {
			a.logger.Warn("No optimal configuration.", "operation", unit.Operation, "scale", unit.Scale)
			continue
		}
		a.logger.Info("Optimal configuration selected.",
			"operation", unit.Operation,
			"scale", unit.Scale,
			"node", unit.Optimal,
			"speedup", unit.Speedup,
			"pruned", len(unit.Decisions))
	}

	if !traversal.Success(units) {
		return ErrRunFailed
	}
	a.logger.Info("Run finished.", "run_id", runID, "results", resultsPath)
	return nil
}
