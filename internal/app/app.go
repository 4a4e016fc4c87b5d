package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/optgridgo/internal/config"
	"github.com/vk/optgridgo/internal/ctxlog"
	"github.com/vk/optgridgo/internal/dag"
	"github.com/vk/optgridgo/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	cfg      *Config
	plan     *config.Plan
	graph    *dag.Graph
	registry *registry.Registry
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, a loaded and
// validated plan, a validated DAG, and a frozen operation registry.
// Setup failures are fatal and panic; the entrypoint recovers and turns
// them into a clean exit.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	plan, err := loader.Load(ctx, cfg.PlanPath)
	if err != nil {
		panic(fmt.Errorf("failed to load plan: %w", err))
	}
	if cfg.Workers > 0 {
		plan.Execution.Workers = cfg.Workers
	}
	if cfg.Exhaustive {
		plan.Exhaustive = true
	}
	if err := plan.Validate(); err != nil {
		panic(fmt.Errorf("invalid plan: %w", err))
	}
	logger.Debug("Plan loaded and validated.", "plan", plan.Name, "operations", len(plan.Operations), "scales", len(plan.Scales), "nodes", len(plan.Nodes))

	graph, err := dag.FromPlan(ctx, plan)
	if err != nil {
		panic(fmt.Errorf("failed to build optimization DAG: %w", err))
	}

	reg := registry.New()
	if err := registerOperations(reg); err != nil {
		panic(err)
	}
	for _, op := range plan.Operations {
		if _, err := reg.Get(op); err != nil {
			panic(fmt.Errorf("plan references unknown operation: %w", err))
		}
	}
	reg.Freeze()
	for _, cat := range []registry.Category{
		registry.CategoryElementWise,
		registry.CategoryAggregation,
		registry.CategoryFiltering,
		registry.CategoryTransformation,
		registry.CategorySearch,
	} {
		if names := reg.ByCategory(cat); len(names) > 0 {
			logger.Debug("Operation category available.", "category", cat, "operations", names)
		}
	}
	logger.Debug("Operation registry frozen.", "operations", reg.Names())

	return &App{
		outW:     outW,
		logger:   logger,
		cfg:      cfg,
		plan:     plan,
		graph:    graph,
		registry: reg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Plan returns the loaded plan. This is primarily for testing.
func (a *App) Plan() *config.Plan {
	return a.plan
}
