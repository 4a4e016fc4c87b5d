package hcl

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/optgridgo/internal/config"
)

const basicPlan = `
plan "unit" {
  seed       = 42
  operations = ["base_counting", "gc_content"]

  thresholds {
    alternative = 1.5
    composition = 1.3
  }

  thresholds_for "gc_content" {
    alternative = 4.0
    composition = 2.0
  }

  execution {
    workers         = cores - 1
    timeout_seconds = 60
    measured_runs   = 5
  }

  output {
    results_dir = "out"
  }
}

scale "medium" {
  sequences   = 10000
  read_length = 150
}

node "baseline" {
  kind = "baseline"
}

node "simd" {
  kind   = "alternative"
  parent = "baseline"
  simd   = true
}

node "simd_2t" {
  kind    = "composition"
  parent  = "simd"
  simd    = true
  threads = 2
}
`

func writePlan(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadBasicPlan(t *testing.T) {
	dir := writePlan(t, map[string]string{"plan.hcl": basicPlan})

	plan, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "unit", plan.Name)
	assert.Equal(t, uint64(42), plan.Seed)
	assert.Equal(t, []string{"base_counting", "gc_content"}, plan.Operations)
	assert.Equal(t, 1.5, plan.Thresholds.Alternative)
	assert.Equal(t, 4.0, plan.ThresholdsFor("gc_content").Alternative)
	assert.Equal(t, 60*time.Second, plan.Execution.Timeout)
	assert.Equal(t, 5, plan.Execution.MeasuredRuns)
	assert.Equal(t, "out", plan.Output.ResultsDir)

	require.Len(t, plan.Scales, 1)
	assert.Equal(t, 10000, plan.Scales[0].Sequences)

	require.Len(t, plan.Nodes, 3)
	assert.Equal(t, config.KindBaseline, plan.Nodes[0].Kind)
	assert.Equal(t, "simd", plan.Nodes[1].ID)
	assert.True(t, plan.Nodes[1].SIMD)
	assert.Equal(t, 2, plan.Nodes[2].Threads)
}

func TestLoadEvaluatesCoresVariable(t *testing.T) {
	dir := writePlan(t, map[string]string{"plan.hcl": basicPlan})

	plan, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	want := runtime.NumCPU() - 1
	if want < 1 {
		want = 1
	}
	assert.Equal(t, want, plan.Execution.Workers)
}

func TestLoadAppliesDefaults(t *testing.T) {
	minimal := `
plan "tiny" {
  operations = ["base_counting"]
}

scale "small" {
  sequences   = 100
  read_length = 50
}

node "baseline" {
  kind = "baseline"
}
`
	dir := writePlan(t, map[string]string{"plan.hcl": minimal})

	plan, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1.5, plan.Thresholds.Alternative)
	assert.Equal(t, 1.3, plan.Thresholds.Composition)
	assert.Equal(t, 300*time.Second, plan.Execution.Timeout)
	assert.Equal(t, 2, plan.Execution.RetryLimit)
	assert.Equal(t, 1, plan.Nodes[0].Threads)
	assert.Equal(t, config.AffinityDefault, plan.Nodes[0].Affinity)
}

func TestLoadMergesSplitFiles(t *testing.T) {
	planOnly := `
plan "split" {
  operations = ["base_counting"]
}
scale "small" {
  sequences   = 100
  read_length = 50
}
`
	nodesOnly := `
node "baseline" {
  kind = "baseline"
}
node "parallel" {
  kind    = "alternative"
  parent  = "baseline"
  threads = 4
}
`
	// File names chosen so lexical order keeps node declaration order stable.
	dir := writePlan(t, map[string]string{"a_plan.hcl": planOnly, "b_nodes.hcl": nodesOnly})

	plan, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, plan.Nodes, 2)
	assert.Equal(t, "baseline", plan.Nodes[0].ID)
	assert.Equal(t, "parallel", plan.Nodes[1].ID)
}

func TestLoadRejectsDuplicatePlanBlocks(t *testing.T) {
	dup := `
plan "again" {
  operations = ["base_counting"]
}
`
	dir := writePlan(t, map[string]string{"a.hcl": basicPlan, "b.hcl": dup})

	_, err := NewLoader().Load(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorContains(t, err, "duplicate plan block")
}

func TestLoadRejectsInvalidSyntax(t *testing.T) {
	dir := writePlan(t, map[string]string{"bad.hcl": `plan "x" {`})

	_, err := NewLoader().Load(context.Background(), dir)
	require.Error(t, err)
}

func TestLoadRejectsMissingPlanBlock(t *testing.T) {
	dir := writePlan(t, map[string]string{"nodes.hcl": `node "baseline" { kind = "baseline" }`})

	_, err := NewLoader().Load(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorContains(t, err, "no plan block")
}
