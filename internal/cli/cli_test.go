package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositionalPlanPath(t *testing.T) {
	cfg, exit, err := Parse([]string{"plans/unit.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "plans/unit.hcl", cfg.PlanPath)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.Workers)
	assert.False(t, cfg.Resume)
}

func TestParseAllFlags(t *testing.T) {
	cfg, exit, err := Parse([]string{
		"-plan", "plans",
		"-resume",
		"-exhaustive",
		"-report", "out/report.json",
		"-workers", "8",
		"-log-level", "DEBUG",
		"-log-format", "json",
	}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "plans", cfg.PlanPath)
	assert.True(t, cfg.Resume)
	assert.True(t, cfg.Exhaustive)
	assert.Equal(t, "out/report.json", cfg.ReportPath)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestParseNoArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"bad_log_format", []string{"-log-format", "yaml", "plan.hcl"}},
		{"bad_log_level", []string{"-log-level", "trace", "plan.hcl"}},
		{"negative_workers", []string{"-workers", "-1", "plan.hcl"}},
		{"resume_and_discard", []string{"-resume", "-discard-checkpoint", "plan.hcl"}},
		{"unknown_flag", []string{"-frobnicate", "plan.hcl"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}

func TestParseHelpExitsCleanly(t *testing.T) {
	_, exit, err := Parse([]string{"-h"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, exit)
}
