package hcl

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"go.uber.org/multierr"

	"github.com/vk/optgridgo/internal/config"
	"github.com/vk/optgridgo/internal/ctxlog"
	"github.com/vk/optgridgo/internal/fsutil"
)

// Loader reads .hcl plan files and produces the format-agnostic config.Plan.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a Loader with a fresh HCL parser.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// evalContext returns the evaluation context available to plan expressions.
// Plans may reference `cores` so settings like `workers = cores - 1` track
// the machine they run on.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"cores": cty.NumberIntVal(int64(runtime.NumCPU())),
		},
	}
}

// Load resolves each path to one or more .hcl files, parses them, and merges
// them into a single plan model. Exactly one `plan` block must exist across
// all files; scale and node blocks are collected in file order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Plan, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("plan path %q: %w", path, err)
		}
		if info.IsDir() {
			found, err := fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, fmt.Errorf("scanning %q for plan files: %w", path, err)
			}
			files = append(files, found...)
		} else {
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl plan files found under %v", paths)
	}
	logger.Debug("Plan files resolved.", "count", len(files))

	merged := &fileSchema{}
	var loadErr error
	for _, file := range files {
		parsed, err := l.decodeFile(file)
		if err != nil {
			loadErr = multierr.Append(loadErr, err)
			continue
		}
		if parsed.Plan != nil {
			if merged.Plan != nil {
				loadErr = multierr.Append(loadErr, fmt.Errorf("%s: duplicate plan block (already declared as %q)", file, merged.Plan.Name))
				continue
			}
			merged.Plan = parsed.Plan
		}
		merged.Scales = append(merged.Scales, parsed.Scales...)
		merged.Nodes = append(merged.Nodes, parsed.Nodes...)
	}
	if loadErr != nil {
		return nil, loadErr
	}
	if merged.Plan == nil {
		return nil, fmt.Errorf("no plan block found in %v", files)
	}

	plan := translate(merged)
	plan.ApplyDefaults()
	logger.Debug("Plan loaded.", "plan", plan.Name, "operations", len(plan.Operations), "scales", len(plan.Scales), "nodes", len(plan.Nodes))
	return plan, nil
}

// decodeFile parses and decodes one plan file against the schema.
func (l *Loader) decodeFile(path string) (*fileSchema, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file %q: %w", path, err)
	}
	return l.decodeBytes(path, src)
}

func (l *Loader) decodeBytes(filename string, src []byte) (*fileSchema, error) {
	file, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}

	var parsed fileSchema
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", filename, diags)
	}
	return &parsed, nil
}
