// Package experiment is the engine's public entry point: decode a
// description, validate it, and run it. It is a thin wrapper over
// internal/schema, internal/types, internal/ref, internal/analyzer, and
// internal/exec — the contract described in spec §6.
package experiment

import (
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/cwbudde/flowgraph/internal/analyzer"
	"github.com/cwbudde/flowgraph/internal/exec"
	"github.com/cwbudde/flowgraph/internal/issue"
	"github.com/cwbudde/flowgraph/internal/plugin"
	"github.com/cwbudde/flowgraph/internal/tracker"
)

// ParseYAML decodes YAML (or JSON, a subset of YAML) bytes into the
// generic in-memory structure internal/schema accepts: nested
// yaml.MapSlice / []any / scalars. Decoding uses yaml.UseOrderedMap so
// every mapping in the document comes back as a yaml.MapSlice rather than
// a plain Go map — internal/schema relies on that to recover each
// mapping's declaration order (spec's first-appearance tie-break) before
// flattening it for the rest of the pipeline.
func ParseYAML(data []byte) (any, error) {
	var raw any
	if err := yaml.UnmarshalWithOptions(data, &raw, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("experiment: decoding description: %w", err)
	}
	return raw, nil
}

// Description is a validated, execution-ready experiment.
type Description struct {
	plan *analyzer.Plan
}

// Validate runs the full Schema Validator -> Type System + Reference
// Resolver -> Static Analyzer pipeline (spec §4) over a decoded
// description and returns every issue found. Description is non-nil iff
// the issue list contains no error-severity issue.
func Validate(raw any) (*Description, issue.List) {
	plan, issues := analyzer.Analyze(raw)
	if plan == nil {
		return nil, issues
	}
	return &Description{plan: plan}, issues
}

// Run executes d to completion or first failure (spec §4.E). params
// supplies external parameter values; trk may be nil to disable tracker
// integration.
func (d *Description) Run(params map[string]any, loader plugin.Loader, trk tracker.Tracker) (*exec.Result, error) {
	return exec.Run(d.plan, params, loader, trk)
}

// Plan exposes the analyzed plan for callers needing lower-level access
// (the CLI's `refs` command, primarily).
func (d *Description) Plan() *analyzer.Plan {
	return d.plan
}
