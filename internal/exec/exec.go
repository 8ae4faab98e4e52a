// Package exec implements the Graph Executor (spec §4.E): given an
// analyzer.Plan, a parameter binding, and a plugin loader, it linearizes
// the dependency graph and invokes each step's task plugin in order,
// threading values between steps by deep substitution of `$`-references.
package exec

import (
	"fmt"

	"github.com/cwbudde/flowgraph/internal/analyzer"
	"github.com/cwbudde/flowgraph/internal/plugin"
	"github.com/cwbudde/flowgraph/internal/ref"
	"github.com/cwbudde/flowgraph/internal/schema"
	"github.com/cwbudde/flowgraph/internal/tracker"
)

// Outcome is one step's execution result.
type Outcome struct {
	Step    string
	Plugin  string
	Success bool
	Outputs map[string]any
	Err     error
}

// Result is the full per-run execution trace.
type Result struct {
	Outcomes []Outcome
	Failed   bool
}

// Run executes plan to completion or first failure. paramValues supplies
// external parameter values; any parameter absent from it falls back to
// its declared default. A parameter with neither is a fatal error raised
// before any step runs. trk may be nil, in which case tracker.NoOp is
// used.
func Run(plan *analyzer.Plan, paramValues map[string]any, loader plugin.Loader, trk tracker.Tracker) (*Result, error) {
	if trk == nil {
		trk = tracker.NoOp{}
	}

	bindings, err := bindParameters(plan, paramValues)
	if err != nil {
		return nil, err
	}
	trk.LogDescription(plan, bindings)

	order, remaining, ok := plan.Graph.TopoSort()
	if !ok {
		return nil, fmt.Errorf("exec: cycle among steps at execution time: %v (this should have been caught during validation)", remaining)
	}

	e := &executor{plan: plan, bindings: bindings, loader: loader, outputs: map[string]map[string]any{}}

	result := &Result{}
	for _, stepName := range order {
		outcome := e.runStep(stepName)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Success {
			trk.LogStepResult(outcome.Step, outcome.Plugin, true, outcome.Outputs, "")
			continue
		}
		trk.LogStepResult(outcome.Step, outcome.Plugin, false, nil, outcome.Err.Error())
		result.Failed = true
		trk.Finish(false, outcome.Err.Error())
		return result, nil
	}
	trk.Finish(true, "")
	return result, nil
}

func bindParameters(plan *analyzer.Plan, paramValues map[string]any) (map[string]any, error) {
	bindings := make(map[string]any, len(plan.Params))
	for name, pi := range plan.Params {
		if v, ok := paramValues[name]; ok {
			bindings[name] = v
			continue
		}
		if pi.HasDefault {
			bindings[name] = pi.Default
			continue
		}
		return nil, fmt.Errorf("exec: parameter %q has no external value and no default", name)
	}
	return bindings, nil
}

type executor struct {
	plan     *analyzer.Plan
	bindings map[string]any
	loader   plugin.Loader
	outputs  map[string]map[string]any
}

func (e *executor) runStep(name string) Outcome {
	si := e.plan.Steps[name]
	ti := si.Task

	args, err := e.substitute(si.Args)
	if err != nil {
		return e.fail(name, ti.Plugin, err)
	}
	kwargs, err := e.substitute(si.Kwargs)
	if err != nil {
		return e.fail(name, ti.Plugin, err)
	}

	fn, err := e.loader.Load(ti.Plugin)
	if err != nil {
		return e.fail(name, ti.Plugin, err)
	}

	var argList []any
	if a, ok := args.([]any); ok {
		argList = a
	}
	var kwargMap map[string]any
	if m, ok := kwargs.(map[string]any); ok {
		kwargMap = m
	}

	ret, err := fn(argList, kwargMap)
	if err != nil {
		return e.fail(name, ti.Plugin, err)
	}

	outputs, err := bindOutputs(ti, ret)
	if err != nil {
		return e.fail(name, ti.Plugin, err)
	}
	e.outputs[name] = outputs

	return Outcome{Step: name, Plugin: ti.Plugin, Success: true, Outputs: outputs}
}

func (e *executor) fail(step, pluginPath string, err error) Outcome {
	return Outcome{
		Step:    step,
		Plugin:  pluginPath,
		Success: false,
		Err:     fmt.Errorf("step %q (plugin %q): %w", step, pluginPath, err),
	}
}

// bindOutputs captures a plugin's return value per spec §4.E.3.
func bindOutputs(ti *analyzer.TaskInfo, ret any) (map[string]any, error) {
	switch ti.OutputForm {
	case schema.NoOutputs:
		return nil, nil
	case schema.SingleOutput:
		return map[string]any{ti.OutputOrder[0]: ret}, nil
	case schema.ListOutputs:
		seq, ok := ret.([]any)
		if !ok {
			return nil, fmt.Errorf("task declares list-form outputs but the plugin returned a non-iterable value (%T)", ret)
		}
		out := make(map[string]any, len(ti.OutputOrder))
		for i, name := range ti.OutputOrder {
			if i >= len(seq) {
				break // missing positions remain unbound
			}
			out[name] = seq[i]
		}
		return out, nil
	default:
		return nil, nil
	}
}

// substitute deep-copies an argument tree, replacing every `$`-reference
// with its current binding. The original tree is never mutated.
func (e *executor) substitute(tree any) (any, error) {
	switch v := tree.(type) {
	case string:
		name, output, isRef, literal := ref.Scan(v)
		if !isRef {
			return literal, nil
		}
		return e.lookup(name, output)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			r, err := e.substitute(item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			r, err := e.substitute(item)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

func (e *executor) lookup(name, output string) (any, error) {
	if output != "" {
		outputs, ok := e.outputs[name]
		if !ok {
			return nil, fmt.Errorf("reference to step %q which has not executed yet", name)
		}
		val, ok := outputs[output]
		if !ok {
			return nil, fmt.Errorf("step %q has no bound output %q", name, output)
		}
		return val, nil
	}

	if val, ok := e.bindings[name]; ok {
		return val, nil
	}

	if si, ok := e.plan.Steps[name]; ok {
		outputs, ok := e.outputs[name]
		if !ok {
			return nil, fmt.Errorf("reference to step %q which has not executed yet", name)
		}
		if len(si.Task.OutputOrder) != 1 {
			return nil, fmt.Errorf("bare reference to step %q requires exactly one declared output", name)
		}
		val, ok := outputs[si.Task.OutputOrder[0]]
		if !ok {
			return nil, fmt.Errorf("step %q has no bound default output", name)
		}
		return val, nil
	}

	return nil, fmt.Errorf("unresolved reference %q", name)
}
