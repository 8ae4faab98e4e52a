// Package schema implements the Schema Validator (spec §4.A): it checks
// the raw experiment description against a fixed structural shape before
// any type or dataflow analysis runs, and disambiguates the three step
// invocation forms (positional, keyword, mixed). A schema failure is
// fatal — the Type System, Reference Resolver, and Static Analyzer never
// run against a description that fails this gate.
package schema

import (
	"fmt"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/cwbudde/flowgraph/internal/issue"
)

// Form tags how a step invokes its task.
type Form int

const (
	Positional Form = iota
	Keyword
	Mixed
)

// Parameter is a parsed (but not yet type-resolved) global parameter
// declaration.
type Parameter struct {
	Name       string
	Type       any // raw typeExpr, nil if undeclared
	HasType    bool
	Default    any
	HasDefault bool
}

// TaskInput is a parsed task input declaration.
type TaskInput struct {
	Name     string
	Type     any
	Required bool
}

// TaskOutput is a parsed task output declaration.
type TaskOutput struct {
	Name string
	Type any
}

// OutputForm tags whether a task's outputs bind to the step name directly
// (single form) or positionally unpack a returned iterable (list form).
type OutputForm int

const (
	NoOutputs OutputForm = iota
	SingleOutput
	ListOutputs
)

// Task is a parsed task definition.
type Task struct {
	Name       string
	Plugin     string
	Inputs     []TaskInput
	Outputs    []TaskOutput
	OutputForm OutputForm
}

// Step is a parsed step invocation, in whichever of the three forms the
// description used.
type Step struct {
	Name         string
	Form         Form
	Task         string
	Args         []any
	Kwargs       map[string]any
	Dependencies []string
}

// Description is the shape-validated experiment description, ready for
// type-universe construction, reference resolution, and static analysis.
// Task and Step order is preserved exactly as declared: the executor's
// first-appearance tie-break depends on it.
type Description struct {
	RawTypes   any
	Parameters []Parameter
	Tasks      []Task
	Steps      []Step
}

// Validate checks the raw decoded description (as produced by a YAML or
// JSON decode, or any equivalent in-memory structure) against the fixed
// shape of spec §3/§4.A and returns the parsed Description together with
// any shape issues found. Callers must treat any error-severity issue as
// fatal: do not proceed to type/reference/graph analysis.
func Validate(raw any) (*Description, issue.List) {
	var issues issue.List

	top, ok := asMap(raw)
	if !ok {
		issues = append(issues, issue.Errorf(issue.KindSchema, "", "top-level description must be a mapping"))
		return nil, issues
	}

	desc := &Description{}

	if t, ok := top["types"]; ok {
		desc.RawTypes = denormalize(t)
	}

	if p, ok := top["parameters"]; ok {
		desc.Parameters = parseParameters(p, &issues)
	}

	tasksRaw, ok := top["tasks"]
	if !ok {
		issues = append(issues, issue.Errorf(issue.KindSchema, "tasks", "`tasks` is required"))
	} else {
		desc.Tasks = parseTasks(tasksRaw, &issues)
		if len(desc.Tasks) == 0 {
			issues = append(issues, issue.Errorf(issue.KindSchema, "tasks", "`tasks` must be non-empty"))
		}
	}

	graphRaw, ok := top["graph"]
	if !ok {
		issues = append(issues, issue.Errorf(issue.KindSchema, "graph", "`graph` is required"))
	} else {
		desc.Steps = parseSteps(graphRaw, &issues)
		if len(desc.Steps) == 0 {
			issues = append(issues, issue.Errorf(issue.KindSchema, "graph", "`graph` must be non-empty"))
		}
	}

	return desc, issues
}

func parseParameters(raw any, issues *issue.List) []Parameter {
	m, ok := asMap(raw)
	if !ok {
		*issues = append(*issues, issue.Errorf(issue.KindSchema, "parameters", "`parameters` must be a mapping"))
		return nil
	}
	names := declarationOrder(raw, m)
	out := make([]Parameter, 0, len(names))
	for _, name := range names {
		entry, ok := asMap(m[name])
		if !ok {
			*issues = append(*issues, issue.Errorf(issue.KindSchema, "parameters."+name, "parameter definition must be a mapping"))
			continue
		}
		p := Parameter{Name: name}
		if t, ok := entry["type"]; ok {
			p.Type, p.HasType = denormalize(t), true
		}
		if d, ok := entry["default"]; ok {
			p.Default, p.HasDefault = denormalize(d), true
		}
		if !p.HasType && !p.HasDefault {
			*issues = append(*issues, issue.Errorf(issue.KindSchema, "parameters."+name, "parameter %q must declare a type or a default", name))
		}
		out = append(out, p)
	}
	return out
}

func parseTasks(raw any, issues *issue.List) []Task {
	m, ok := asMap(raw)
	if !ok {
		*issues = append(*issues, issue.Errorf(issue.KindSchema, "tasks", "`tasks` must be a mapping"))
		return nil
	}
	names := declarationOrder(raw, m)
	out := make([]Task, 0, len(names))
	for _, name := range names {
		entry, ok := asMap(m[name])
		if !ok {
			*issues = append(*issues, issue.Errorf(issue.KindSchema, "tasks."+name, "task definition must be a mapping"))
			continue
		}
		path := "tasks." + name
		task := Task{Name: name}

		plugin, _ := entry["plugin"].(string)
		task.Plugin = plugin

		if inputsRaw, ok := entry["inputs"]; ok {
			task.Inputs = parseInputs(inputsRaw, path+".inputs", issues)
		}

		if outputsRaw, ok := entry["outputs"]; ok {
			task.Outputs, task.OutputForm = parseOutputs(outputsRaw, path+".outputs", issues)
		}

		out = append(out, task)
	}
	return out
}

func parseInputs(raw any, path string, issues *issue.List) []TaskInput {
	seq, ok := raw.([]any)
	if !ok {
		*issues = append(*issues, issue.Errorf(issue.KindSchema, path, "`inputs` must be an ordered sequence"))
		return nil
	}
	out := make([]TaskInput, 0, len(seq))
	for i, item := range seq {
		entry, ok := asMap(item)
		if !ok {
			*issues = append(*issues, issue.Errorf(issue.KindSchema, fmt.Sprintf("%s[%d]", path, i), "input declaration must be a mapping"))
			continue
		}
		name, _ := entry["name"].(string)
		input := TaskInput{Name: name, Type: denormalize(entry["type"]), Required: true}
		if req, ok := entry["required"]; ok {
			if b, ok := req.(bool); ok {
				input.Required = b
			}
		}
		out = append(out, input)
	}
	return out
}

// parseOutputs handles both the single (name -> type) mapping form and the
// ordered-sequence list form.
func parseOutputs(raw any, path string, issues *issue.List) ([]TaskOutput, OutputForm) {
	switch v := raw.(type) {
	case []any:
		out := make([]TaskOutput, 0, len(v))
		for i, item := range v {
			entry, ok := asMap(item)
			if !ok {
				*issues = append(*issues, issue.Errorf(issue.KindSchema, fmt.Sprintf("%s[%d]", path, i), "output declaration must be a mapping"))
				continue
			}
			name, _ := entry["name"].(string)
			out = append(out, TaskOutput{Name: name, Type: denormalize(entry["type"])})
		}
		return out, ListOutputs
	default:
		m, ok := asMap(raw)
		if !ok {
			*issues = append(*issues, issue.Errorf(issue.KindSchema, path, "`outputs` must be a single name/type mapping or an ordered sequence"))
			return nil, NoOutputs
		}
		names := declarationOrder(raw, m)
		if len(names) != 1 {
			*issues = append(*issues, issue.Errorf(issue.KindSchema, path, "single-form `outputs` must declare exactly one name/type pair"))
		}
		out := make([]TaskOutput, 0, len(names))
		for _, name := range names {
			out = append(out, TaskOutput{Name: name, Type: denormalize(m[name])})
		}
		return out, SingleOutput
	}
}

func parseSteps(raw any, issues *issue.List) []Step {
	m, ok := asMap(raw)
	if !ok {
		*issues = append(*issues, issue.Errorf(issue.KindSchema, "graph", "`graph` must be a mapping"))
		return nil
	}
	names := declarationOrder(raw, m)
	out := make([]Step, 0, len(names))
	for _, name := range names {
		path := "graph." + name
		stepDef, ok := asMap(m[name])
		if !ok {
			*issues = append(*issues, issue.Errorf(issue.KindSchema, path, "step definition must be a mapping"))
			continue
		}
		step, ok := parseStep(name, stepDef, path, issues)
		if ok {
			out = append(out, step)
		}
	}
	return out
}

func parseStep(name string, stepDef map[string]any, path string, issues *issue.List) (Step, bool) {
	step := Step{Name: name}

	if deps, ok := stepDef["dependencies"]; ok {
		step.Dependencies = parseDependencies(deps, path, issues)
	}

	if taskName, ok := stepDef["task"]; ok {
		// Mixed form: explicit `task` key, plus optional `args`/`kwargs`.
		step.Form = Mixed
		taskStr, ok := taskName.(string)
		if !ok {
			*issues = append(*issues, issue.Errorf(issue.KindSchema, path+".task", "`task` must be a string"))
			return step, false
		}
		step.Task = taskStr
		if args, ok := stepDef["args"]; ok {
			seq, ok := args.([]any)
			if !ok {
				*issues = append(*issues, issue.Errorf(issue.KindSchema, path+".args", "`args` must be an ordered sequence"))
			} else {
				step.Args = denormalizeSlice(seq)
			}
		}
		if kwargs, ok := stepDef["kwargs"]; ok {
			m, ok := asMap(kwargs)
			if !ok {
				*issues = append(*issues, issue.Errorf(issue.KindSchema, path+".kwargs", "`kwargs` must be a mapping"))
			} else {
				step.Kwargs = denormalizeMap(m)
			}
		}
		return step, true
	}

	// Positional or keyword form: exactly one remaining key names the task.
	var taskKeys []string
	for k := range stepDef {
		if k == "dependencies" {
			continue
		}
		taskKeys = append(taskKeys, k)
	}
	sort.Strings(taskKeys)

	if len(taskKeys) != 1 {
		*issues = append(*issues, issue.Errorf(issue.KindSchema, path, "step must map to exactly one task short name, or use the `task` key for mixed form"))
		return step, false
	}

	step.Task = taskKeys[0]
	argsValue := stepDef[step.Task]

	switch v := argsValue.(type) {
	case []any:
		step.Form = Positional
		step.Args = denormalizeSlice(v)
	default:
		if m, ok := asMap(argsValue); ok {
			step.Form = Keyword
			step.Kwargs = denormalizeMap(m)
		} else if v == nil {
			step.Form = Positional
			step.Args = nil
		} else {
			step.Form = Positional
			step.Args = []any{denormalize(v)}
		}
	}

	return step, true
}

func parseDependencies(raw any, path string, issues *issue.List) []string {
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				*issues = append(*issues, issue.Errorf(issue.KindSchema, fmt.Sprintf("%s.dependencies[%d]", path, i), "dependency entries must be strings"))
				continue
			}
			out = append(out, s)
		}
		return out
	default:
		*issues = append(*issues, issue.Errorf(issue.KindSchema, path+".dependencies", "`dependencies` must be a string or a list of strings"))
		return nil
	}
}

// asMap converts any supported decoded mapping representation into a
// map[string]any, one level deep only: goccy/go-yaml's order-preserving
// yaml.MapSlice (produced when the description is decoded with
// yaml.UseOrderedMap), a plain map[any]any (a YAML-v2-style decode), or a
// map[string]any already in the expected shape (hand-built descriptions
// in tests). Nested values are returned exactly as the decoder produced
// them — still a yaml.MapSlice where the source had a nested mapping —
// so that declarationOrder can still recover their declaration order one
// level further down. Callers that are done navigating structure and are
// about to hand a value to the type system, reference resolver, or
// executor must call denormalize on it first.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, vv := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = vv
		}
		return out, true
	case yaml.MapSlice:
		out := make(map[string]any, len(m))
		for _, item := range m {
			ks, ok := item.Key.(string)
			if !ok {
				return nil, false
			}
			out[ks] = item.Value
		}
		return out, true
	default:
		return nil, false
	}
}

// denormalizeMap applies denormalize to every value of an already
// shallow-flattened map, returning a map[string]any with no remaining
// yaml.MapSlice anywhere beneath it.
func denormalizeMap(m map[string]any) map[string]any {
	out, _ := denormalize(m).(map[string]any)
	return out
}

// denormalizeSlice is denormalizeMap's counterpart for sequences.
func denormalizeSlice(s []any) []any {
	out, _ := denormalize(s).([]any)
	return out
}

// denormalize recursively converts goccy/go-yaml's ordered yaml.MapSlice
// nodes (and, defensively, map[any]any nodes) into the plain
// map[string]any / []any / scalar tree every other package in this
// module expects. Declaration order is only meaningful at the few points
// declarationOrder captures it explicitly; once a value is headed into
// the type system, reference resolver, or executor, only its content
// matters.
func denormalize(v any) any {
	switch val := v.(type) {
	case yaml.MapSlice:
		out := make(map[string]any, len(val))
		for _, item := range val {
			if k, ok := item.Key.(string); ok {
				out[k] = denormalize(item.Value)
			}
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			if ks, ok := k.(string); ok {
				out[ks] = denormalize(vv)
			}
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[k] = denormalize(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = denormalize(vv)
		}
		return out
	default:
		return val
	}
}

// declarationOrder returns a mapping's keys in the order they were
// declared: the true source order when v is a yaml.MapSlice (a
// yaml.UseOrderedMap decode), or a sorted fallback when v is a plain Go
// map with no order of its own to recover (hand-built descriptions, as
// used throughout this package's tests). spec's first-appearance
// tie-break for parameters, tasks, and steps depends on this reflecting
// real source order whenever one is available.
func declarationOrder(v any, m map[string]any) []string {
	if ms, ok := v.(yaml.MapSlice); ok {
		out := make([]string, 0, len(ms))
		for _, item := range ms {
			if k, ok := item.Key.(string); ok {
				out = append(out, k)
			}
		}
		return out
	}
	return sortedKeys(m)
}

func sortedKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
