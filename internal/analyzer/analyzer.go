// Package analyzer implements the Static Analyzer (spec §4.D): it
// combines the Schema Validator, Type System, and Reference Resolver to
// produce one ordered issue list, and — when that list contains no
// errors — a resolved Plan ready for the Graph Executor.
package analyzer

import (
	"fmt"
	"strings"

	"github.com/cwbudde/flowgraph/internal/graph"
	"github.com/cwbudde/flowgraph/internal/issue"
	"github.com/cwbudde/flowgraph/internal/ref"
	"github.com/cwbudde/flowgraph/internal/schema"
	"github.com/cwbudde/flowgraph/internal/types"
)

// ParamInfo is a parameter's schema declaration plus its resolved type.
type ParamInfo struct {
	schema.Parameter
	Type types.Type
}

// TaskInfo is a task's schema declaration plus its resolved input/output
// types.
type TaskInfo struct {
	schema.Task
	InputTypes  []types.Type
	InputIndex  map[string]int
	OutputTypes map[string]types.Type
	OutputOrder []string
}

// StepInfo is a step's schema declaration plus the task it was resolved
// against.
type StepInfo struct {
	schema.Step
	Task *TaskInfo
}

// Plan is the fully analyzed, execution-ready form of a description. It
// is only produced when the issue list returned alongside it contains no
// errors.
type Plan struct {
	Universe  *types.Universe
	Params    map[string]*ParamInfo
	Tasks     map[string]*TaskInfo
	Steps     map[string]*StepInfo
	StepOrder []string
	Graph     *graph.Graph
}

type analyzer struct {
	universe *types.Universe
	params   map[string]*ParamInfo
	tasks    map[string]*TaskInfo
	steps    map[string]*StepInfo
	graph    *graph.Graph
	resolver *ref.Resolver
	issues   issue.List
}

// Analyze runs the full A->B+C->D pipeline over a raw decoded
// description. If the Schema Validator rejects the shape outright, no
// further component runs (per spec §4.A) and Plan is nil. Otherwise all
// of B, C, and D's checks are collected into one issue list regardless of
// whether earlier ones failed, and Plan is non-nil iff that list contains
// no errors.
func Analyze(raw any) (*Plan, issue.List) {
	desc, issues := schema.Validate(raw)
	if issues.HasErrors() {
		return nil, issues
	}

	universe, typeIssues := types.BuildUniverse(desc.RawTypes)
	issues = append(issues, typeIssues...)

	a := &analyzer{
		universe: universe,
		params:   map[string]*ParamInfo{},
		tasks:    map[string]*TaskInfo{},
		steps:    map[string]*StepInfo{},
		graph:    graph.New(),
	}

	a.resolveParameters(desc.Parameters)
	a.resolveTasks(desc.Tasks)

	paramNames := make(map[string]bool, len(a.params))
	for name := range a.params {
		paramNames[name] = true
	}
	stepOutputs := make(map[string][]string, len(desc.Steps))
	for _, step := range desc.Steps {
		if ti, ok := a.tasks[step.Task]; ok {
			stepOutputs[step.Name] = ti.OutputOrder
		}
	}
	a.resolver = &ref.Resolver{Parameters: paramNames, StepOutputs: stepOutputs}

	stepOrder := a.resolveSteps(desc.Steps)
	a.checkGraphAcyclic()

	issues = append(issues, a.issues...)

	if issues.HasErrors() {
		return nil, issues
	}

	return &Plan{
		Universe:  a.universe,
		Params:    a.params,
		Tasks:     a.tasks,
		Steps:     a.steps,
		StepOrder: stepOrder,
		Graph:     a.graph,
	}, issues
}

func (a *analyzer) errf(kind issue.Kind, path, format string, args ...any) {
	a.issues = append(a.issues, issue.Errorf(kind, path, format, args...))
}

func (a *analyzer) warnf(kind issue.Kind, path, format string, args ...any) {
	a.issues = append(a.issues, issue.Warnf(kind, path, format, args...))
}

func (a *analyzer) resolveParameters(params []schema.Parameter) {
	for _, p := range params {
		path := "parameters." + p.Name
		pi := &ParamInfo{Parameter: p}
		if p.HasType {
			t, tIssues := types.ResolveExpr(a.universe, p.Type, path+".type")
			a.issues = append(a.issues, tIssues...)
			pi.Type = t
		}
		if p.HasDefault {
			inferred := types.Infer(a.universe, p.Default)
			if pi.Type != nil {
				if !types.Compatible(inferred, pi.Type) {
					a.errf(issue.KindTypeCompatibility, path, "default value type %s is not compatible with declared type %s", inferred.String(), pi.Type.String())
				}
			} else {
				pi.Type = inferred
			}
		}
		a.params[p.Name] = pi
	}
}

func (a *analyzer) resolveTasks(tasks []schema.Task) {
	for _, task := range tasks {
		path := "tasks." + task.Name
		ti := &TaskInfo{Task: task, InputIndex: map[string]int{}, OutputTypes: map[string]types.Type{}}

		seen := map[string]bool{}
		for i, in := range task.Inputs {
			if seen[in.Name] {
				a.errf(issue.KindArity, fmt.Sprintf("%s.inputs[%d]", path, i), "duplicate input name %q", in.Name)
				continue
			}
			seen[in.Name] = true
			ti.InputIndex[in.Name] = len(ti.InputTypes)
			t, tIssues := types.ResolveExpr(a.universe, in.Type, fmt.Sprintf("%s.inputs[%d].type", path, i))
			a.issues = append(a.issues, tIssues...)
			ti.InputTypes = append(ti.InputTypes, t)
		}

		seenOut := map[string]bool{}
		for i, out := range task.Outputs {
			if seenOut[out.Name] {
				a.errf(issue.KindArity, fmt.Sprintf("%s.outputs[%d]", path, i), "duplicate output name %q", out.Name)
				continue
			}
			seenOut[out.Name] = true
			ti.OutputOrder = append(ti.OutputOrder, out.Name)
			t, tIssues := types.ResolveExpr(a.universe, out.Type, fmt.Sprintf("%s.outputs[%d].type", path, i))
			a.issues = append(a.issues, tIssues...)
			ti.OutputTypes[out.Name] = t
		}

		if len(strings.Split(task.Plugin, ".")) < 2 {
			a.errf(issue.KindArity, path+".plugin", "plugin path %q must have at least two dotted components", task.Plugin)
		}

		a.tasks[task.Name] = ti
	}
}

func (a *analyzer) resolveSteps(steps []schema.Step) []string {
	order := make([]string, 0, len(steps))
	// Register every step before adding any edge, so that an edge to a
	// step declared later does not move it ahead in the tie-break order.
	for _, step := range steps {
		a.graph.AddNode(step.Name)
	}
	for _, step := range steps {
		path := "graph." + step.Name
		a.graph.AddNode(step.Name)
		order = append(order, step.Name)

		si := &StepInfo{Step: step}
		ti, ok := a.tasks[step.Task]
		if !ok {
			a.errf(issue.KindReference, path, "step references undeclared task %q", step.Task)
		} else {
			si.Task = ti
			a.checkArity(ti, step, path)
		}
		a.steps[step.Name] = si

		// A dependency naming a step declared later in the description is
		// legal; existence is checked once all steps are known, below.
		for _, dep := range step.Dependencies {
			a.graph.AddEdge(step.Name, dep)
		}

		implied := a.checkRefsAndEdges(step.Args, path+".args", step.Dependencies, step.Name, path)
		implied = append(implied, a.checkRefsAndEdges(step.Kwargs, path+".kwargs", step.Dependencies, step.Name, path)...)
		for _, dep := range implied {
			a.graph.AddEdge(step.Name, dep)
		}
	}

	// Now that every step is known, flag dependency entries naming an
	// undeclared step.
	for _, step := range steps {
		path := "graph." + step.Name + ".dependencies"
		for _, dep := range step.Dependencies {
			if _, ok := a.steps[dep]; !ok {
				a.errf(issue.KindReference, path, "dependency on undeclared step %q", dep)
			}
		}
	}

	return order
}

// checkRefsAndEdges walks an argument tree (args or kwargs), validates
// every `$`-reference it contains, and returns the step names it
// implicitly depends on (for graph edges), warning when an implied edge
// duplicates an explicit dependency.
func (a *analyzer) checkRefsAndEdges(tree any, path string, explicitDeps []string, stepName, depPath string) []string {
	if tree == nil {
		return nil
	}
	var implied []string
	seen := map[string]bool{}
	for _, occ := range ref.Collect(tree, path) {
		_, rIssues := a.resolver.Resolve(occ.Name, occ.Output, occ.Path)
		a.issues = append(a.issues, rIssues...)
		if rIssues.HasErrors() {
			continue
		}
		if _, isParam := a.params[occ.Name]; isParam && occ.Output == "" {
			continue
		}
		if seen[occ.Name] {
			continue
		}
		seen[occ.Name] = true
		implied = append(implied, occ.Name)
		if containsString(explicitDeps, occ.Name) {
			a.warnf(issue.KindRedundantDependent, depPath+".dependencies", "explicit dependency of %q on %q is already implied by a data reference", stepName, occ.Name)
		}
	}
	return implied
}

// checkArity implements spec §4.D.5's arity/type rules for the three
// invocation forms.
func (a *analyzer) checkArity(ti *TaskInfo, step schema.Step, path string) {
	switch step.Form {
	case schema.Positional:
		a.checkPositional(ti, step.Args, path)
	case schema.Keyword:
		a.checkKeyword(ti, step.Kwargs, path)
	case schema.Mixed:
		a.checkMixed(ti, step, path)
	}
}

func (a *analyzer) checkPositional(ti *TaskInfo, args []any, path string) {
	if len(args) > len(ti.InputTypes) {
		a.errf(issue.KindArity, path, "%d positional argument(s) supplied, task declares only %d input(s)", len(args), len(ti.InputTypes))
	}
	for i, arg := range args {
		if i >= len(ti.Inputs) {
			break
		}
		a.checkArgType(arg, ti.Inputs[i].Name, ti.InputTypes[i], fmt.Sprintf("%s[%d]", path, i))
	}
	for i := len(args); i < len(ti.Inputs); i++ {
		if ti.Inputs[i].Required {
			a.errf(issue.KindArity, path, "missing required input %q (positional index %d)", ti.Inputs[i].Name, i)
		}
	}
}

func (a *analyzer) checkKeyword(ti *TaskInfo, kwargs map[string]any, path string) {
	for key, val := range kwargs {
		idx, ok := ti.InputIndex[key]
		if !ok {
			a.errf(issue.KindArity, path+"."+key, "no such input %q", key)
			continue
		}
		a.checkArgType(val, ti.Inputs[idx].Name, ti.InputTypes[idx], path+"."+key)
	}
	for _, in := range ti.Inputs {
		if !in.Required {
			continue
		}
		if _, ok := kwargs[in.Name]; !ok {
			a.errf(issue.KindArity, path, "missing required input %q", in.Name)
		}
	}
}

func (a *analyzer) checkMixed(ti *TaskInfo, step schema.Step, path string) {
	if len(step.Args) > len(ti.InputTypes) {
		a.errf(issue.KindArity, path+".args", "%d positional argument(s) supplied, task declares only %d input(s)", len(step.Args), len(ti.InputTypes))
	}
	filled := map[string]bool{}
	for i, arg := range step.Args {
		if i >= len(ti.Inputs) {
			break
		}
		filled[ti.Inputs[i].Name] = true
		a.checkArgType(arg, ti.Inputs[i].Name, ti.InputTypes[i], fmt.Sprintf("%s.args[%d]", path, i))
	}
	for key, val := range step.Kwargs {
		idx, ok := ti.InputIndex[key]
		if !ok {
			a.errf(issue.KindArity, path+".kwargs."+key, "no such input %q", key)
			continue
		}
		if filled[key] {
			a.errf(issue.KindArity, path+".kwargs."+key, "input %q supplied both positionally and by keyword", key)
			continue
		}
		filled[key] = true
		a.checkArgType(val, ti.Inputs[idx].Name, ti.InputTypes[idx], path+".kwargs."+key)
	}
	for _, in := range ti.Inputs {
		if in.Required && !filled[in.Name] {
			a.errf(issue.KindArity, path, "missing required input %q", in.Name)
		}
	}
}

// checkArgType validates one argument's type against its declared input
// type, resolving `$`-references to the declared type of the parameter
// or step output they point to when possible.
func (a *analyzer) checkArgType(arg any, inputName string, declared types.Type, path string) {
	if declared == nil {
		return
	}
	argType, ok := a.argType(arg, path)
	if !ok {
		return
	}
	if !types.Compatible(argType, declared) {
		a.errf(issue.KindTypeCompatibility, path, "argument for input %q has type %s, not compatible with declared type %s", inputName, argType.String(), declared.String())
	}
}

// argType infers the static type of an argument value, resolving a
// `$`-reference to its source's declared type. ok is false when the type
// cannot be determined statically (e.g. a reference whose resolution
// already failed, or a reference to an untyped output).
func (a *analyzer) argType(v any, path string) (types.Type, bool) {
	if s, ok := v.(string); ok {
		if name, output, isRef, _ := ref.Scan(s); isRef {
			if output != "" {
				ti, ok := a.tasks[a.taskForStep(name)]
				if !ok {
					return nil, false
				}
				t, ok := ti.OutputTypes[output]
				return t, ok && t != nil
			}
			if p, ok := a.params[name]; ok {
				return p.Type, p.Type != nil
			}
			if ti, ok := a.tasks[a.taskForStep(name)]; ok && len(ti.OutputOrder) == 1 {
				t := ti.OutputTypes[ti.OutputOrder[0]]
				return t, t != nil
			}
			return nil, false
		}
	}
	return types.Infer(a.universe, v), true
}

// taskForStep returns the name of the task a step resolves to, or "" if
// the step is unknown or (schema-valid but) references an undeclared
// task, in which case resolveSteps already recorded a KindReference
// issue and left si.Task nil.
func (a *analyzer) taskForStep(stepName string) string {
	si, ok := a.steps[stepName]
	if !ok || si.Task == nil {
		return ""
	}
	return si.Task.Name
}

func (a *analyzer) checkGraphAcyclic() {
	_, remaining, ok := a.graph.TopoSort()
	if !ok {
		a.errf(issue.KindGraph, "graph", "cycle detected among steps: %s", strings.Join(remaining, ", "))
	}
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
