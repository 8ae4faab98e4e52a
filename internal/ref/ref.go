// Package ref implements the Reference Resolver (spec §4.C): scanning
// `$NAME` / `$STEP.OUTPUT` reference syntax out of argument trees and
// resolving each occurrence against the declared parameters and step
// outputs of a description.
package ref

import (
	"strings"

	"github.com/cwbudde/flowgraph/internal/issue"
)

// Kind tags what a Ref resolves to.
type Kind int

const (
	// Parameter reference: $NAME where NAME is a declared parameter.
	Parameter Kind = iota
	// DefaultOutput reference: $NAME where NAME is a step name whose task
	// declares exactly one output.
	DefaultOutput
	// NamedOutput reference: $STEP.OUTPUT.
	NamedOutput
)

// Ref is one resolved `$`-reference.
type Ref struct {
	Kind   Kind
	Name   string // parameter name, or step name
	Output string // output name, set only for NamedOutput
}

// Scan inspects a string value and reports whether it is (wholly) a
// reference, per spec §4.C: a reference occupies the entire string value
// (there is no sub-string interpolation), starting with an unescaped `$`.
// A leading `$$` is the escape for a literal `$` and is not a reference.
// If v is a reference, Scan returns its name, its output (empty for a bare
// $NAME) and isRef true; otherwise isRef is false and literal holds the
// unescaped text.
func Scan(v string) (name string, output string, isRef bool, literal string) {
	if !strings.HasPrefix(v, "$") {
		return "", "", false, v
	}
	if strings.HasPrefix(v, "$$") {
		return "", "", false, "$" + v[2:]
	}
	body := v[1:]
	if dot := strings.IndexByte(body, '.'); dot >= 0 {
		return body[:dot], body[dot+1:], true, ""
	}
	return body, "", true, ""
}

// Resolver resolves scanned reference names against a description's
// declared parameters and task outputs.
type Resolver struct {
	// Parameters is the set of declared parameter names.
	Parameters map[string]bool
	// StepOutputs maps step name to its task's declared output names, in
	// declaration order. A step whose task declares no outputs is present
	// with a nil/empty slice (still a valid step, simply not referenceable
	// without error being raised at the point of reference).
	StepOutputs map[string][]string
}

// Resolve resolves one scanned `$NAME` or `$STEP.OUTPUT` occurrence found
// at path. It reports a ReferenceError issue for any name that isn't a
// declared parameter or step, any STEP.OUTPUT pair where OUTPUT isn't one
// of that step's declared outputs, or any bare $NAME naming a step whose
// task does not declare exactly one output.
func (r *Resolver) Resolve(name, output, path string) (Ref, issue.List) {
	if output != "" {
		outputs, ok := r.StepOutputs[name]
		if !ok {
			return Ref{}, issue.List{issue.Errorf(issue.KindReference, path, "reference to undeclared step %q", name)}
		}
		if !containsString(outputs, output) {
			return Ref{}, issue.List{issue.Errorf(issue.KindReference, path, "step %q has no output %q", name, output)}
		}
		return Ref{Kind: NamedOutput, Name: name, Output: output}, nil
	}

	if r.Parameters[name] {
		return Ref{Kind: Parameter, Name: name}, nil
	}

	outputs, ok := r.StepOutputs[name]
	if !ok {
		return Ref{}, issue.List{issue.Errorf(issue.KindReference, path, "reference to undeclared parameter or step %q", name)}
	}
	if len(outputs) != 1 {
		return Ref{}, issue.List{issue.Errorf(issue.KindReference, path, "bare reference to step %q requires its task to declare exactly one output, it declares %d", name, len(outputs))}
	}
	return Ref{Kind: DefaultOutput, Name: name, Output: outputs[0]}, nil
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
