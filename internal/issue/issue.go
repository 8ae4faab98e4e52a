// Package issue defines the tagged-sum diagnostic model shared by every
// validation and execution component: one Issue type, one Severity, and a
// closed set of Kinds, rather than a class hierarchy of error types.
package issue

import (
	"fmt"
	"strings"
)

// Severity distinguishes issues that block execution from those that are
// merely reported.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Kind is the closed taxonomy from the error handling design: every Issue
// carries exactly one of these, never a subclass.
type Kind string

const (
	KindSchema             Kind = "schema"
	KindTypeUniverse       Kind = "type_universe"
	KindTypeCompatibility  Kind = "type_compatibility"
	KindReference          Kind = "reference"
	KindGraph              Kind = "graph"
	KindArity              Kind = "arity"
	KindMissingParameter   Kind = "missing_parameter"
	KindExecution          Kind = "execution"
	KindRedundantDependent Kind = "redundant_dependency" // warning-only, never fatal
)

// Issue is a single diagnostic. Path is a dotted locator into the
// description tree (e.g. "tasks.t1.inputs[0]" or "graph.step1.args.greeting"),
// the analog of the teacher compiler's line:column. Step and Plugin are set
// only for diagnostics tied to a specific step invocation.
type Issue struct {
	Severity Severity
	Kind     Kind
	Message  string
	Path     string
	Step     string
	Plugin   string
}

// Error implements the error interface so an Issue can be returned or
// wrapped anywhere plain Go errors are expected.
func (i Issue) Error() string {
	var sb strings.Builder
	sb.WriteString(string(i.Kind))
	if i.Path != "" {
		sb.WriteString(" at ")
		sb.WriteString(i.Path)
	}
	sb.WriteString(": ")
	sb.WriteString(i.Message)
	return sb.String()
}

func newf(sev Severity, kind Kind, path, format string, args ...any) Issue {
	return Issue{Severity: sev, Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)}
}

// Errorf builds an error-severity Issue of the given kind.
func Errorf(kind Kind, path, format string, args ...any) Issue {
	return newf(Error, kind, path, format, args...)
}

// Warnf builds a warning-severity Issue of the given kind.
func Warnf(kind Kind, path, format string, args ...any) Issue {
	return newf(Warning, kind, path, format, args...)
}

// List is an ordered batch of issues, as returned by the static analyzer.
type List []Issue

// HasErrors reports whether any issue in the list is error-severity.
// Execution is gated on this returning false.
func (l List) HasErrors() bool {
	for _, i := range l {
		if i.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns the error-severity subset, preserving order.
func (l List) Errors() List {
	out := make(List, 0, len(l))
	for _, i := range l {
		if i.Severity == Error {
			out = append(out, i)
		}
	}
	return out
}

// Warnings returns the warning-severity subset, preserving order.
func (l List) Warnings() List {
	out := make(List, 0, len(l))
	for _, i := range l {
		if i.Severity == Warning {
			out = append(out, i)
		}
	}
	return out
}
