// Package plugin implements the worker-supplied plugin loader contract
// (spec §6.3): given a dotted path, return an invokable function. The
// engine's only hard requirement on the loader is that contract — the
// concrete mechanism is ecosystem-specific, so this package provides two
// implementations: a directory-backed loader using the standard library's
// native plugin support, and a static in-memory loader for tests and for
// embedding callers that already hold Go function values.
package plugin

import (
	"fmt"
)

// Func is an invokable task plugin. Positional arguments, keyword
// arguments, or both are supplied depending on the step's invocation
// form; an unused side is nil/empty. The return value must be a scalar,
// a slice, or a string-keyed map — a value in the same universe as
// arguments (spec §6.3) — or an error.
type Func func(args []any, kwargs map[string]any) (any, error)

// Loader resolves a dotted plugin path (e.g. "greeter.say_hello") to an
// invokable function.
type Loader interface {
	Load(path string) (Func, error)
}

// StaticLoader is an in-memory Loader keyed by exact dotted path. It is
// the loader used by tests and by callers embedding the engine with
// plugins already expressed as Go functions — no filesystem or native
// plugin build step involved.
type StaticLoader map[string]Func

// Load implements Loader.
func (s StaticLoader) Load(path string) (Func, error) {
	fn, ok := s[path]
	if !ok {
		return nil, fmt.Errorf("plugin: no function registered at %q", path)
	}
	return fn, nil
}
