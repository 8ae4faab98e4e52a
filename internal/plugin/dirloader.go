package plugin

import (
	"fmt"
	"path/filepath"
	"plugin"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// DirLoader resolves dotted plugin paths against a directory of
// `.so` files built with `go build -buildmode=plugin`, per spec §6.3: the
// prefix (all but the last dotted component) names the module (and hence
// the file, <module>.so, under Dir); the last component names an exported
// function within it whose signature is that of Func. A variable declared
// with type Func is not accepted.
//
// No ecosystem library in the example pack offers dynamic native-code
// loading by dotted path; the standard library's plugin package is the
// only mechanism that can satisfy this contract on a directory the
// worker controls, so it is used directly at this system boundary.
type DirLoader struct {
	Dir string

	mu     sync.Mutex
	opened map[string]*plugin.Plugin
}

// NewDirLoader returns a loader rooted at dir.
func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{Dir: dir, opened: map[string]*plugin.Plugin{}}
}

// Load implements Loader.
func (d *DirLoader) Load(path string) (Func, error) {
	parts := strings.Split(path, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("plugin: path %q must have at least two dotted components", path)
	}
	module := strings.Join(parts[:len(parts)-1], ".")
	symbol := parts[len(parts)-1]

	p, err := d.open(module)
	if err != nil {
		return nil, fmt.Errorf("plugin: opening module %q: %w", module, err)
	}

	sym, err := p.Lookup(exportedName(symbol))
	if err != nil {
		return nil, fmt.Errorf("plugin: looking up %q in module %q: %w", symbol, module, err)
	}

	fn, ok := sym.(func([]any, map[string]any) (any, error))
	if !ok {
		return nil, fmt.Errorf("plugin: symbol %q in module %q has the wrong signature", symbol, module)
	}

	return Func(fn), nil
}

func (d *DirLoader) open(module string) (*plugin.Plugin, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.opened[module]; ok {
		return p, nil
	}
	p, err := plugin.Open(filepath.Join(d.Dir, module+".so"))
	if err != nil {
		return nil, err
	}
	d.opened[module] = p
	return p, nil
}

// exportedName upper-cases the first rune of a plugin-declared function
// name, since Go plugin symbols must be exported identifiers even though
// the engine's own dotted paths are lowercase by convention.
func exportedName(name string) string {
	if name == "" {
		return name
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}
