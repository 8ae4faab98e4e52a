package experiment_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/cwbudde/flowgraph/internal/issue"
	"github.com/cwbudde/flowgraph/internal/plugin"
	"github.com/cwbudde/flowgraph/pkg/experiment"
)

// TestValidFixtures runs every description under testdata/fixtures/valid
// through the full pipeline and snapshots its execution order.
// These descriptions must validate cleanly (no errors, no warnings).
func TestValidFixtures(t *testing.T) {
	for _, name := range fixtureNames(t, "valid") {
		t.Run(name, func(t *testing.T) {
			raw := loadFixture(t, "valid", name)

			desc, issues := experiment.Validate(raw)
			if len(issues) > 0 {
				t.Fatalf("expected a clean validation, got:\n%s", issue.Format(issues))
			}

			plan := desc.Plan()
			order, _, ok := plan.Graph.TopoSort()
			if !ok {
				t.Fatalf("plan graph unexpectedly contains a cycle")
			}
			snaps.MatchSnapshot(t, name+"_order", order)
		})
	}
}

// TestDiagnosticFixtures runs every description under
// testdata/fixtures/diagnostics through Validate and snapshots the
// formatted issue list. These descriptions are expected to surface at
// least one error or warning; the snapshot pins down exactly which.
func TestDiagnosticFixtures(t *testing.T) {
	for _, name := range fixtureNames(t, "diagnostics") {
		t.Run(name, func(t *testing.T) {
			raw := loadFixture(t, "diagnostics", name)

			_, issues := experiment.Validate(raw)
			if len(issues) == 0 {
				t.Fatalf("expected at least one issue, got none")
			}
			snaps.MatchSnapshot(t, name+"_issues", issue.Format(issues))
		})
	}
}

// TestRunGreetingChain exercises the Graph Executor end to end against a
// static plugin loader standing in for compiled .so plugins.
func TestRunGreetingChain(t *testing.T) {
	raw := loadFixture(t, "valid", "greeting_chain")

	desc, issues := experiment.Validate(raw)
	if issues.HasErrors() {
		t.Fatalf("unexpected validation errors:\n%s", issue.Format(issues))
	}

	loader := plugin.StaticLoader{
		"greeter.Say": func(args []any, kwargs map[string]any) (any, error) {
			greeting := args[0].(string)
			target := args[1].(string)
			return greeting + ", " + target, nil
		},
		"greeter.Shout": func(args []any, kwargs map[string]any) (any, error) {
			message := kwargs["message"].(string)
			return message + "!", nil
		},
	}

	result, err := desc.Run(nil, loader, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Failed {
		t.Fatalf("experiment unexpectedly failed: %+v", result.Outcomes)
	}

	snaps.MatchSnapshot(t, "greeting_chain_outcomes", result.Outcomes)
}

func fixtureNames(t *testing.T, subdir string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join("..", "..", "testdata", "fixtures", subdir))
	if err != nil {
		t.Fatalf("reading fixtures/%s: %v", subdir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, trimYAMLExt(e.Name()))
	}
	sort.Strings(names)
	return names
}

func loadFixture(t *testing.T, subdir, name string) any {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", "fixtures", subdir, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	raw, err := experiment.ParseYAML(data)
	if err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
	return raw
}

func trimYAMLExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
