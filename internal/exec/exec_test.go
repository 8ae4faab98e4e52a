package exec

import (
	"errors"
	"testing"

	"github.com/cwbudde/flowgraph/internal/analyzer"
	"github.com/cwbudde/flowgraph/internal/plugin"
)

func plan(t *testing.T) *analyzer.Plan {
	t.Helper()
	desc := map[string]any{
		"parameters": map[string]any{
			"name": map[string]any{"default": "world"},
		},
		"tasks": map[string]any{
			"greet": map[string]any{
				"plugin":  "greeter.say",
				"inputs":  []any{map[string]any{"name": "name", "type": "string"}},
				"outputs": map[string]any{"message": "string"},
			},
		},
		"graph": map[string]any{
			"step1": map[string]any{"greet": []any{"$name"}},
			"step2": map[string]any{"greet": []any{"$step1"}},
		},
	}
	p, issues := analyzer.Analyze(desc)
	if issues.HasErrors() {
		t.Fatalf("unexpected analysis errors: %v", issues)
	}
	return p
}

func TestRun_Success(t *testing.T) {
	p := plan(t)
	loader := plugin.StaticLoader{
		"greeter.say": func(args []any, kwargs map[string]any) (any, error) {
			return "hello, " + args[0].(string), nil
		},
	}
	result, err := Run(p, nil, loader, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Failed {
		t.Fatalf("expected success, got %+v", result.Outcomes)
	}
	if len(result.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(result.Outcomes))
	}
	if result.Outcomes[0].Outputs["message"] != "hello, world" {
		t.Errorf("step1 output = %v, want %q", result.Outcomes[0].Outputs["message"], "hello, world")
	}
	if result.Outcomes[1].Outputs["message"] != "hello, hello, world" {
		t.Errorf("step2 output = %v, want chained greeting", result.Outcomes[1].Outputs["message"])
	}
}

func TestRun_PluginFailureStopsExecution(t *testing.T) {
	p := plan(t)
	loader := plugin.StaticLoader{
		"greeter.say": func(args []any, kwargs map[string]any) (any, error) {
			return nil, errors.New("boom")
		},
	}
	result, err := Run(p, nil, loader, nil)
	if err != nil {
		t.Fatalf("unexpected engine error: %v", err)
	}
	if !result.Failed {
		t.Fatalf("expected failure")
	}
	if len(result.Outcomes) != 1 {
		t.Fatalf("expected execution to stop after the first failing step, got %d outcomes", len(result.Outcomes))
	}
}

func TestRun_MissingParameterIsFatal(t *testing.T) {
	desc := map[string]any{
		"parameters": map[string]any{
			"required": map[string]any{"type": "string"},
		},
		"tasks": map[string]any{
			"greet": map[string]any{
				"plugin": "greeter.say",
				"inputs": []any{map[string]any{"name": "name", "type": "string"}},
			},
		},
		"graph": map[string]any{
			"step1": map[string]any{"greet": []any{"$required"}},
		},
	}
	p, issues := analyzer.Analyze(desc)
	if issues.HasErrors() {
		t.Fatalf("unexpected analysis errors: %v", issues)
	}
	_, err := Run(p, nil, plugin.StaticLoader{}, nil)
	if err == nil {
		t.Fatalf("expected a fatal error for a missing required parameter")
	}
}
