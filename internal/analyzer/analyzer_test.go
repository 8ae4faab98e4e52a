package analyzer

import "testing"

func validDescription() map[string]any {
	return map[string]any{
		"parameters": map[string]any{
			"greeting": map[string]any{"default": "hello"},
		},
		"tasks": map[string]any{
			"sayHello": map[string]any{
				"plugin": "greeter.say",
				"inputs": []any{
					map[string]any{"name": "text", "type": "string"},
				},
				"outputs": map[string]any{"message": "string"},
			},
		},
		"graph": map[string]any{
			"step1": map[string]any{"sayHello": []any{"$greeting"}},
			"step2": map[string]any{"sayHello": []any{"$step1"}},
		},
	}
}

func TestAnalyze_Valid(t *testing.T) {
	plan, issues := Analyze(validDescription())
	if issues.HasErrors() {
		t.Fatalf("unexpected errors: %v", issues)
	}
	if plan == nil {
		t.Fatal("expected a plan")
	}
	order, _, ok := plan.Graph.TopoSort()
	if !ok {
		t.Fatalf("expected acyclic graph")
	}
	if len(order) != 2 || order[0] != "step1" || order[1] != "step2" {
		t.Errorf("order = %v, want [step1 step2]", order)
	}
}

func TestAnalyze_SchemaFailureIsFatal(t *testing.T) {
	plan, issues := Analyze(map[string]any{})
	if !issues.HasErrors() {
		t.Fatalf("expected schema errors for missing tasks/graph")
	}
	if plan != nil {
		t.Fatalf("expected no plan on schema failure")
	}
}

func TestAnalyze_UndeclaredTaskReference(t *testing.T) {
	desc := validDescription()
	graphMap := desc["graph"].(map[string]any)
	graphMap["step3"] = map[string]any{"ghost": []any{}}
	_, issues := Analyze(desc)
	if !issues.HasErrors() {
		t.Fatalf("expected an error for a step referencing an undeclared task")
	}
}

func TestAnalyze_CycleDetected(t *testing.T) {
	desc := validDescription()
	graphMap := desc["graph"].(map[string]any)
	graphMap["step1"] = map[string]any{"sayHello": []any{"$step2"}, "dependencies": "step2"}
	_, issues := Analyze(desc)
	if !issues.HasErrors() {
		t.Fatalf("expected a cycle error")
	}
}

func TestAnalyze_RedundantDependencyWarning(t *testing.T) {
	desc := validDescription()
	graphMap := desc["graph"].(map[string]any)
	step2 := graphMap["step2"].(map[string]any)
	step2["dependencies"] = "step1"
	_, issues := Analyze(desc)
	if issues.HasErrors() {
		t.Fatalf("unexpected errors: %v", issues)
	}
	if len(issues.Warnings()) == 0 {
		t.Errorf("expected a warning for a dependency already implied by a data reference")
	}
}

func TestAnalyze_MissingRequiredInput(t *testing.T) {
	desc := validDescription()
	tasks := desc["tasks"].(map[string]any)
	sayHello := tasks["sayHello"].(map[string]any)
	sayHello["inputs"] = []any{
		map[string]any{"name": "text", "type": "string"},
		map[string]any{"name": "extra", "type": "string", "required": true},
	}
	_, issues := Analyze(desc)
	if !issues.HasErrors() {
		t.Fatalf("expected a missing-required-input error")
	}
}
