package ref

import "testing"

func TestScan(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantRef    bool
		wantName   string
		wantOutput string
		wantLit    string
	}{
		{"bare name", "$greeting", true, "greeting", "", ""},
		{"step.output", "$fetch.body", true, "fetch", "body", ""},
		{"escaped dollar", "$$5", false, "", "", "$5"},
		{"not a reference", "hello", false, "", "", "hello"},
		{"dollar mid-string is literal", "a$b", false, "", "", "a$b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, output, isRef, lit := Scan(tt.in)
			if isRef != tt.wantRef {
				t.Fatalf("isRef = %v, want %v", isRef, tt.wantRef)
			}
			if isRef {
				if name != tt.wantName || output != tt.wantOutput {
					t.Errorf("got (%q, %q), want (%q, %q)", name, output, tt.wantName, tt.wantOutput)
				}
			} else if lit != tt.wantLit {
				t.Errorf("literal = %q, want %q", lit, tt.wantLit)
			}
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	r := &Resolver{
		Parameters: map[string]bool{"greeting": true},
		StepOutputs: map[string][]string{
			"fetch":  {"body"},
			"single": {"value"},
			"multi":  {"a", "b"},
		},
	}

	if ref, issues := r.Resolve("greeting", "", "p"); issues != nil || ref.Kind != Parameter {
		t.Errorf("expected parameter resolution, got %+v, %v", ref, issues)
	}

	if ref, issues := r.Resolve("single", "", "p"); issues != nil || ref.Kind != DefaultOutput || ref.Output != "value" {
		t.Errorf("expected default-output resolution, got %+v, %v", ref, issues)
	}

	if _, issues := r.Resolve("multi", "", "p"); !issues.HasErrors() {
		t.Errorf("expected error: bare reference to a multi-output step is ambiguous")
	}

	if ref, issues := r.Resolve("fetch", "body", "p"); issues != nil || ref.Kind != NamedOutput {
		t.Errorf("expected named-output resolution, got %+v, %v", ref, issues)
	}

	if _, issues := r.Resolve("fetch", "nope", "p"); !issues.HasErrors() {
		t.Errorf("expected error: no such output")
	}

	if _, issues := r.Resolve("ghost", "", "p"); !issues.HasErrors() {
		t.Errorf("expected error: undeclared name")
	}
}

func TestCollect(t *testing.T) {
	tree := map[string]any{
		"a": "$greeting",
		"b": []any{"$fetch.body", "literal"},
	}
	occs := Collect(tree, "step")
	if len(occs) != 2 {
		t.Fatalf("expected 2 occurrences, got %d: %+v", len(occs), occs)
	}
}
