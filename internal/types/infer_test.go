package types

import "testing"

func TestInfer_Scalars(t *testing.T) {
	u := &Universe{named: Builtins()}

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", "string"},
		{"integer literal", 1, "integer"},
		{"number literal with fraction", 1.0, "number"},
		{"boolean", true, "boolean"},
		{"null", nil, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Infer(u, tt.in)
			if got.String() != tt.want {
				t.Errorf("Infer(%#v) = %s, want %s", tt.in, got.String(), tt.want)
			}
		})
	}
}

func TestInfer_EmptyMapping(t *testing.T) {
	u := &Universe{named: Builtins()}
	got := Infer(u, map[string]any{})
	em, ok := got.(*EnumMap)
	if !ok || len(em.Properties) != 0 {
		t.Errorf("Infer(empty map) = %v, want empty EnumMap", got)
	}
}

func TestInfer_EnumeratedMapping(t *testing.T) {
	u := &Universe{named: Builtins()}
	got := Infer(u, map[string]any{"a": 1, "b": "x"})
	em, ok := got.(*EnumMap)
	if !ok {
		t.Fatalf("expected EnumMap, got %T", got)
	}
	a, ok := em.Lookup("a")
	if !ok || a.String() != "integer" {
		t.Errorf("property a = %v, want integer", a)
	}
	b, ok := em.Lookup("b")
	if !ok || b.String() != "string" {
		t.Errorf("property b = %v, want string", b)
	}
}

func TestInfer_IntegerKeyedMapping(t *testing.T) {
	u := &Universe{named: Builtins()}
	got := Infer(u, map[any]any{1: "x", 2: "y"})
	kv, ok := got.(*KVMap)
	if !ok {
		t.Fatalf("expected KVMap, got %T", got)
	}
	if kv.Key.String() != "integer" {
		t.Errorf("key type = %s, want integer", kv.Key.String())
	}
	if kv.Value.String() != "string" {
		t.Errorf("value type (singleton union collapse) = %s, want string", kv.Value.String())
	}
}

func TestInfer_IntegerKeyedMappingUnionValues(t *testing.T) {
	u := &Universe{named: Builtins()}
	got := Infer(u, map[any]any{1: "x", 2: 5})
	kv := got.(*KVMap)
	union, ok := kv.Value.(*Union)
	if !ok || len(union.Members) != 2 {
		t.Fatalf("expected 2-member union value type, got %v", kv.Value)
	}
}

func TestInfer_MixedKeyedMappingIsAny(t *testing.T) {
	u := &Universe{named: Builtins()}
	got := Infer(u, map[any]any{"a": 1, 2: "y"})
	if got.String() != "any" {
		t.Errorf("mixed-key mapping should infer any, got %s", got.String())
	}
}

func TestInfer_TupleNeverList(t *testing.T) {
	u := &Universe{named: Builtins()}
	got := Infer(u, []any{1, "x", true})
	tup, ok := got.(*Tuple)
	if !ok {
		t.Fatalf("expected Tuple, got %T", got)
	}
	if len(tup.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(tup.Elements))
	}
	want := []string{"integer", "string", "boolean"}
	for i, w := range want {
		if tup.Elements[i].String() != w {
			t.Errorf("element %d = %s, want %s", i, tup.Elements[i].String(), w)
		}
	}
}
