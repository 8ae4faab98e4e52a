package types

import "testing"

func TestCompatible_Reflexive(t *testing.T) {
	u, issues := BuildUniverse(map[string]any{
		"Celsius": map[string]any{"is_a": "number"},
		"Point": map[string]any{"properties": []any{
			map[string]any{"name": "x", "type": "number"},
			map[string]any{"name": "y", "type": "number"},
		}},
	})
	if issues.HasErrors() {
		t.Fatalf("unexpected errors: %v", issues)
	}

	for _, name := range append(BuiltinNames, "Celsius", "Point") {
		ty, ok := u.Lookup(name)
		if !ok {
			t.Fatalf("type %q not found", name)
		}
		if !Compatible(ty, ty) {
			t.Errorf("expected %s to be compatible with itself", ty.String())
		}
	}
}

func TestCompatible_SubtypeTransitivity(t *testing.T) {
	u, issues := BuildUniverse(map[string]any{
		"Celsius":   map[string]any{"is_a": "number"},
		"RoomTemp":  map[string]any{"is_a": "Celsius"},
	})
	if issues.HasErrors() {
		t.Fatalf("unexpected errors: %v", issues)
	}

	roomTemp, _ := u.Lookup("RoomTemp")
	number, _ := u.Lookup("number")
	if !Compatible(roomTemp, number) {
		t.Errorf("expected RoomTemp (subtype of Celsius, subtype of number) compatible with number")
	}
}

func TestCompatible_Any(t *testing.T) {
	u := &Universe{named: Builtins()}
	any_, _ := u.Lookup("any")
	str, _ := u.Lookup("string")
	list := &List{Element: str}

	if !Compatible(str, any_) {
		t.Errorf("simple type should be compatible with any")
	}
	if Compatible(list, any_) {
		t.Errorf("structured type should NOT be compatible with any")
	}
	if Compatible(any_, str) {
		t.Errorf("any should not be compatible with a non-any target")
	}
	if !Compatible(any_, any_) {
		t.Errorf("any should be compatible with itself")
	}
}

func TestCompatible_TupleListRelaxation(t *testing.T) {
	u := &Universe{named: Builtins()}
	number, _ := u.Lookup("number")
	tuple := &Tuple{Elements: []Type{number, number, number}}
	list := &List{Element: number}

	if !Compatible(tuple, list) {
		t.Errorf("tuple of compatible elements should be compatible with a list of that element type")
	}
}

func TestCompatible_EnumMapVsKVMap(t *testing.T) {
	u := &Universe{named: Builtins()}
	str, _ := u.Lookup("string")
	integer, _ := u.Lookup("integer")

	empty := &EnumMap{}
	kv := &KVMap{Key: str, Value: integer}
	if !Compatible(empty, kv) {
		t.Errorf("empty enumerated mapping should be compatible with any string-keyed key/value mapping")
	}

	nonEmpty := &EnumMap{Properties: []Property{{Name: "a", Type: integer}}}
	if !Compatible(nonEmpty, kv) {
		t.Errorf("enumerated mapping with integer-valued properties should be compatible with string->integer map")
	}

	kvIntKey := &KVMap{Key: integer, Value: integer}
	if Compatible(nonEmpty, kvIntKey) {
		t.Errorf("enumerated mapping should not be compatible with an integer-keyed map")
	}
}

func TestCompatible_EmptyUnionOnRight(t *testing.T) {
	u := &Universe{named: Builtins()}
	str, _ := u.Lookup("string")
	empty := &Union{}

	if Compatible(str, empty) {
		t.Errorf("non-union type should not be compatible with the empty union")
	}
	if !Compatible(empty, empty) {
		t.Errorf("empty union should be compatible with itself")
	}
	if !Compatible(empty, str) {
		t.Errorf("empty union on the left is vacuously compatible with anything")
	}
}

func TestCompatible_NamedStructuredMismatch(t *testing.T) {
	u, issues := BuildUniverse(map[string]any{
		"Point": map[string]any{"properties": []any{
			map[string]any{"name": "x", "type": "number"},
		}},
		"Vector": map[string]any{"properties": []any{
			map[string]any{"name": "x", "type": "number"},
		}},
	})
	if issues.HasErrors() {
		t.Fatalf("unexpected errors: %v", issues)
	}
	point, _ := u.Lookup("Point")
	vector, _ := u.Lookup("Vector")
	if Compatible(point, vector) {
		t.Errorf("named structured types with different names must be incompatible even if structurally identical")
	}
}
