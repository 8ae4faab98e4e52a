package types

import "sort"

// Infer computes a type from a literal value per spec §4.B.2. The source
// may have come from decoded YAML/JSON or from structures built directly
// by an external collaborator; only the Go value's own kind is inspected,
// never its textual origin — except that callers are expected to decode
// numeric literals the way goccy/go-yaml already does: an integer Go type
// for integral literals and float64 for ones written with a fractional
// part, so "1" and "1.0" infer differently as the spec requires. A plain
// encoding/json decode yields float64 for every number, so its integral
// literals infer as number.
func Infer(u *Universe, v any) Type {
	switch val := v.(type) {
	case nil:
		return u.builtin("null")
	case string:
		return u.builtin("string")
	case bool:
		return u.builtin("boolean")
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return u.builtin("integer")
	case float32, float64:
		return u.builtin("number")
	case map[string]any:
		return inferEnumOrEmpty(u, val)
	case map[any]any:
		return inferGenericMap(u, val)
	case []any:
		return inferTuple(u, val)
	default:
		return u.builtin("any")
	}
}

func inferEnumOrEmpty(u *Universe, m map[string]any) Type {
	if len(m) == 0 {
		return &EnumMap{}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	props := make([]Property, 0, len(keys))
	for _, k := range keys {
		props = append(props, Property{Name: k, Type: Infer(u, m[k])})
	}
	return &EnumMap{Properties: props}
}

func inferTuple(u *Universe, s []any) Type {
	elems := make([]Type, 0, len(s))
	for _, v := range s {
		elems = append(elems, Infer(u, v))
	}
	return &Tuple{Elements: elems}
}

// inferGenericMap classifies a map[any]any by the runtime kind of its
// keys: all-string keys infer an enumerated mapping, all-integer keys
// infer a key/value mapping with a de-duplicated union value type, and
// anything mixed falls back to `any`.
func inferGenericMap(u *Universe, m map[any]any) Type {
	if len(m) == 0 {
		return &EnumMap{}
	}
	allString, allInt := true, true
	for k := range m {
		switch k.(type) {
		case string:
			allInt = false
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			allString = false
		default:
			allString, allInt = false, false
		}
	}

	switch {
	case allString:
		strMap := make(map[string]any, len(m))
		for k, v := range m {
			strMap[k.(string)] = v
		}
		return inferEnumOrEmpty(u, strMap)
	case allInt:
		valueTypes := make([]Type, 0, len(m))
		for _, v := range m {
			valueTypes = append(valueTypes, Infer(u, v))
		}
		return &KVMap{Key: u.builtin("integer"), Value: dedupUnion(valueTypes)}
	default:
		return u.builtin("any")
	}
}

// dedupUnion collapses a slice of inferred value types into the union
// required when inferring a key/value mapping from a literal: duplicates
// removed, and a singleton set collapses to the element itself rather
// than a one-member union.
func dedupUnion(types []Type) Type {
	seen := make(map[string]Type)
	order := make([]string, 0, len(types))
	for _, t := range types {
		key := t.String()
		if _, ok := seen[key]; !ok {
			seen[key] = t
			order = append(order, key)
		}
	}
	if len(order) == 1 {
		return seen[order[0]]
	}
	sort.Strings(order)
	members := make([]Type, 0, len(order))
	for _, k := range order {
		members = append(members, seen[k])
	}
	return &Union{Members: members}
}
