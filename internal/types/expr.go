package types

import (
	"fmt"

	"github.com/cwbudde/flowgraph/internal/issue"
)

// ResolveExpr resolves a typeExpr in a context outside the `types`
// mapping — a parameter's declared type, a task input/output type, a
// nested property type — against an already-built Universe. It accepts
// the same string-reference / inline-structure grammar as BuildUniverse.
func ResolveExpr(u *Universe, raw any, path string) (Type, issue.List) {
	if raw == nil {
		return nil, issue.List{issue.Errorf(issue.KindTypeUniverse, path, "missing type expression")}
	}
	var issues issue.List
	t := resolveExprAgainst(u, raw, path, &issues)
	return t, issues
}

func resolveExprAgainst(u *Universe, raw any, path string, issues *issue.List) Type {
	switch v := raw.(type) {
	case string:
		t, ok := u.Lookup(v)
		if !ok {
			*issues = append(*issues, issue.Errorf(issue.KindTypeUniverse, path, "reference to undefined type %q", v))
			return nil
		}
		return t
	case map[string]any:
		return resolveStructuredAgainst(u, v, path, issues)
	default:
		*issues = append(*issues, issue.Errorf(issue.KindTypeUniverse, path, "unrecognized type expression shape"))
		return nil
	}
}

func resolveStructuredAgainst(u *Universe, m map[string]any, path string, issues *issue.List) Type {
	switch {
	case hasKey(m, "list"):
		return &List{Element: resolveExprAgainst(u, m["list"], path+".list", issues)}
	case hasKey(m, "tuple"):
		seq, _ := m["tuple"].([]any)
		elems := make([]Type, 0, len(seq))
		for i, item := range seq {
			elems = append(elems, resolveExprAgainst(u, item, fmt.Sprintf("%s.tuple[%d]", path, i), issues))
		}
		return &Tuple{Elements: elems}
	case hasKey(m, "properties"):
		seq, _ := m["properties"].([]any)
		props := make([]Property, 0, len(seq))
		for i, item := range seq {
			entry, _ := item.(map[string]any)
			pname, _ := entry["name"].(string)
			props = append(props, Property{Name: pname, Type: resolveExprAgainst(u, entry["type"], fmt.Sprintf("%s.properties[%d].type", path, i), issues)})
		}
		return &EnumMap{Properties: props}
	case hasKey(m, "key") || hasKey(m, "value"):
		key := resolveExprAgainst(u, m["key"], path+".key", issues)
		value := resolveExprAgainst(u, m["value"], path+".value", issues)
		if key != nil && !ResolvesToKeyType(key) {
			*issues = append(*issues, issue.Errorf(issue.KindTypeUniverse, path+".key", "key/value mapping key type must resolve to string or integer, got %s", key.String()))
		}
		return &KVMap{Key: key, Value: value}
	case hasKey(m, "union"):
		seq, _ := m["union"].([]any)
		members := make([]Type, 0, len(seq))
		for i, item := range seq {
			members = append(members, resolveExprAgainst(u, item, fmt.Sprintf("%s.union[%d]", path, i), issues))
		}
		return &Union{Members: dedupMembers(members)}
	default:
		*issues = append(*issues, issue.Errorf(issue.KindTypeUniverse, path, "unrecognized type expression shape"))
		return nil
	}
}
