package types

import (
	"fmt"
	"sort"

	"github.com/cwbudde/flowgraph/internal/issue"
)

// Universe is the set of named and anonymous types in effect for one
// experiment description, as required by spec §3 ("Universe: the set of
// named and anonymous types in effect for a single description"). The
// Type System owns exactly one Universe per experiment.
type Universe struct {
	named map[string]Type
}

func (u *Universe) builtin(name string) Type {
	return u.named[name]
}

// Lookup resolves a name against the universe: built-ins plus whatever the
// description's `types` mapping declared.
func (u *Universe) Lookup(name string) (Type, bool) {
	t, ok := u.named[name]
	return t, ok
}

// Named returns every declared (non-built-in) type name, sorted, for
// deterministic iteration by callers that need to walk the universe.
func (u *Universe) Named() []string {
	out := make([]string, 0, len(u.named))
	for name := range u.named {
		if isBuiltinName(name) {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// The decoded shape of one entry under the top-level `types`
// mapping, or of an inline anonymous type expression appearing nested
// inside a parameter/input/output/property type. The exact key
// conventions (is_a, list, tuple, properties, key/value, union) are this
// implementation's concrete encoding of the structural schema spec.md
// leaves abstract (see DESIGN.md).
//
//   "name"                         -> reference to a named type
//   {is_a: "name"}                 -> simple type with a supertype
//   {}  / nil                      -> simple type with no supertype
//   {list: <typeExpr>}             -> list
//   {tuple: [<typeExpr>, ...]}     -> tuple
//   {properties: [{name,type}...]} -> enumerated mapping
//   {key: <typeExpr>, value: ...}  -> key/value mapping
//   {union: [<typeExpr>, ...]}     -> union

// BuildUniverse constructs the type universe from the `types` mapping of
// a decoded description (nil or empty is fine: the universe then holds
// only built-ins). It implements spec §4.B.1 in full, including
// redefinition, unresolved-reference, cycle, and key-type-constraint
// errors.
func BuildUniverse(rawTypes any) (*Universe, issue.List) {
	u := &Universe{named: Builtins()}
	if rawTypes == nil {
		return u, nil
	}

	defs, ok := asStringMap(rawTypes)
	if !ok {
		return u, issue.List{issue.Errorf(issue.KindTypeUniverse, "types", "`types` must be a mapping of type name to definition")}
	}

	var issues issue.List

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if isBuiltinName(name) {
			issues = append(issues, issue.Errorf(issue.KindTypeUniverse, "types."+name, "%q redefines a built-in type", name))
			delete(defs, name)
		}
	}

	r := &resolver{defs: defs, named: u.named, resolving: map[string]bool{}, issues: &issues}
	for _, name := range names {
		if _, ok := defs[name]; !ok {
			continue // stripped above as a built-in redefinition
		}
		r.resolveNamed(name)
	}

	return u, issues
}

type resolver struct {
	defs      map[string]any
	named     map[string]Type
	resolving map[string]bool
	issues    *issue.List
}

func (r *resolver) resolveNamed(name string) Type {
	if t, ok := r.named[name]; ok {
		return t
	}
	if r.resolving[name] {
		*r.issues = append(*r.issues, issue.Errorf(issue.KindTypeUniverse, "types."+name, "cyclic supertype chain involving %q", name))
		return nil
	}
	raw, ok := r.defs[name]
	if !ok {
		*r.issues = append(*r.issues, issue.Errorf(issue.KindTypeUniverse, "types."+name, "undefined type %q", name))
		return nil
	}

	path := "types." + name

	// Structural kinds (list, tuple, enumerated mapping, key/value
	// mapping, union) tie the knot: a placeholder is registered in the
	// universe before its nested fields are resolved, so a
	// self-referential definition (a tree type containing a list of
	// itself) resolves its own name instead of tripping the
	// supertype-cycle guard below. Simple types (is_a chains) are not
	// eligible: a cycle there is a genuine error, not legal recursion.
	if m, ok := raw.(map[string]any); ok {
		if stub, ok := stubFor(name, m); ok {
			r.named[name] = stub
			r.populateStructured(stub, m, path)
			return stub
		}
	}

	r.resolving[name] = true
	defer delete(r.resolving, name)

	t := r.resolveDef(name, raw, path)
	if t != nil {
		r.named[name] = t
	}
	return t
}

// stubFor returns an empty placeholder of the structural kind a type
// definition describes, or (nil, false) if the definition is a simple
// type (is_a / empty / bare nil) that must go through the cycle-guarded
// path instead.
func stubFor(name string, m map[string]any) (Type, bool) {
	switch {
	case hasKey(m, "list"):
		return &List{TypeName: name}, true
	case hasKey(m, "tuple"):
		return &Tuple{TypeName: name}, true
	case hasKey(m, "properties"):
		return &EnumMap{TypeName: name}, true
	case hasKey(m, "key") || hasKey(m, "value"):
		return &KVMap{TypeName: name}, true
	case hasKey(m, "union"):
		return &Union{TypeName: name}, true
	default:
		return nil, false
	}
}

// populateStructured fills in a placeholder's nested fields in place,
// after it has already been registered in the universe under its own
// name. This is the second half of the tie-the-knot: any self-reference
// encountered while resolving nested fields resolves back to stub
// itself via resolveNamed's already-registered check.
func (r *resolver) populateStructured(stub Type, m map[string]any, path string) {
	switch s := stub.(type) {
	case *List:
		s.Element = r.resolveNestedExpr(m["list"], path+".list")

	case *Tuple:
		seq, _ := m["tuple"].([]any)
		elems := make([]Type, 0, len(seq))
		for i, item := range seq {
			elems = append(elems, r.resolveNestedExpr(item, fmt.Sprintf("%s.tuple[%d]", path, i)))
		}
		s.Elements = elems

	case *EnumMap:
		seq, _ := m["properties"].([]any)
		props := make([]Property, 0, len(seq))
		seen := map[string]bool{}
		for i, item := range seq {
			entry, _ := item.(map[string]any)
			pname, _ := entry["name"].(string)
			if seen[pname] {
				*r.issues = append(*r.issues, issue.Errorf(issue.KindTypeUniverse, fmt.Sprintf("%s.properties[%d]", path, i), "duplicate property name %q", pname))
				continue
			}
			seen[pname] = true
			ptype := r.resolveNestedExpr(entry["type"], fmt.Sprintf("%s.properties[%d].type", path, i))
			props = append(props, Property{Name: pname, Type: ptype})
		}
		s.Properties = props

	case *KVMap:
		key := r.resolveNestedExpr(m["key"], path+".key")
		value := r.resolveNestedExpr(m["value"], path+".value")
		if key != nil && !ResolvesToKeyType(key) {
			*r.issues = append(*r.issues, issue.Errorf(issue.KindTypeUniverse, path+".key", "key/value mapping key type must resolve to string or integer, got %s", key.String()))
		}
		s.Key = key
		s.Value = value

	case *Union:
		seq, _ := m["union"].([]any)
		members := make([]Type, 0, len(seq))
		for i, item := range seq {
			members = append(members, r.resolveNestedExpr(item, fmt.Sprintf("%s.union[%d]", path, i)))
		}
		s.Members = dedupMembers(members)
	}
}

// resolveDef resolves one type definition. name is "" for anonymous
// (nested) type expressions; path is the diagnostic locator.
func (r *resolver) resolveDef(name string, raw any, path string) Type {
	switch v := raw.(type) {
	case nil:
		return &Simple{TypeName: name}
	case string:
		return r.resolveReference(v, path)
	case map[string]any:
		return r.resolveStructured(name, v, path)
	default:
		*r.issues = append(*r.issues, issue.Errorf(issue.KindTypeUniverse, path, "unrecognized type definition shape"))
		return nil
	}
}

func (r *resolver) resolveReference(name, path string) Type {
	if t, ok := r.named[name]; ok {
		return t
	}
	if _, ok := r.defs[name]; ok {
		return r.resolveNamed(name)
	}
	*r.issues = append(*r.issues, issue.Errorf(issue.KindTypeUniverse, path, "reference to undefined type %q", name))
	return nil
}

func (r *resolver) resolveStructured(name string, m map[string]any, path string) Type {
	switch {
	case hasKey(m, "is_a"):
		superName, _ := m["is_a"].(string)
		super := r.resolveReference(superName, path+".is_a")
		simpleSuper, ok := super.(*Simple)
		if super != nil && !ok {
			*r.issues = append(*r.issues, issue.Errorf(issue.KindTypeUniverse, path+".is_a", "supertype %q is not a simple type", superName))
			return &Simple{TypeName: name}
		}
		return &Simple{TypeName: name, Super: simpleSuper}

	case hasKey(m, "list"):
		elem := r.resolveNestedExpr(m["list"], path+".list")
		return &List{TypeName: name, Element: elem}

	case hasKey(m, "tuple"):
		seq, _ := m["tuple"].([]any)
		elems := make([]Type, 0, len(seq))
		for i, item := range seq {
			elems = append(elems, r.resolveNestedExpr(item, fmt.Sprintf("%s.tuple[%d]", path, i)))
		}
		return &Tuple{TypeName: name, Elements: elems}

	case hasKey(m, "properties"):
		seq, _ := m["properties"].([]any)
		props := make([]Property, 0, len(seq))
		seen := map[string]bool{}
		for i, item := range seq {
			entry, _ := item.(map[string]any)
			pname, _ := entry["name"].(string)
			if seen[pname] {
				*r.issues = append(*r.issues, issue.Errorf(issue.KindTypeUniverse, fmt.Sprintf("%s.properties[%d]", path, i), "duplicate property name %q", pname))
				continue
			}
			seen[pname] = true
			ptype := r.resolveNestedExpr(entry["type"], fmt.Sprintf("%s.properties[%d].type", path, i))
			props = append(props, Property{Name: pname, Type: ptype})
		}
		return &EnumMap{TypeName: name, Properties: props}

	case hasKey(m, "key") || hasKey(m, "value"):
		key := r.resolveNestedExpr(m["key"], path+".key")
		value := r.resolveNestedExpr(m["value"], path+".value")
		if key != nil && !ResolvesToKeyType(key) {
			*r.issues = append(*r.issues, issue.Errorf(issue.KindTypeUniverse, path+".key", "key/value mapping key type must resolve to string or integer, got %s", key.String()))
		}
		return &KVMap{TypeName: name, Key: key, Value: value}

	case hasKey(m, "union"):
		seq, _ := m["union"].([]any)
		members := make([]Type, 0, len(seq))
		for i, item := range seq {
			members = append(members, r.resolveNestedExpr(item, fmt.Sprintf("%s.union[%d]", path, i)))
		}
		return &Union{TypeName: name, Members: dedupMembers(members)}

	default:
		return &Simple{TypeName: name}
	}
}

// resolveNestedExpr resolves a typeExpr appearing inside a structural
// definition: either a string reference or an inline anonymous structure.
func (r *resolver) resolveNestedExpr(raw any, path string) Type {
	if raw == nil {
		*r.issues = append(*r.issues, issue.Errorf(issue.KindTypeUniverse, path, "missing type expression"))
		return nil
	}
	switch v := raw.(type) {
	case string:
		return r.resolveReference(v, path)
	case map[string]any:
		return r.resolveStructured("", v, path)
	default:
		*r.issues = append(*r.issues, issue.Errorf(issue.KindTypeUniverse, path, "unrecognized type expression shape"))
		return nil
	}
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func dedupMembers(members []Type) []Type {
	seen := map[string]bool{}
	out := make([]Type, 0, len(members))
	for _, m := range members {
		if m == nil {
			continue
		}
		key := m.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(m))
		for k, vv := range m {
			out[k] = vv
		}
		return out, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, vv := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = vv
		}
		return out, true
	default:
		return nil, false
	}
}
