// Package types implements the experiment engine's type universe: simple
// types with single inheritance, structured types (list, tuple, enumerated
// mapping, key/value mapping), unions, inference from literal values, and
// the covariant compatibility relation that gates every argument binding.
//
// Types are represented as tagged sum types (one interface, a closed set
// of concrete implementations keyed by Kind), not a class hierarchy: the
// compatibility and inference rules switch on Kind rather than relying on
// virtual dispatch, so every rule in spec §4.B.3 maps onto one function.
package types

// Kind tags the concrete shape of a Type value.
type Kind int

const (
	KindSimple Kind = iota
	KindList
	KindTuple
	KindEnumMap
	KindKVMap
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindEnumMap:
		return "enum_map"
	case KindKVMap:
		return "kv_map"
	case KindUnion:
		return "union"
	default:
		return "unknown"
	}
}

// Type is implemented by every member of the universe. Name returns ""
// for anonymous types (inferred from literals, or written inline in a
// nested position); named types are exactly the entries of the universe
// built from the description's `types` mapping plus the six built-ins.
type Type interface {
	Kind() Kind
	Name() string
	String() string
}

// Simple is a named or built-in scalar type, optionally deriving from
// exactly one other Simple type. Simple types are never anonymous: every
// Simple value in a universe has a non-empty TypeName.
type Simple struct {
	TypeName string
	Super    *Simple
}

func (t *Simple) Kind() Kind   { return KindSimple }
func (t *Simple) Name() string { return t.TypeName }
func (t *Simple) String() string {
	return t.TypeName
}

// List is a homogeneous ordered sequence of arbitrary length.
type List struct {
	TypeName string
	Element  Type
}

func (t *List) Kind() Kind   { return KindList }
func (t *List) Name() string { return t.TypeName }
func (t *List) String() string {
	if t.TypeName != "" {
		return t.TypeName
	}
	return "list<" + safeString(t.Element) + ">"
}

// Tuple is an ordered, possibly empty, fixed-length sequence of
// positionally-typed elements.
type Tuple struct {
	TypeName string
	Elements []Type
}

func (t *Tuple) Kind() Kind   { return KindTuple }
func (t *Tuple) Name() string { return t.TypeName }
func (t *Tuple) String() string {
	if t.TypeName != "" {
		return t.TypeName
	}
	s := "tuple<"
	for i, e := range t.Elements {
		if i > 0 {
			s += ", "
		}
		s += safeString(e)
	}
	return s + ">"
}

// Property is one (name, type) pair of an EnumMap. Ordering is
// presentation-only; compatibility compares the property set, never the
// order the properties were declared in.
type Property struct {
	Name string
	Type Type
}

// EnumMap is a mapping with a fixed, named set of string properties, each
// independently typed ("enumerated mapping" in spec terms — a record/struct
// shape, not an enum of scalar values).
type EnumMap struct {
	TypeName   string
	Properties []Property
}

func (t *EnumMap) Kind() Kind   { return KindEnumMap }
func (t *EnumMap) Name() string { return t.TypeName }
func (t *EnumMap) String() string {
	if t.TypeName != "" {
		return t.TypeName
	}
	s := "{"
	for i, p := range t.Properties {
		if i > 0 {
			s += ", "
		}
		s += p.Name + ": " + safeString(p.Type)
	}
	return s + "}"
}

// PropertyNames returns the set of declared property names, for set-based
// compatibility comparisons.
func (t *EnumMap) PropertyNames() map[string]struct{} {
	out := make(map[string]struct{}, len(t.Properties))
	for _, p := range t.Properties {
		out[p.Name] = struct{}{}
	}
	return out
}

// Lookup returns the type of the named property and whether it exists.
func (t *EnumMap) Lookup(name string) (Type, bool) {
	for _, p := range t.Properties {
		if p.Name == name {
			return p.Type, true
		}
	}
	return nil, false
}

// KVMap is a homogeneous mapping whose key type must resolve to string or
// integer.
type KVMap struct {
	TypeName string
	Key      Type
	Value    Type
}

func (t *KVMap) Kind() Kind   { return KindKVMap }
func (t *KVMap) Name() string { return t.TypeName }
func (t *KVMap) String() string {
	if t.TypeName != "" {
		return t.TypeName
	}
	return "map<" + safeString(t.Key) + ", " + safeString(t.Value) + ">"
}

// Union is a possibly-empty set of member types. Membership, not order,
// defines equality: two Unions with the same members in different order
// are the same type.
type Union struct {
	TypeName string
	Members  []Type
}

func (t *Union) Kind() Kind   { return KindUnion }
func (t *Union) Name() string { return t.TypeName }
func (t *Union) String() string {
	if t.TypeName != "" {
		return t.TypeName
	}
	if len(t.Members) == 0 {
		return "union<>"
	}
	s := "union<"
	for i, m := range t.Members {
		if i > 0 {
			s += " | "
		}
		s += safeString(m)
	}
	return s + ">"
}

func safeString(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// IsSimple reports whether t is a Simple type (including any of the
// built-ins).
func IsSimple(t Type) bool {
	_, ok := t.(*Simple)
	return ok
}

// IsAny reports whether t is exactly the built-in `any` type. Built-ins
// are minted fresh per Universe (see types.Builtins), so identity is by
// name, not pointer.
func IsAny(t Type) bool {
	s, ok := t.(*Simple)
	return ok && s.TypeName == "any" && s.Super == nil
}

// IsSubtypeOf reports whether a is transitively a subtype of b, following
// single-inheritance Super links. A type is not considered a subtype of
// itself by this function; use Compatible for reflexive comparisons.
func IsSubtypeOf(a, b *Simple) bool {
	for cur := a.Super; cur != nil; cur = cur.Super {
		if cur == b {
			return true
		}
	}
	return false
}
