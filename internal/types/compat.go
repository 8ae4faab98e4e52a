package types

// Compatible implements the covariant compatibility relation of spec
// §4.B.3: "A compatible-with B" means a value typed A may be passed where
// B is declared. Rules are applied in the order documented there — first
// match wins.
func Compatible(a, b Type) bool {
	if a == nil || b == nil {
		return false
	}

	// "Anything compatible with any" / "any compatible only with itself":
	// any is the top element of the simple-type lattice only. A structured
	// A is never compatible with any, and any (as a source) is never
	// compatible with a non-any target.
	if IsAny(b) {
		return IsSimple(a)
	}
	if IsAny(a) {
		return false
	}

	if ua, ok := a.(*Union); ok {
		for _, m := range ua.Members {
			if !Compatible(m, b) {
				return false
			}
		}
		return true // vacuously true for the empty union
	}

	if ub, ok := b.(*Union); ok {
		if len(ub.Members) == 0 {
			return false // a is known non-union here; empty union accepts only itself
		}
		for _, m := range ub.Members {
			if Compatible(a, m) {
				return true
			}
		}
		return false
	}

	if sa, ok := a.(*Simple); ok {
		sb, ok := b.(*Simple)
		if !ok {
			return false
		}
		return sa == sb || sa.TypeName == sb.TypeName || IsSubtypeOf(sa, sb)
	}

	// Both are structured at this point (simple-vs-structured already
	// excluded by the type switch above falling through only on
	// structured a).
	if _, ok := b.(*Simple); ok {
		return false
	}

	if a.Name() != "" && b.Name() != "" && a.Name() != b.Name() {
		return false
	}

	switch av := a.(type) {
	case *List:
		bv, ok := b.(*List)
		if !ok {
			return false
		}
		return Compatible(av.Element, bv.Element)

	case *Tuple:
		switch bv := b.(type) {
		case *Tuple:
			if len(av.Elements) != len(bv.Elements) {
				return false
			}
			for i := range av.Elements {
				if !Compatible(av.Elements[i], bv.Elements[i]) {
					return false
				}
			}
			return true
		case *List:
			for _, e := range av.Elements {
				if !Compatible(e, bv.Element) {
					return false
				}
			}
			return true
		default:
			return false
		}

	case *EnumMap:
		switch bv := b.(type) {
		case *EnumMap:
			an, bn := av.PropertyNames(), bv.PropertyNames()
			if len(an) != len(bn) {
				return false
			}
			for name := range an {
				if _, ok := bn[name]; !ok {
					return false
				}
			}
			for _, p := range av.Properties {
				bt, _ := bv.Lookup(p.Name)
				if !Compatible(p.Type, bt) {
					return false
				}
			}
			return true
		case *KVMap:
			if !resolvesToString(bv.Key) {
				return false
			}
			for _, p := range av.Properties {
				if !Compatible(p.Type, bv.Value) {
					return false
				}
			}
			return true
		default:
			return false
		}

	case *KVMap:
		bv, ok := b.(*KVMap)
		if !ok {
			return false
		}
		return Compatible(av.Key, bv.Key) && Compatible(av.Value, bv.Value)

	default:
		return false
	}
}

func resolvesToString(t Type) bool {
	s, ok := t.(*Simple)
	return ok && s.TypeName == "string"
}

func hasIntegerAncestor(s *Simple) bool {
	for cur := s; cur != nil; cur = cur.Super {
		if cur.TypeName == "integer" {
			return true
		}
	}
	return false
}

// ResolvesToKeyType reports whether t is usable as a key/value mapping's
// key type: the built-in string, the built-in integer, or a simple type
// that derives (directly or transitively) from integer.
func ResolvesToKeyType(t Type) bool {
	s, ok := t.(*Simple)
	if !ok {
		return false
	}
	if s.TypeName == "string" || s.TypeName == "integer" {
		return true
	}
	return hasIntegerAncestor(s)
}
