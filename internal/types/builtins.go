package types

// BuiltinNames lists the reserved type names, in the stable order new
// universes register them.
var BuiltinNames = []string{"string", "integer", "number", "boolean", "null", "any"}

// Builtins returns fresh instances of the six built-in types, keyed by
// name. Each Universe gets its own copies so pointer identity within one
// universe is meaningful without built-ins leaking shared mutable state
// across experiments.
func Builtins() map[string]Type {
	number := &Simple{TypeName: "number"}
	integer := &Simple{TypeName: "integer", Super: number}
	return map[string]Type{
		"string":  &Simple{TypeName: "string"},
		"number":  number,
		"integer": integer,
		"boolean": &Simple{TypeName: "boolean"},
		"null":    &Simple{TypeName: "null"},
		"any":     &Simple{TypeName: "any"},
	}
}

func isBuiltinName(name string) bool {
	for _, n := range BuiltinNames {
		if n == name {
			return true
		}
	}
	return false
}
