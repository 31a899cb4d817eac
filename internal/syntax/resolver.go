package syntax

import (
	"sort"
)

const BuiltinsModule = "builtins"

// maximum chain of `a = b` aliases followed while inferring a name
const maxAliasDepth = 8

var builtinNames = map[string]bool{
	"bool": true, "int": true, "float": true, "str": true,
	"list": true, "set": true, "tuple": true, "dict": true,
	"len": true, "abs": true, "min": true, "max": true,
	"True": true, "False": true, "None": true,
}

// Definition is what a module level name is bound to. An import binds Module
// and, for `from m import n`, Name; a plain `import m` leaves Name empty.
// An assignment binds Value.
type Definition struct {
	Module string
	Name   string
	Value  Expr
}

// IsModule reports whether the definition is a whole module.
func (d Definition) IsModule() bool {
	return d.Value == nil && d.Module != "" && d.Name == ""
}

func (d Definition) String() string {
	switch {
	case d.Value != nil:
		return d.Value.String()
	case d.Name == "":
		return "import " + d.Module
	default:
		return d.Module + "." + d.Name
	}
}

// Resolver answers which definitions a name in a unit may refer to.
type Resolver struct {
	defs map[string][]Definition
}

func NewResolver() *Resolver {
	return &Resolver{
		defs: make(map[string][]Definition),
	}
}

// Define records one more definition for name. A name assigned on several
// code paths has several definitions.
func (r *Resolver) Define(name string, def Definition) {
	r.defs[name] = append(r.defs[name], def)
}

// Lookup returns the raw definitions recorded for name.
func (r *Resolver) Lookup(name string) []Definition {
	if r == nil {
		return nil
	}
	return r.defs[name]
}

// Infer returns every definition the expression may evaluate to, following
// aliases and module attributes. Names that are not defined in the unit but
// are builtins resolve to the builtins module.
func (r *Resolver) Infer(expr Expr) []Definition {
	return r.infer(expr, 0)
}

// InferOne returns the single definition of expr, if there is exactly one.
func (r *Resolver) InferOne(expr Expr) (Definition, bool) {
	defs := r.Infer(expr)
	if len(defs) != 1 {
		return Definition{}, false
	}
	return defs[0], true
}

func (r *Resolver) infer(expr Expr, depth int) []Definition {
	if depth > maxAliasDepth {
		return nil
	}
	switch e := expr.(type) {
	case *Name:
		local := r.Lookup(e.ID)
		if len(local) == 0 {
			if builtinNames[e.ID] {
				return []Definition{{Module: BuiltinsModule, Name: e.ID}}
			}
			return nil
		}
		var out []Definition
		for _, d := range local {
			if d.Value == nil {
				out = append(out, d)
				continue
			}
			switch d.Value.(type) {
			case *Name, *Attribute:
				out = append(out, r.infer(d.Value, depth+1)...)
			default:
				out = append(out, d)
			}
		}
		return out
	case *Attribute:
		var out []Definition
		for _, base := range r.infer(e.Value, depth+1) {
			if base.IsModule() {
				out = append(out, Definition{Module: base.Module, Name: e.Attr})
			}
		}
		return out
	default:
		return nil
	}
}

func (r *Resolver) names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
