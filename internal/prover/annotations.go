package prover

import (
	"gprover/internal/smt"
	"gprover/internal/syntax"
)

var simpleSorts = map[string]*smt.Sort{
	"bool":  smt.BoolSort,
	"int":   smt.IntSort,
	"float": smt.RealSort,
	"str":   smt.StringSort,
}

// generic containers, by defining module and name
var genericSorts = map[syntax.Definition]func(*smt.Sort) *smt.Sort{
	{Module: syntax.BuiltinsModule, Name: "list"}: smt.SeqSort,
	{Module: "typing", Name: "List"}:              smt.SeqSort,
	{Module: syntax.BuiltinsModule, Name: "set"}:  smt.SetSort,
	{Module: "typing", Name: "Set"}:               smt.SetSort,
}

// SortOf maps a type annotation to a sort. It returns nil for anything it
// does not recognize; the caller decides whether that is unsupported.
func SortOf(ann syntax.Expr, resolver *syntax.Resolver) *smt.Sort {
	switch ann := ann.(type) {
	case *syntax.Name:
		return simpleSorts[ann.ID]
	case *syntax.Const:
		// string annotations: def f(x: "int")
		if name, ok := ann.Value.(string); ok {
			return simpleSorts[name]
		}
	case *syntax.Subscript:
		def, ok := resolver.InferOne(ann.Value)
		if !ok || def.Value != nil {
			return nil
		}
		wrap, ok := genericSorts[syntax.Definition{Module: def.Module, Name: def.Name}]
		if !ok {
			return nil
		}
		elem := SortOf(ann.Slice, resolver)
		if elem == nil {
			return nil
		}
		return wrap(elem)
	}
	return nil
}
