package syntax

import (
	"fmt"
	"strings"
)

// Contract categories the prover understands. Others (raises, ensures, has,
// reason) are carried through but ignored.
const (
	CategoryPre  = "pre"
	CategoryPost = "post"
)

type Param struct {
	Name       string
	Annotation Expr // nil when the parameter has no annotation
}

type Contract struct {
	Category  string
	Predicate Expr
}

// Function is one annotated function as extracted by the front-end.
type Function struct {
	Name      string
	Pos       Pos
	Params    []Param
	Returns   Expr // nil when the return type is not annotated
	Body      []Stmt
	Contracts []Contract
	Resolver  *Resolver
}

// ContractsOf returns the contracts of the given category in declaration order.
func (f *Function) ContractsOf(category string) []Contract {
	var out []Contract
	for _, c := range f.Contracts {
		if c.Category == category {
			out = append(out, c)
		}
	}
	return out
}

// Fingerprint is a canonical textual rendering of the function. Two functions
// with the same fingerprint are verified identically.
func (f *Function) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "def %s(", f.Name)
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		if p.Annotation != nil {
			b.WriteString(": " + p.Annotation.String())
		}
	}
	b.WriteString(")")
	if f.Returns != nil {
		b.WriteString(" -> " + f.Returns.String())
	}
	b.WriteString("\n")
	for _, c := range f.Contracts {
		fmt.Fprintf(&b, "@%s %s\n", c.Category, c.Predicate.String())
	}
	writeBody(&b, f.Body, 1)
	if f.Resolver != nil {
		// definitions change how names resolve, so they are part of the identity
		for _, name := range f.Resolver.names() {
			for _, d := range f.Resolver.defs[name] {
				fmt.Fprintf(&b, "%s = %s\n", name, d.String())
			}
		}
	}
	return b.String()
}

func writeBody(b *strings.Builder, body []Stmt, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, s := range body {
		switch s := s.(type) {
		case *If:
			fmt.Fprintf(b, "%sif %s:\n", indent, s.Test.String())
			writeBody(b, s.Body, depth+1)
			if len(s.OrElse) > 0 {
				fmt.Fprintf(b, "%selse:\n", indent)
				writeBody(b, s.OrElse, depth+1)
			}
		default:
			fmt.Fprintf(b, "%s%s\n", indent, s.String())
		}
	}
}

// Unit is one source unit: its functions in source order plus the module
// level definitions used to resolve names.
type Unit struct {
	Name      string
	Functions []*Function
	Resolver  *Resolver
}
