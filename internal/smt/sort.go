// Package smt is a small term algebra over the theories the prover needs,
// rendered to SMT-LIB2 and checked by a pluggable solver backend.
package smt

type SortKind int

const (
	KindBool SortKind = iota
	KindInt
	KindReal
	KindString
	KindSeq
	KindSet
)

// Sort is a logical type. Primitive sorts are the package level singletons;
// Seq and Set carry exactly one element sort.
type Sort struct {
	Kind SortKind
	Elem *Sort
}

var (
	BoolSort   = &Sort{Kind: KindBool}
	IntSort    = &Sort{Kind: KindInt}
	RealSort   = &Sort{Kind: KindReal}
	StringSort = &Sort{Kind: KindString}
)

func SeqSort(elem *Sort) *Sort {
	return &Sort{Kind: KindSeq, Elem: elem}
}

func SetSort(elem *Sort) *Sort {
	return &Sort{Kind: KindSet, Elem: elem}
}

func (s *Sort) Equal(other *Sort) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Kind != other.Kind {
		return false
	}
	if s.Elem == nil || other.Elem == nil {
		return s.Elem == other.Elem
	}
	return s.Elem.Equal(other.Elem)
}

func (s *Sort) IsNumeric() bool {
	return s.Kind == KindInt || s.Kind == KindReal
}

// SMTLIB is the sort as written in an SMT-LIB2 script.
func (s *Sort) SMTLIB() string {
	switch s.Kind {
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindReal:
		return "Real"
	case KindString:
		return "String"
	case KindSeq:
		return "(Seq " + s.Elem.SMTLIB() + ")"
	case KindSet:
		return "(Array " + s.Elem.SMTLIB() + " Bool)"
	}
	return "?"
}

// String is the sort as a source-level type name.
func (s *Sort) String() string {
	switch s.Kind {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindReal:
		return "float"
	case KindString:
		return "str"
	case KindSeq:
		return "list[" + s.Elem.String() + "]"
	case KindSet:
		return "set[" + s.Elem.String() + "]"
	}
	return "?"
}
