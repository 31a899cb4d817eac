// Package syntax holds the function descriptions produced by the front-end:
// parameters, annotations, body statements and contract predicates.
package syntax

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Pos is a location in the original source unit.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.Line == 0 {
		return "?"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

type Node interface {
	Position() Pos
	String() string
}

// Expr is one of the expression nodes below. The set is closed.
type Expr interface {
	Node
	isExpr()
}

// Name is a bare identifier.
type Name struct {
	At Pos
	ID string
}

// Const is a literal. Value holds nil (None), bool, *big.Int, *big.Rat
// (float literals) or string.
type Const struct {
	At    Pos
	Value interface{}
}

type UnaryOp struct {
	At      Pos
	Op      string // "not", "-", "+"
	Operand Expr
}

type BinOp struct {
	At    Pos
	Op    string // "+", "-", "*", "/", "//", "%", "**"
	Left  Expr
	Right Expr
}

type BoolOp struct {
	At     Pos
	Op     string // "and", "or"
	Values []Expr
}

// Compare is a possibly chained comparison: Left Ops[0] Comparators[0] ...
type Compare struct {
	At          Pos
	Left        Expr
	Ops         []string
	Comparators []Expr
}

type IfExp struct {
	At     Pos
	Test   Expr
	Body   Expr
	OrElse Expr
}

type Call struct {
	At   Pos
	Func Expr
	Args []Expr
}

type Attribute struct {
	At    Pos
	Value Expr
	Attr  string
}

type Subscript struct {
	At    Pos
	Value Expr
	Slice Expr
}

type List struct {
	At   Pos
	Elts []Expr
}

type Set struct {
	At   Pos
	Elts []Expr
}

type Tuple struct {
	At   Pos
	Elts []Expr
}

type Lambda struct {
	At     Pos
	Params []string
	Body   Expr
}

// UnknownExpr is any expression kind the front-end emitted that has no node here.
type UnknownExpr struct {
	At   Pos
	Kind string
}

func (*Name) isExpr()        {}
func (*Const) isExpr()       {}
func (*UnaryOp) isExpr()     {}
func (*BinOp) isExpr()       {}
func (*BoolOp) isExpr()      {}
func (*Compare) isExpr()     {}
func (*IfExp) isExpr()       {}
func (*Call) isExpr()        {}
func (*Attribute) isExpr()   {}
func (*Subscript) isExpr()   {}
func (*List) isExpr()        {}
func (*Set) isExpr()         {}
func (*Tuple) isExpr()       {}
func (*Lambda) isExpr()      {}
func (*UnknownExpr) isExpr() {}

func (e *Name) Position() Pos        { return e.At }
func (e *Const) Position() Pos       { return e.At }
func (e *UnaryOp) Position() Pos     { return e.At }
func (e *BinOp) Position() Pos       { return e.At }
func (e *BoolOp) Position() Pos      { return e.At }
func (e *Compare) Position() Pos     { return e.At }
func (e *IfExp) Position() Pos       { return e.At }
func (e *Call) Position() Pos        { return e.At }
func (e *Attribute) Position() Pos   { return e.At }
func (e *Subscript) Position() Pos   { return e.At }
func (e *List) Position() Pos        { return e.At }
func (e *Set) Position() Pos         { return e.At }
func (e *Tuple) Position() Pos       { return e.At }
func (e *Lambda) Position() Pos      { return e.At }
func (e *UnknownExpr) Position() Pos { return e.At }

func (e *Name) String() string { return e.ID }

func (e *Const) String() string {
	switch v := e.Value.(type) {
	case nil:
		return "None"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case *big.Int:
		return v.String()
	case *big.Rat:
		if v.IsInt() {
			return v.Num().String() + ".0"
		}
		f, _ := v.Float64()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (e *UnaryOp) String() string {
	if e.Op == "not" {
		return "not " + e.Operand.String()
	}
	return e.Op + e.Operand.String()
}

func (e *BinOp) String() string {
	return "(" + e.Left.String() + " " + e.Op + " " + e.Right.String() + ")"
}

func (e *BoolOp) String() string {
	return "(" + joinExprs(e.Values, " "+e.Op+" ") + ")"
}

func (e *Compare) String() string {
	var b strings.Builder
	b.WriteString(e.Left.String())
	for i, op := range e.Ops {
		b.WriteString(" " + op + " ")
		if i < len(e.Comparators) {
			b.WriteString(e.Comparators[i].String())
		}
	}
	return b.String()
}

func (e *IfExp) String() string {
	return "(" + e.Body.String() + " if " + e.Test.String() + " else " + e.OrElse.String() + ")"
}

func (e *Call) String() string {
	return e.Func.String() + "(" + joinExprs(e.Args, ", ") + ")"
}

func (e *Attribute) String() string { return e.Value.String() + "." + e.Attr }

func (e *Subscript) String() string {
	return e.Value.String() + "[" + e.Slice.String() + "]"
}

func (e *List) String() string { return "[" + joinExprs(e.Elts, ", ") + "]" }

func (e *Set) String() string { return "{" + joinExprs(e.Elts, ", ") + "}" }

func (e *Tuple) String() string { return "(" + joinExprs(e.Elts, ", ") + ")" }

func (e *Lambda) String() string {
	return "lambda " + strings.Join(e.Params, ", ") + ": " + e.Body.String()
}

func (e *UnknownExpr) String() string { return "<" + e.Kind + ">" }

func joinExprs(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}

// Stmt is one of the statement nodes below. The set is closed.
type Stmt interface {
	Node
	isStmt()
}

type Assign struct {
	At      Pos
	Targets []Expr
	Value   Expr
}

type AugAssign struct {
	At     Pos
	Target Expr
	Op     string
	Value  Expr
}

// AnnAssign is `target: annotation = value`; Value may be nil.
type AnnAssign struct {
	At         Pos
	Target     Expr
	Annotation Expr
	Value      Expr
}

// Return with a nil Value returns None.
type Return struct {
	At    Pos
	Value Expr
}

type If struct {
	At     Pos
	Test   Expr
	Body   []Stmt
	OrElse []Stmt
}

type Assert struct {
	At   Pos
	Test Expr
	Msg  Expr
}

// ExprStmt is an expression evaluated for its effects, docstrings included.
type ExprStmt struct {
	At    Pos
	Value Expr
}

type Pass struct {
	At Pos
}

type Raise struct {
	At  Pos
	Exc Expr
}

type For struct {
	At     Pos
	Target Expr
	Iter   Expr
	Body   []Stmt
	OrElse []Stmt
}

type While struct {
	At     Pos
	Test   Expr
	Body   []Stmt
	OrElse []Stmt
}

// UnknownStmt is any statement kind without a node here (with, try, def, ...).
type UnknownStmt struct {
	At   Pos
	Kind string
}

func (*Assign) isStmt()      {}
func (*AugAssign) isStmt()   {}
func (*AnnAssign) isStmt()   {}
func (*Return) isStmt()      {}
func (*If) isStmt()          {}
func (*Assert) isStmt()      {}
func (*ExprStmt) isStmt()    {}
func (*Pass) isStmt()        {}
func (*Raise) isStmt()       {}
func (*For) isStmt()         {}
func (*While) isStmt()       {}
func (*UnknownStmt) isStmt() {}

func (s *Assign) Position() Pos      { return s.At }
func (s *AugAssign) Position() Pos   { return s.At }
func (s *AnnAssign) Position() Pos   { return s.At }
func (s *Return) Position() Pos      { return s.At }
func (s *If) Position() Pos          { return s.At }
func (s *Assert) Position() Pos      { return s.At }
func (s *ExprStmt) Position() Pos    { return s.At }
func (s *Pass) Position() Pos        { return s.At }
func (s *Raise) Position() Pos       { return s.At }
func (s *For) Position() Pos         { return s.At }
func (s *While) Position() Pos       { return s.At }
func (s *UnknownStmt) Position() Pos { return s.At }

func (s *Assign) String() string {
	return joinExprs(s.Targets, " = ") + " = " + s.Value.String()
}

func (s *AugAssign) String() string {
	return s.Target.String() + " " + s.Op + "= " + s.Value.String()
}

func (s *AnnAssign) String() string {
	out := s.Target.String() + ": " + s.Annotation.String()
	if s.Value != nil {
		out += " = " + s.Value.String()
	}
	return out
}

func (s *Return) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}

func (s *If) String() string {
	out := "if " + s.Test.String() + ": " + joinStmts(s.Body)
	if len(s.OrElse) > 0 {
		out += " else: " + joinStmts(s.OrElse)
	}
	return out
}

func (s *Assert) String() string {
	if s.Msg == nil {
		return "assert " + s.Test.String()
	}
	return "assert " + s.Test.String() + ", " + s.Msg.String()
}

func (s *ExprStmt) String() string { return s.Value.String() }

func (s *Pass) String() string { return "pass" }

func (s *Raise) String() string {
	if s.Exc == nil {
		return "raise"
	}
	return "raise " + s.Exc.String()
}

func (s *For) String() string {
	return "for " + s.Target.String() + " in " + s.Iter.String() + ": " + joinStmts(s.Body)
}

func (s *While) String() string {
	return "while " + s.Test.String() + ": " + joinStmts(s.Body)
}

func (s *UnknownStmt) String() string { return "<" + s.Kind + ">" }

func joinStmts(stmts []Stmt) string {
	parts := make([]string, len(stmts))
	for i, s := range stmts {
		parts[i] = s.String()
	}
	return strings.Join(parts, "; ")
}
