package smt

import (
	"fmt"
	"math/big"
)

type Op string

const (
	OpConst Op = "const"
	OpLit   Op = "lit"

	OpNot     Op = "not"
	OpAnd     Op = "and"
	OpOr      Op = "or"
	OpImplies Op = "=>"
	OpIte     Op = "ite"
	OpEq      Op = "="

	OpLt     Op = "<"
	OpLe     Op = "<="
	OpGt     Op = ">"
	OpGe     Op = ">="
	OpAdd    Op = "+"
	OpSub    Op = "-"
	OpMul    Op = "*"
	OpNeg    Op = "neg"
	OpDiv    Op = "/"
	OpIntDiv Op = "div"
	OpMod    Op = "mod"
	OpToReal Op = "to_real"
	OpToInt  Op = "to_int"

	OpStrConcat   Op = "str.++"
	OpStrLen      Op = "str.len"
	OpStrContains Op = "str.contains"
	OpStrPrefixOf Op = "str.prefixof"
	OpStrSuffixOf Op = "str.suffixof"
	OpStrAt       Op = "str.at"

	OpSeqEmpty    Op = "seq.empty"
	OpSeqUnit     Op = "seq.unit"
	OpSeqConcat   Op = "seq.++"
	OpSeqLen      Op = "seq.len"
	OpSeqNth      Op = "seq.nth"
	OpSeqContains Op = "seq.contains"

	OpSetEmpty     Op = "set.empty"
	OpSetInsert    Op = "store"
	OpSetMember    Op = "select"
	OpSetUnion     Op = "union"
	OpSetIntersect Op = "intersection"
	OpSetMinus     Op = "setminus"
	OpSetSubset    Op = "subset"
)

// Term is an immutable node of the term algebra, always tagged with its sort.
// Builders panic when given ill-sorted arguments: that is a bug in the caller,
// which is expected to check sorts before building.
type Term struct {
	sort *Sort
	op   Op
	name string
	lit  interface{}
	args []*Term
}

func (t *Term) Sort() *Sort     { return t.sort }
func (t *Term) Op() Op          { return t.op }
func (t *Term) Name() string    { return t.name }
func (t *Term) Args() []*Term   { return t.args }
func (t *Term) IsConst() bool   { return t.op == OpConst }
func (t *Term) IsLiteral() bool { return t.op == OpLit }

// Literal returns the Go value of a literal term: bool, *big.Int, *big.Rat or string.
func (t *Term) Literal() interface{} { return t.lit }

// BoolLiteral reports the value of a boolean literal.
func (t *Term) BoolLiteral() (value bool, ok bool) {
	if t.op != OpLit || t.sort.Kind != KindBool {
		return false, false
	}
	return t.lit.(bool), true
}

func (t *Term) IsTrue() bool {
	v, ok := t.BoolLiteral()
	return ok && v
}

func (t *Term) IsFalse() bool {
	v, ok := t.BoolLiteral()
	return ok && !v
}

func (t *Term) String() string { return t.SMTLIB() }

func mk(sort *Sort, op Op, args ...*Term) *Term {
	return &Term{sort: sort, op: op, args: args}
}

// NewConst returns an uninterpreted constant. Names are not checked for
// uniqueness here; Session owns the namespace.
func NewConst(name string, sort *Sort) *Term {
	return &Term{sort: sort, op: OpConst, name: name}
}

var (
	trueTerm  = &Term{sort: BoolSort, op: OpLit, lit: true}
	falseTerm = &Term{sort: BoolSort, op: OpLit, lit: false}
)

func True() *Term  { return trueTerm }
func False() *Term { return falseTerm }

func BoolVal(b bool) *Term {
	if b {
		return trueTerm
	}
	return falseTerm
}

func IntVal(v int64) *Term {
	return &Term{sort: IntSort, op: OpLit, lit: big.NewInt(v)}
}

func IntValBig(v *big.Int) *Term {
	return &Term{sort: IntSort, op: OpLit, lit: new(big.Int).Set(v)}
}

func RealVal(v *big.Rat) *Term {
	return &Term{sort: RealSort, op: OpLit, lit: new(big.Rat).Set(v)}
}

func StringVal(s string) *Term {
	return &Term{sort: StringSort, op: OpLit, lit: s}
}

func mustSort(kind SortKind, terms ...*Term) {
	for _, t := range terms {
		if t.sort.Kind != kind {
			panic(fmt.Sprintf("smt: expected %s term, got %s: %s", (&Sort{Kind: kind}).String(), t.sort, t))
		}
	}
}

func mustSame(a, b *Term) {
	if !a.sort.Equal(b.sort) {
		panic(fmt.Sprintf("smt: sort mismatch %s vs %s", a.sort, b.sort))
	}
}

func mustNumeric(terms ...*Term) {
	for _, t := range terms {
		if !t.sort.IsNumeric() {
			panic(fmt.Sprintf("smt: expected numeric term, got %s: %s", t.sort, t))
		}
	}
}

func Not(a *Term) *Term {
	mustSort(KindBool, a)
	if v, ok := a.BoolLiteral(); ok {
		return BoolVal(!v)
	}
	if a.op == OpNot {
		return a.args[0]
	}
	return mk(BoolSort, OpNot, a)
}

// And folds literal arguments; And() is true.
func And(terms ...*Term) *Term {
	mustSort(KindBool, terms...)
	args := make([]*Term, 0, len(terms))
	for _, t := range terms {
		if t.IsFalse() {
			return falseTerm
		}
		if t.IsTrue() {
			continue
		}
		args = append(args, t)
	}
	switch len(args) {
	case 0:
		return trueTerm
	case 1:
		return args[0]
	}
	return mk(BoolSort, OpAnd, args...)
}

// Or folds literal arguments; Or() is false.
func Or(terms ...*Term) *Term {
	mustSort(KindBool, terms...)
	args := make([]*Term, 0, len(terms))
	for _, t := range terms {
		if t.IsTrue() {
			return trueTerm
		}
		if t.IsFalse() {
			continue
		}
		args = append(args, t)
	}
	switch len(args) {
	case 0:
		return falseTerm
	case 1:
		return args[0]
	}
	return mk(BoolSort, OpOr, args...)
}

func Implies(a, b *Term) *Term {
	mustSort(KindBool, a, b)
	if a.IsTrue() {
		return b
	}
	if a.IsFalse() || b.IsTrue() {
		return trueTerm
	}
	return mk(BoolSort, OpImplies, a, b)
}

func Ite(cond, then, els *Term) *Term {
	mustSort(KindBool, cond)
	mustSame(then, els)
	if v, ok := cond.BoolLiteral(); ok {
		if v {
			return then
		}
		return els
	}
	return mk(then.sort, OpIte, cond, then, els)
}

func Eq(a, b *Term) *Term {
	mustSame(a, b)
	return mk(BoolSort, OpEq, a, b)
}

func Neq(a, b *Term) *Term {
	return Not(Eq(a, b))
}

func compare(op Op, a, b *Term) *Term {
	mustNumeric(a, b)
	mustSame(a, b)
	return mk(BoolSort, op, a, b)
}

func Lt(a, b *Term) *Term { return compare(OpLt, a, b) }
func Le(a, b *Term) *Term { return compare(OpLe, a, b) }
func Gt(a, b *Term) *Term { return compare(OpGt, a, b) }
func Ge(a, b *Term) *Term { return compare(OpGe, a, b) }

func arith(op Op, terms ...*Term) *Term {
	if len(terms) == 0 {
		panic("smt: arithmetic with no arguments")
	}
	mustNumeric(terms...)
	for _, t := range terms[1:] {
		mustSame(terms[0], t)
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return mk(terms[0].sort, op, terms...)
}

func Add(terms ...*Term) *Term { return arith(OpAdd, terms...) }
func Sub(a, b *Term) *Term     { return arith(OpSub, a, b) }
func Mul(terms ...*Term) *Term { return arith(OpMul, terms...) }

// Neg folds numeric literals.
func Neg(a *Term) *Term {
	mustNumeric(a)
	switch v := a.lit.(type) {
	case *big.Int:
		return IntValBig(new(big.Int).Neg(v))
	case *big.Rat:
		return RealVal(new(big.Rat).Neg(v))
	}
	return mk(a.sort, OpNeg, a)
}

// Div is real division.
func Div(a, b *Term) *Term {
	mustSort(KindReal, a, b)
	return mk(RealSort, OpDiv, a, b)
}

// IntDiv and Mod are the SMT-LIB Euclidean operators.
func IntDiv(a, b *Term) *Term {
	mustSort(KindInt, a, b)
	return mk(IntSort, OpIntDiv, a, b)
}

func Mod(a, b *Term) *Term {
	mustSort(KindInt, a, b)
	return mk(IntSort, OpMod, a, b)
}

func ToReal(a *Term) *Term {
	if a.sort.Kind == KindReal {
		return a
	}
	mustSort(KindInt, a)
	return mk(RealSort, OpToReal, a)
}

// ToInt is the floor of a real.
func ToInt(a *Term) *Term {
	if a.sort.Kind == KindInt {
		return a
	}
	mustSort(KindReal, a)
	return mk(IntSort, OpToInt, a)
}

func StrConcat(terms ...*Term) *Term {
	mustSort(KindString, terms...)
	if len(terms) == 1 {
		return terms[0]
	}
	return mk(StringSort, OpStrConcat, terms...)
}

func StrLen(s *Term) *Term {
	mustSort(KindString, s)
	return mk(IntSort, OpStrLen, s)
}

// StrContains is true when sub occurs in s.
func StrContains(s, sub *Term) *Term {
	mustSort(KindString, s, sub)
	return mk(BoolSort, OpStrContains, s, sub)
}

func StrPrefixOf(prefix, s *Term) *Term {
	mustSort(KindString, prefix, s)
	return mk(BoolSort, OpStrPrefixOf, prefix, s)
}

func StrSuffixOf(suffix, s *Term) *Term {
	mustSort(KindString, suffix, s)
	return mk(BoolSort, OpStrSuffixOf, suffix, s)
}

func StrAt(s, i *Term) *Term {
	mustSort(KindString, s)
	mustSort(KindInt, i)
	return mk(StringSort, OpStrAt, s, i)
}

func SeqEmpty(sort *Sort) *Term {
	if sort.Kind != KindSeq {
		panic("smt: seq.empty of non sequence sort " + sort.String())
	}
	return mk(sort, OpSeqEmpty)
}

func SeqUnit(elem *Term) *Term {
	return mk(SeqSort(elem.sort), OpSeqUnit, elem)
}

func SeqConcat(terms ...*Term) *Term {
	mustSort(KindSeq, terms...)
	for _, t := range terms[1:] {
		mustSame(terms[0], t)
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return mk(terms[0].sort, OpSeqConcat, terms...)
}

func SeqLen(s *Term) *Term {
	mustSort(KindSeq, s)
	return mk(IntSort, OpSeqLen, s)
}

// SeqNth is unspecified outside 0 <= i < len(s); callers guard it.
func SeqNth(s, i *Term) *Term {
	mustSort(KindSeq, s)
	mustSort(KindInt, i)
	return mk(s.sort.Elem, OpSeqNth, s, i)
}

// SeqContains is true when sub is a contiguous subsequence of s.
func SeqContains(s, sub *Term) *Term {
	mustSort(KindSeq, s)
	mustSame(s, sub)
	return mk(BoolSort, OpSeqContains, s, sub)
}

func SetEmpty(sort *Sort) *Term {
	if sort.Kind != KindSet {
		panic("smt: empty set of non set sort " + sort.String())
	}
	return mk(sort, OpSetEmpty)
}

func SetInsert(set, elem *Term) *Term {
	mustSort(KindSet, set)
	if !set.sort.Elem.Equal(elem.sort) {
		panic(fmt.Sprintf("smt: inserting %s into %s", elem.sort, set.sort))
	}
	return mk(set.sort, OpSetInsert, set, elem)
}

func SetMember(elem, set *Term) *Term {
	mustSort(KindSet, set)
	if !set.sort.Elem.Equal(elem.sort) {
		panic(fmt.Sprintf("smt: membership of %s in %s", elem.sort, set.sort))
	}
	return mk(BoolSort, OpSetMember, set, elem)
}

func setOp(op Op, a, b *Term) *Term {
	mustSort(KindSet, a, b)
	mustSame(a, b)
	return mk(a.sort, op, a, b)
}

func SetUnion(a, b *Term) *Term     { return setOp(OpSetUnion, a, b) }
func SetIntersect(a, b *Term) *Term { return setOp(OpSetIntersect, a, b) }
func SetMinus(a, b *Term) *Term     { return setOp(OpSetMinus, a, b) }

func SetSubset(a, b *Term) *Term {
	mustSort(KindSet, a, b)
	mustSame(a, b)
	return mk(BoolSort, OpSetSubset, a, b)
}

// Walk visits t and its subterms depth first.
func Walk(t *Term, visit func(*Term)) {
	visit(t)
	for _, arg := range t.args {
		Walk(arg, visit)
	}
}
