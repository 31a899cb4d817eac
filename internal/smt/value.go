package smt

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// decimal places kept when printing a non terminating real
const realDigits = 16

// Value is a concrete value of some sort, as read from a model or computed
// by Evaluate. Raw holds the backend text of values that could not be
// decoded structurally; such values print but do not evaluate.
type Value struct {
	Sort  *Sort
	Bool  bool
	Int   *big.Int
	Real  *big.Rat
	Str   string
	Elems []Value
	Raw   string
}

func BoolValue(b bool) Value       { return Value{Sort: BoolSort, Bool: b} }
func IntValue(v int64) Value       { return Value{Sort: IntSort, Int: big.NewInt(v)} }
func IntValueBig(v *big.Int) Value { return Value{Sort: IntSort, Int: new(big.Int).Set(v)} }
func RealValue(v *big.Rat) Value   { return Value{Sort: RealSort, Real: new(big.Rat).Set(v)} }
func StringValue(s string) Value   { return Value{Sort: StringSort, Str: s} }

func SeqValue(sort *Sort, elems ...Value) Value {
	return Value{Sort: sort, Elems: elems}
}

// SetValue builds a set, dropping duplicate elements.
func SetValue(sort *Sort, elems ...Value) Value {
	v := Value{Sort: sort}
	for _, e := range elems {
		if !v.has(e) {
			v.Elems = append(v.Elems, e)
		}
	}
	return v
}

func (v Value) IsOpaque() bool { return v.Raw != "" }

func (v Value) has(e Value) bool {
	for _, x := range v.Elems {
		if x.Equal(e) {
			return true
		}
	}
	return false
}

// Equal compares two values of the same sort. Opaque values are equal only
// to an identical rendering.
func (v Value) Equal(other Value) bool {
	if !v.Sort.Equal(other.Sort) {
		return false
	}
	if v.IsOpaque() || other.IsOpaque() {
		return v.Raw == other.Raw
	}
	switch v.Sort.Kind {
	case KindBool:
		return v.Bool == other.Bool
	case KindInt:
		return v.Int.Cmp(other.Int) == 0
	case KindReal:
		return v.Real.Cmp(other.Real) == 0
	case KindString:
		return v.Str == other.Str
	case KindSeq:
		if len(v.Elems) != len(other.Elems) {
			return false
		}
		for i := range v.Elems {
			if !v.Elems[i].Equal(other.Elems[i]) {
				return false
			}
		}
		return true
	case KindSet:
		if len(v.Elems) != len(other.Elems) {
			return false
		}
		for _, e := range v.Elems {
			if !other.has(e) {
				return false
			}
		}
		return true
	}
	return false
}

// Term lifts the value back into the term algebra.
func (v Value) Term() (*Term, bool) {
	if v.IsOpaque() {
		return nil, false
	}
	switch v.Sort.Kind {
	case KindBool:
		return BoolVal(v.Bool), true
	case KindInt:
		return IntValBig(v.Int), true
	case KindReal:
		return RealVal(v.Real), true
	case KindString:
		return StringVal(v.Str), true
	case KindSeq:
		if len(v.Elems) == 0 {
			return SeqEmpty(v.Sort), true
		}
		parts := make([]*Term, 0, len(v.Elems))
		for _, e := range v.Elems {
			t, ok := e.Term()
			if !ok {
				return nil, false
			}
			parts = append(parts, SeqUnit(t))
		}
		return SeqConcat(parts...), true
	case KindSet:
		set := SetEmpty(v.Sort)
		for _, e := range v.Elems {
			t, ok := e.Term()
			if !ok {
				return nil, false
			}
			set = SetInsert(set, t)
		}
		return set, true
	}
	return nil, false
}

// String renders the value as a source-level literal.
func (v Value) String() string {
	if v.IsOpaque() {
		return v.Raw
	}
	switch v.Sort.Kind {
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindInt:
		return v.Int.String()
	case KindReal:
		return formatReal(v.Real)
	case KindString:
		return quotePython(v.Str)
	case KindSeq:
		return "[" + joinValues(v.Elems) + "]"
	case KindSet:
		if len(v.Elems) == 0 {
			return "set()"
		}
		return "{" + joinValues(v.Elems) + "}"
	}
	return "?"
}

func formatReal(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String() + ".0"
	}
	num := decimal.NewFromBigInt(r.Num(), 0)
	den := decimal.NewFromBigInt(r.Denom(), 0)
	return num.DivRound(den, realDigits).String()
}

func quotePython(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func joinValues(values []Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
