package smt

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// ErrUndefined is returned by Evaluate for applications SMT-LIB leaves
// unspecified, such as division by zero or seq.nth out of range.
var ErrUndefined = errors.New("undefined application")

// Evaluate computes the concrete value of t with constants bound by env.
func Evaluate(t *Term, env map[string]Value) (Value, error) {
	switch t.op {
	case OpConst:
		v, ok := env[t.name]
		if !ok {
			return Value{}, errors.Errorf("no value for %s", t.name)
		}
		if v.IsOpaque() {
			return Value{}, errors.Errorf("value of %s is opaque: %s", t.name, v.Raw)
		}
		return v, nil
	case OpLit:
		return literalValue(t)
	case OpSeqEmpty:
		return SeqValue(t.sort), nil
	case OpSetEmpty:
		return SetValue(t.sort), nil
	case OpAnd, OpOr:
		// short circuit so guarded subterms are never evaluated
		for _, arg := range t.args {
			v, err := Evaluate(arg, env)
			if err != nil {
				return Value{}, err
			}
			if v.Bool == (t.op == OpOr) {
				return BoolValue(v.Bool), nil
			}
		}
		return BoolValue(t.op == OpAnd), nil
	case OpImplies:
		a, err := Evaluate(t.args[0], env)
		if err != nil {
			return Value{}, err
		}
		if !a.Bool {
			return BoolValue(true), nil
		}
		return Evaluate(t.args[1], env)
	case OpIte:
		c, err := Evaluate(t.args[0], env)
		if err != nil {
			return Value{}, err
		}
		if c.Bool {
			return Evaluate(t.args[1], env)
		}
		return Evaluate(t.args[2], env)
	}

	args := make([]Value, len(t.args))
	for i, arg := range t.args {
		v, err := Evaluate(arg, env)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	return apply(t, args)
}

func literalValue(t *Term) (Value, error) {
	switch v := t.lit.(type) {
	case bool:
		return BoolValue(v), nil
	case *big.Int:
		return IntValueBig(v), nil
	case *big.Rat:
		return RealValue(v), nil
	case string:
		return StringValue(v), nil
	}
	return Value{}, errors.Errorf("unknown literal %T", t.lit)
}

func apply(t *Term, args []Value) (Value, error) {
	switch t.op {
	case OpNot:
		return BoolValue(!args[0].Bool), nil
	case OpEq:
		return BoolValue(args[0].Equal(args[1])), nil
	case OpLt, OpLe, OpGt, OpGe:
		c := cmpNumeric(args[0], args[1])
		switch t.op {
		case OpLt:
			return BoolValue(c < 0), nil
		case OpLe:
			return BoolValue(c <= 0), nil
		case OpGt:
			return BoolValue(c > 0), nil
		default:
			return BoolValue(c >= 0), nil
		}
	case OpAdd, OpSub, OpMul:
		return foldArith(t.op, args), nil
	case OpNeg:
		if args[0].Sort.Kind == KindInt {
			return IntValueBig(new(big.Int).Neg(args[0].Int)), nil
		}
		return RealValue(new(big.Rat).Neg(args[0].Real)), nil
	case OpDiv:
		if args[1].Real.Sign() == 0 {
			return Value{}, errors.Wrapf(ErrUndefined, "%s", t)
		}
		return RealValue(new(big.Rat).Quo(args[0].Real, args[1].Real)), nil
	case OpIntDiv, OpMod:
		if args[1].Int.Sign() == 0 {
			return Value{}, errors.Wrapf(ErrUndefined, "%s", t)
		}
		// big.Int Div and Mod are Euclidean, as in SMT-LIB
		if t.op == OpIntDiv {
			return IntValueBig(new(big.Int).Div(args[0].Int, args[1].Int)), nil
		}
		return IntValueBig(new(big.Int).Mod(args[0].Int, args[1].Int)), nil
	case OpToReal:
		return RealValue(new(big.Rat).SetInt(args[0].Int)), nil
	case OpToInt:
		r := args[0].Real
		return IntValueBig(new(big.Int).Div(r.Num(), r.Denom())), nil
	case OpStrConcat:
		var b strings.Builder
		for _, a := range args {
			b.WriteString(a.Str)
		}
		return StringValue(b.String()), nil
	case OpStrLen:
		return IntValue(int64(len([]rune(args[0].Str)))), nil
	case OpStrContains:
		return BoolValue(strings.Contains(args[0].Str, args[1].Str)), nil
	case OpStrPrefixOf:
		return BoolValue(strings.HasPrefix(args[1].Str, args[0].Str)), nil
	case OpStrSuffixOf:
		return BoolValue(strings.HasSuffix(args[1].Str, args[0].Str)), nil
	case OpStrAt:
		runes := []rune(args[0].Str)
		i := args[1].Int
		if !i.IsInt64() || i.Int64() < 0 || i.Int64() >= int64(len(runes)) {
			return StringValue(""), nil
		}
		return StringValue(string(runes[i.Int64()])), nil
	case OpSeqUnit:
		return SeqValue(t.sort, args[0]), nil
	case OpSeqConcat:
		var elems []Value
		for _, a := range args {
			elems = append(elems, a.Elems...)
		}
		return SeqValue(t.sort, elems...), nil
	case OpSeqLen:
		return IntValue(int64(len(args[0].Elems))), nil
	case OpSeqNth:
		i := args[1].Int
		if !i.IsInt64() || i.Int64() < 0 || i.Int64() >= int64(len(args[0].Elems)) {
			return Value{}, errors.Wrapf(ErrUndefined, "%s", t)
		}
		return args[0].Elems[i.Int64()], nil
	case OpSeqContains:
		return BoolValue(containsRun(args[0].Elems, args[1].Elems)), nil
	case OpSetInsert:
		return SetValue(t.sort, append(append([]Value{}, args[0].Elems...), args[1])...), nil
	case OpSetMember:
		return BoolValue(args[0].has(args[1])), nil
	case OpSetUnion:
		return SetValue(t.sort, append(append([]Value{}, args[0].Elems...), args[1].Elems...)...), nil
	case OpSetIntersect, OpSetMinus:
		var elems []Value
		for _, e := range args[0].Elems {
			if args[1].has(e) == (t.op == OpSetIntersect) {
				elems = append(elems, e)
			}
		}
		return SetValue(t.sort, elems...), nil
	case OpSetSubset:
		for _, e := range args[0].Elems {
			if !args[1].has(e) {
				return BoolValue(false), nil
			}
		}
		return BoolValue(true), nil
	}
	return Value{}, errors.Errorf("cannot evaluate %s", t.op)
}

func cmpNumeric(a, b Value) int {
	if a.Sort.Kind == KindInt {
		return a.Int.Cmp(b.Int)
	}
	return a.Real.Cmp(b.Real)
}

func foldArith(op Op, args []Value) Value {
	if args[0].Sort.Kind == KindInt {
		acc := new(big.Int).Set(args[0].Int)
		for _, a := range args[1:] {
			switch op {
			case OpAdd:
				acc.Add(acc, a.Int)
			case OpSub:
				acc.Sub(acc, a.Int)
			case OpMul:
				acc.Mul(acc, a.Int)
			}
		}
		return Value{Sort: IntSort, Int: acc}
	}
	acc := new(big.Rat).Set(args[0].Real)
	for _, a := range args[1:] {
		switch op {
		case OpAdd:
			acc.Add(acc, a.Real)
		case OpSub:
			acc.Sub(acc, a.Real)
		case OpMul:
			acc.Mul(acc, a.Real)
		}
	}
	return Value{Sort: RealSort, Real: acc}
}

func containsRun(s, sub []Value) bool {
	if len(sub) == 0 {
		return true
	}
outer:
	for i := 0; i+len(sub) <= len(s); i++ {
		for j := range sub {
			if !s[i+j].Equal(sub[j]) {
				continue outer
			}
		}
		return true
	}
	return false
}
