package prover

import (
	"math/big"

	"gprover/internal/smt"
	"gprover/internal/syntax"
)

// largest literal exponent expanded into repeated multiplication
const maxPower = 16

// Eval translates an expression into a term in the current scope. Side
// conditions of partial operations are recorded as obligations.
func (c *Context) Eval(e syntax.Expr) (*smt.Term, error) {
	return c.evalHint(e, nil)
}

// evalHint evaluates e; hint is the sort expected of e, used to type empty
// collection literals.
func (c *Context) evalHint(e syntax.Expr, hint *smt.Sort) (*smt.Term, error) {
	switch e := e.(type) {
	case *syntax.Name:
		return c.evalName(e)
	case *syntax.Const:
		return evalConst(e)
	case *syntax.UnaryOp:
		return c.evalUnaryOp(e)
	case *syntax.BinOp:
		return c.evalBinOp(e)
	case *syntax.BoolOp:
		return c.evalBoolOp(e)
	case *syntax.Compare:
		return c.evalCompare(e)
	case *syntax.IfExp:
		return c.evalIfExp(e)
	case *syntax.Call:
		return c.evalCall(e)
	case *syntax.Subscript:
		return c.evalSubscript(e)
	case *syntax.List:
		return c.evalCollection(e, e.Elts, hint, smt.KindSeq)
	case *syntax.Set:
		return c.evalCollection(e, e.Elts, hint, smt.KindSet)
	case *syntax.Attribute:
		return nil, unsupported(e, "attribute access %s", e)
	case *syntax.Tuple:
		return nil, unsupported(e, "tuple %s", e)
	case *syntax.Lambda:
		return nil, unsupported(e, "lambda in expression")
	case *syntax.UnknownExpr:
		return nil, unsupported(e, "expression %s", e.Kind)
	case nil:
		return nil, unsupported(nil, "missing expression")
	default:
		return nil, unsupported(e, "expression %T", e)
	}
}

func (c *Context) evalName(e *syntax.Name) (*smt.Term, error) {
	if c.Scope.Has(e.ID) {
		return c.Scope.Get(e.ID)
	}
	switch e.ID {
	case "True":
		return smt.True(), nil
	case "False":
		return smt.False(), nil
	}
	// module level constants
	if def, ok := c.Resolver.InferOne(e); ok {
		if lit, ok := def.Value.(*syntax.Const); ok {
			return evalConst(lit)
		}
	}
	return nil, unsupported(e, "unresolved name %s", e.ID)
}

func evalConst(e *syntax.Const) (*smt.Term, error) {
	switch v := e.Value.(type) {
	case bool:
		return smt.BoolVal(v), nil
	case *big.Int:
		return smt.IntValBig(v), nil
	case *big.Rat:
		return smt.RealVal(v), nil
	case string:
		return smt.StringVal(v), nil
	case nil:
		return nil, unsupported(e, "None value")
	}
	return nil, unsupported(e, "literal %s", e)
}

func zero(sort *smt.Sort) *smt.Term {
	if sort.Kind == smt.KindReal {
		return smt.RealVal(new(big.Rat))
	}
	return smt.IntVal(0)
}

func one(sort *smt.Sort) *smt.Term {
	if sort.Kind == smt.KindReal {
		return smt.RealVal(big.NewRat(1, 1))
	}
	return smt.IntVal(1)
}

func bothNumeric(a, b *smt.Term) bool {
	return a.Sort().IsNumeric() && b.Sort().IsNumeric()
}

// promote lifts an int operand to real when the other one is real.
func promote(a, b *smt.Term) (*smt.Term, *smt.Term) {
	if a.Sort().Kind == smt.KindReal || b.Sort().Kind == smt.KindReal {
		return smt.ToReal(a), smt.ToReal(b)
	}
	return a, b
}

// truthy is the boolean value of t in a condition.
func truthy(node syntax.Node, t *smt.Term) (*smt.Term, error) {
	sort := t.Sort()
	switch sort.Kind {
	case smt.KindBool:
		return t, nil
	case smt.KindInt, smt.KindReal:
		return smt.Neq(t, zero(sort)), nil
	case smt.KindString:
		return smt.Gt(smt.StrLen(t), smt.IntVal(0)), nil
	case smt.KindSeq:
		return smt.Gt(smt.SeqLen(t), smt.IntVal(0)), nil
	case smt.KindSet:
		return smt.Neq(t, smt.SetEmpty(sort)), nil
	}
	return nil, unsupported(node, "truth value of %s", sort)
}

func isEmptyLiteral(e syntax.Expr) bool {
	switch e := e.(type) {
	case *syntax.List:
		return len(e.Elts) == 0
	case *syntax.Set:
		return len(e.Elts) == 0
	}
	return false
}

// evalPair evaluates two operands, typing an empty collection literal on
// either side from the other one. Membership types the element side from
// the container's element sort and the container side from the element.
func (c *Context) evalPair(op string, a, b syntax.Expr) (*smt.Term, *smt.Term, error) {
	if isEmptyLiteral(a) && !isEmptyLiteral(b) {
		r, err := c.Eval(b)
		if err != nil {
			return nil, nil, err
		}
		hint := r.Sort()
		if isMembership(op) {
			hint = r.Sort().Elem
		}
		l, err := c.evalHint(a, hint)
		return l, r, err
	}
	l, err := c.Eval(a)
	if err != nil {
		return nil, nil, err
	}
	r, err := c.evalHint(b, rightHint(op, b, l.Sort()))
	return l, r, err
}

func isMembership(op string) bool {
	return op == "in" || op == "not in"
}

// rightHint is the sort an empty literal e on the right of op takes when
// the left operand has sort left.
func rightHint(op string, e syntax.Expr, left *smt.Sort) *smt.Sort {
	if !isMembership(op) {
		return left
	}
	switch e.(type) {
	case *syntax.List:
		return smt.SeqSort(left)
	case *syntax.Set:
		return smt.SetSort(left)
	}
	return nil
}

func (c *Context) evalUnaryOp(e *syntax.UnaryOp) (*smt.Term, error) {
	operand, err := c.Eval(e.Operand)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "not":
		b, err := truthy(e, operand)
		if err != nil {
			return nil, err
		}
		return smt.Not(b), nil
	case "-":
		if operand.Sort().IsNumeric() {
			return smt.Neg(operand), nil
		}
	case "+":
		if operand.Sort().IsNumeric() {
			return operand, nil
		}
	}
	return nil, unsupported(e, "unary %s on %s", e.Op, operand.Sort())
}

func (c *Context) evalBinOp(e *syntax.BinOp) (*smt.Term, error) {
	l, r, err := c.evalPair(e.Op, e.Left, e.Right)
	if err != nil {
		return nil, err
	}
	return c.binary(e, e.Op, l, r)
}

// binary applies a binary operator. It is shared by expressions and
// augmented assignment.
func (c *Context) binary(node syntax.Node, op string, l, r *smt.Term) (*smt.Term, error) {
	ls, rs := l.Sort(), r.Sort()
	switch op {
	case "+":
		switch {
		case bothNumeric(l, r):
			a, b := promote(l, r)
			return smt.Add(a, b), nil
		case ls.Kind == smt.KindString && rs.Kind == smt.KindString:
			return smt.StrConcat(l, r), nil
		case ls.Kind == smt.KindSeq && ls.Equal(rs):
			return smt.SeqConcat(l, r), nil
		}
	case "-":
		switch {
		case bothNumeric(l, r):
			a, b := promote(l, r)
			return smt.Sub(a, b), nil
		case ls.Kind == smt.KindSet && ls.Equal(rs):
			return smt.SetMinus(l, r), nil
		}
	case "*":
		if bothNumeric(l, r) {
			a, b := promote(l, r)
			return smt.Mul(a, b), nil
		}
	case "/":
		if bothNumeric(l, r) {
			a, b := smt.ToReal(l), smt.ToReal(r)
			c.Expect(smt.Neq(b, zero(smt.RealSort)))
			return smt.Div(a, b), nil
		}
	case "//":
		if ls.Kind == smt.KindInt && rs.Kind == smt.KindInt {
			c.Expect(smt.Neq(r, smt.IntVal(0)))
			return floorDiv(l, r), nil
		}
		if bothNumeric(l, r) {
			a, b := smt.ToReal(l), smt.ToReal(r)
			c.Expect(smt.Neq(b, zero(smt.RealSort)))
			return smt.ToReal(smt.ToInt(smt.Div(a, b))), nil
		}
	case "%":
		if ls.Kind == smt.KindInt && rs.Kind == smt.KindInt {
			c.Expect(smt.Neq(r, smt.IntVal(0)))
			return pyMod(l, r), nil
		}
	case "**":
		if ls.IsNumeric() {
			return power(node, l, r)
		}
	case "|":
		if ls.Kind == smt.KindSet && ls.Equal(rs) {
			return smt.SetUnion(l, r), nil
		}
	case "&":
		if ls.Kind == smt.KindSet && ls.Equal(rs) {
			return smt.SetIntersect(l, r), nil
		}
	}
	return nil, unsupported(node, "operator %s on %s and %s", op, ls, rs)
}

func literalSign(t *smt.Term) (int, bool) {
	if !t.IsLiteral() {
		return 0, false
	}
	switch v := t.Literal().(type) {
	case *big.Int:
		return v.Sign(), true
	case *big.Rat:
		return v.Sign(), true
	}
	return 0, false
}

// floorDiv is integer division rounding toward negative infinity.
func floorDiv(x, y *smt.Term) *smt.Term {
	if sign, ok := literalSign(y); ok {
		if sign > 0 {
			return smt.IntDiv(x, y)
		}
		return smt.IntDiv(smt.Neg(x), smt.Neg(y))
	}
	return smt.Ite(smt.Gt(y, smt.IntVal(0)),
		smt.IntDiv(x, y),
		smt.IntDiv(smt.Neg(x), smt.Neg(y)))
}

// pyMod is the remainder matching floorDiv; it takes the sign of y.
func pyMod(x, y *smt.Term) *smt.Term {
	if sign, ok := literalSign(y); ok && sign > 0 {
		return smt.Mod(x, y)
	}
	return smt.Sub(x, smt.Mul(y, floorDiv(x, y)))
}

func power(node syntax.Node, base, exp *smt.Term) (*smt.Term, error) {
	n, ok := exp.Literal().(*big.Int)
	if !exp.IsLiteral() || !ok || n.Sign() < 0 || n.Cmp(big.NewInt(maxPower)) > 0 {
		return nil, unsupported(node, "power with exponent %s", exp)
	}
	if n.Sign() == 0 {
		return one(base.Sort()), nil
	}
	factors := make([]*smt.Term, n.Int64())
	for i := range factors {
		factors[i] = base
	}
	return smt.Mul(factors...), nil
}

func (c *Context) evalBoolOp(e *syntax.BoolOp) (*smt.Term, error) {
	if e.Op != "and" && e.Op != "or" {
		return nil, unsupported(e, "boolean operator %s", e.Op)
	}
	var (
		values []*smt.Term
		// conditions under which the next operand is evaluated
		reached []*smt.Term
	)
	for _, operand := range e.Values {
		v, err := c.guarded(smt.And(reached...), func() (*smt.Term, error) {
			return c.Eval(operand)
		})
		if err != nil {
			return nil, err
		}
		if v.Sort().Kind != smt.KindBool {
			return nil, unsupported(operand, "%s on %s operand", e.Op, v.Sort())
		}
		values = append(values, v)
		if e.Op == "and" {
			reached = append(reached, v)
		} else {
			reached = append(reached, smt.Not(v))
		}
	}
	if e.Op == "and" {
		return smt.And(values...), nil
	}
	return smt.Or(values...), nil
}

func (c *Context) evalCompare(e *syntax.Compare) (*smt.Term, error) {
	if len(e.Ops) == 1 {
		l, r, err := c.evalPair(e.Ops[0], e.Left, e.Comparators[0])
		if err != nil {
			return nil, err
		}
		return c.compare(e, e.Ops[0], l, r)
	}
	// a < b < c is a < b and b < c, with b evaluated once
	prev, err := c.Eval(e.Left)
	if err != nil {
		return nil, err
	}
	var results []*smt.Term
	for i, op := range e.Ops {
		next, err := c.guarded(smt.And(results...), func() (*smt.Term, error) {
			return c.evalHint(e.Comparators[i], rightHint(op, e.Comparators[i], prev.Sort()))
		})
		if err != nil {
			return nil, err
		}
		result, err := c.compare(e, op, prev, next)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
		prev = next
	}
	return smt.And(results...), nil
}

func (c *Context) compare(node syntax.Node, op string, l, r *smt.Term) (*smt.Term, error) {
	switch op {
	case "==":
		return equal(node, l, r)
	case "!=":
		eq, err := equal(node, l, r)
		if err != nil {
			return nil, err
		}
		return smt.Not(eq), nil
	case "<", "<=", ">", ">=":
		if !bothNumeric(l, r) {
			return nil, unsupported(node, "ordering %s on %s and %s", op, l.Sort(), r.Sort())
		}
		a, b := promote(l, r)
		switch op {
		case "<":
			return smt.Lt(a, b), nil
		case "<=":
			return smt.Le(a, b), nil
		case ">":
			return smt.Gt(a, b), nil
		default:
			return smt.Ge(a, b), nil
		}
	case "in":
		return membership(node, l, r)
	case "not in":
		in, err := membership(node, l, r)
		if err != nil {
			return nil, err
		}
		return smt.Not(in), nil
	}
	return nil, unsupported(node, "comparison %s", op)
}

// equal follows source semantics: numbers compare by value across int and
// float, values of unrelated types are never equal.
func equal(node syntax.Node, l, r *smt.Term) (*smt.Term, error) {
	ls, rs := l.Sort(), r.Sort()
	switch {
	case ls.Equal(rs):
		return smt.Eq(l, r), nil
	case bothNumeric(l, r):
		a, b := promote(l, r)
		return smt.Eq(a, b), nil
	case ls.Kind == smt.KindBool && rs.IsNumeric(), rs.Kind == smt.KindBool && ls.IsNumeric():
		return nil, unsupported(node, "comparing %s with %s", ls, rs)
	case ls.Kind == rs.Kind && (ls.Kind == smt.KindSeq || ls.Kind == smt.KindSet):
		return nil, unsupported(node, "comparing %s with %s", ls, rs)
	}
	return smt.False(), nil
}

// coerce converts t to sort where the source language would compare them
// by value. ok is false when no value of t can equal a value of sort.
func coerce(node syntax.Node, t *smt.Term, sort *smt.Sort) (*smt.Term, bool, error) {
	switch {
	case t.Sort().Equal(sort):
		return t, true, nil
	case t.Sort().Kind == smt.KindInt && sort.Kind == smt.KindReal:
		return smt.ToReal(t), true, nil
	case t.Sort().IsNumeric() && sort.IsNumeric(),
		t.Sort().Kind == smt.KindBool && sort.IsNumeric(),
		sort.Kind == smt.KindBool && t.Sort().IsNumeric():
		return nil, false, unsupported(node, "%s element of %s collection", t.Sort(), sort)
	}
	return nil, false, nil
}

func membership(node syntax.Node, elem, container *smt.Term) (*smt.Term, error) {
	cs := container.Sort()
	switch cs.Kind {
	case smt.KindString:
		if elem.Sort().Kind != smt.KindString {
			return nil, unsupported(node, "%s in str", elem.Sort())
		}
		return smt.StrContains(container, elem), nil
	case smt.KindSeq, smt.KindSet:
		e, ok, err := coerce(node, elem, cs.Elem)
		if err != nil {
			return nil, err
		}
		if !ok {
			return smt.False(), nil
		}
		if cs.Kind == smt.KindSeq {
			return smt.SeqContains(container, smt.SeqUnit(e)), nil
		}
		return smt.SetMember(e, container), nil
	}
	return nil, unsupported(node, "membership in %s", cs)
}

func (c *Context) evalIfExp(e *syntax.IfExp) (*smt.Term, error) {
	test, err := c.Eval(e.Test)
	if err != nil {
		return nil, err
	}
	cond, err := truthy(e.Test, test)
	if err != nil {
		return nil, err
	}
	body, err := c.guarded(cond, func() (*smt.Term, error) { return c.Eval(e.Body) })
	if err != nil {
		return nil, err
	}
	orElse, err := c.guarded(smt.Not(cond), func() (*smt.Term, error) {
		return c.evalHint(e.OrElse, body.Sort())
	})
	if err != nil {
		return nil, err
	}
	if bothNumeric(body, orElse) {
		body, orElse = promote(body, orElse)
	}
	if !body.Sort().Equal(orElse.Sort()) {
		return nil, unsupported(e, "conditional of %s and %s", body.Sort(), orElse.Sort())
	}
	return smt.Ite(cond, body, orElse), nil
}

func (c *Context) evalSubscript(e *syntax.Subscript) (*smt.Term, error) {
	value, err := c.Eval(e.Value)
	if err != nil {
		return nil, err
	}
	index, err := c.Eval(e.Slice)
	if err != nil {
		return nil, err
	}
	if index.Sort().Kind != smt.KindInt {
		return nil, unsupported(e, "index of sort %s", index.Sort())
	}
	var length *smt.Term
	switch value.Sort().Kind {
	case smt.KindString:
		length = smt.StrLen(value)
	case smt.KindSeq:
		length = smt.SeqLen(value)
	default:
		return nil, unsupported(e, "indexing %s", value.Sort())
	}
	c.Expect(smt.And(smt.Le(smt.Neg(length), index), smt.Lt(index, length)))
	pos := index
	if sign, ok := literalSign(index); !ok {
		pos = smt.Ite(smt.Lt(index, smt.IntVal(0)), smt.Add(length, index), index)
	} else if sign < 0 {
		pos = smt.Add(length, index)
	}
	if value.Sort().Kind == smt.KindString {
		return smt.StrAt(value, pos), nil
	}
	return smt.SeqNth(value, pos), nil
}

func (c *Context) evalCollection(node syntax.Node, elts []syntax.Expr, hint *smt.Sort, kind smt.SortKind) (*smt.Term, error) {
	var elem *smt.Sort
	if hint != nil && hint.Kind == kind {
		elem = hint.Elem
	}
	values := make([]*smt.Term, 0, len(elts))
	for _, elt := range elts {
		var eltHint *smt.Sort
		if elem != nil {
			eltHint = elem
		}
		v, err := c.evalHint(elt, eltHint)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		switch {
		case elem == nil:
			elem = v.Sort()
		case elem.Kind == smt.KindInt && v.Sort().Kind == smt.KindReal:
			elem = smt.RealSort
		}
	}
	if elem == nil {
		return nil, unsupported(node, "empty collection of unknown type")
	}
	for i, v := range values {
		promoted, ok, err := coerce(node, v, elem)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, unsupported(node, "collection mixing %s and %s", elem, v.Sort())
		}
		values[i] = promoted
	}
	if kind == smt.KindSeq {
		if len(values) == 0 {
			return smt.SeqEmpty(smt.SeqSort(elem)), nil
		}
		units := make([]*smt.Term, len(values))
		for i, v := range values {
			units[i] = smt.SeqUnit(v)
		}
		return smt.SeqConcat(units...), nil
	}
	set := smt.SetEmpty(smt.SetSort(elem))
	for _, v := range values {
		set = smt.SetInsert(set, v)
	}
	return set, nil
}
