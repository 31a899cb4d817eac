//go:build cgo
// +build cgo

package prover

import (
	"context"
	"testing"

	"gprover/internal/smt"
	"gprover/internal/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proveWith(t *testing.T, backend string, fn *syntax.Function) *Theorem {
	th := NewTheorem(fn, testConfig(backend), DefaultOptions())
	require.Nil(t, th.Prove(context.Background()))
	return th
}

func Test_SolverScenarios(t *testing.T) {
	x, y := param("x", "int"), param("y", "int")
	scenarios := []struct {
		name string
		fn   *syntax.Function
		want Conclusion
	}{
		{"positive successor", function("inc", []syntax.Param{x}, "int",
			[]syntax.Stmt{ret(bin(name("x"), "+", num(1)))},
			pre(cmp(name("x"), ">", num(0))),
			post(cmp(name(ResultName), ">", num(0)))), Proved},
		{"predecessor", function("dec", []syntax.Param{x}, "int",
			[]syntax.Stmt{ret(bin(name("x"), "-", num(1)))},
			pre(cmp(name("x"), ">=", num(0))),
			post(cmp(name(ResultName), ">=", num(0)))), Disproved},
		{"unannotated", function("f", []syntax.Param{param("x", "")}, "int",
			[]syntax.Stmt{ret(name("x"))},
			post(cmp(name(ResultName), "==", name("x")))), Skipped},
		{"guarded division", function("div", []syntax.Param{x, y}, "float",
			[]syntax.Stmt{ret(bin(name("x"), "/", name("y")))},
			pre(cmp(name("y"), "!=", num(0))),
			post(name("True"))), Proved},
		{"identity", function("id", []syntax.Param{x}, "int",
			[]syntax.Stmt{ret(name("x"))},
			post(cmp(name(ResultName), "==", name("x")))), Proved},
	}
	for _, backend := range []string{smt.BackendZ3, smt.BackendYices} {
		for _, s := range scenarios {
			th := proveWith(t, backend, s.fn)
			assert.Equal(t, s.want, th.Conclusion(), "%s on %s: %v", s.name, backend, th.Error())
		}
	}

	th := proveWith(t, smt.BackendZ3, scenarios[1].fn)
	assert.Equal(t, map[string]string{"x": "0"}, counterexample(th))
	assert.True(t, th.Validated())
	th = proveWith(t, smt.BackendZ3, scenarios[2].fn)
	assert.Contains(t, th.Error().Error(), "missing annotation")
}

func Test_SolverDivisionByZero(t *testing.T) {
	fn := function("div", []syntax.Param{param("x", "int"), param("y", "int")}, "int",
		[]syntax.Stmt{ret(bin(name("x"), "//", name("y")))})
	th := proveWith(t, smt.BackendZ3, fn)
	assert.Equal(t, Disproved, th.Conclusion())
	assert.Equal(t, "0", counterexample(th)["y"])
	assert.True(t, th.Validated())
}

func Test_SolverFloorSemantics(t *testing.T) {
	minus3 := &syntax.UnaryOp{Op: "-", Operand: num(3)}
	// (x // d) * d + x % d == x
	for _, d := range []syntax.Expr{num(3), minus3} {
		fn := function("divmod", []syntax.Param{param("x", "int")}, "int",
			[]syntax.Stmt{ret(bin(bin(bin(name("x"), "//", d), "*", d), "+", bin(name("x"), "%", d)))},
			post(cmp(name(ResultName), "==", name("x"))))
		assert.Equal(t, Proved, proveWith(t, smt.BackendZ3, fn).Conclusion(), d.String())
	}

	// the remainder takes the sign of the divisor
	fn := function("mod", []syntax.Param{param("x", "int")}, "int",
		[]syntax.Stmt{ret(bin(name("x"), "%", minus3))},
		post(&syntax.Compare{Left: minus3, Ops: []string{"<", "<="}, Comparators: []syntax.Expr{name(ResultName), num(0)}}))
	assert.Equal(t, Proved, proveWith(t, smt.BackendZ3, fn).Conclusion())
}

func Test_SolverStrings(t *testing.T) {
	s := param("s", "str")
	exclaim := function("exclaim", []syntax.Param{s}, "str",
		[]syntax.Stmt{ret(bin(name("s"), "+", str("!")))},
		post(&syntax.Call{
			Func: &syntax.Attribute{Value: name(ResultName), Attr: "endswith"},
			Args: []syntax.Expr{str("!")},
		}))
	assert.Equal(t, Proved, proveWith(t, smt.BackendZ3, exclaim).Conclusion())

	th := proveWith(t, smt.BackendYices, exclaim)
	assert.Equal(t, Skipped, th.Conclusion())
	assert.True(t, IsUnsupported(th.Error()))

	long := function("exclaim", []syntax.Param{s}, "str",
		[]syntax.Stmt{ret(bin(name("s"), "+", str("!")))},
		post(cmp(&syntax.Call{Func: name("len"), Args: []syntax.Expr{name(ResultName)}}, ">", num(2))))
	th = proveWith(t, smt.BackendZ3, long)
	assert.Equal(t, Disproved, th.Conclusion())
	assert.True(t, th.Validated())
}

func Test_SolverCollections(t *testing.T) {
	xs := syntax.Param{Name: "xs", Annotation: &syntax.Subscript{Value: name("list"), Slice: name("int")}}
	first := function("first", []syntax.Param{xs}, "int",
		[]syntax.Stmt{ret(&syntax.Subscript{Value: name("xs"), Slice: num(0)})},
		pre(cmp(&syntax.Call{Func: name("len"), Args: []syntax.Expr{name("xs")}}, ">", num(0))),
		post(cmp(name(ResultName), "in", name("xs"))))
	assert.Equal(t, Proved, proveWith(t, smt.BackendZ3, first).Conclusion())

	first.Contracts = first.Contracts[1:]
	th := proveWith(t, smt.BackendZ3, first)
	assert.Equal(t, Disproved, th.Conclusion())
	assert.Equal(t, "[]", counterexample(th)["xs"])
	assert.True(t, th.Validated())
}

func Test_SolverCancelled(t *testing.T) {
	fn := function("id", []syntax.Param{param("x", "int")}, "int",
		[]syntax.Stmt{ret(name("x"))},
		post(cmp(name(ResultName), "==", name("x"))))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	th := NewTheorem(fn, testConfig(smt.BackendZ3), DefaultOptions())
	require.Nil(t, th.Prove(ctx))
	assert.Equal(t, Skipped, th.Conclusion())
	var inconclusive *InconclusiveError
	assert.ErrorAs(t, th.Error(), &inconclusive)
}
