package prover

import (
	"context"
	"strings"
	"testing"

	"gprover/internal/smt"
	"gprover/internal/syntax"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prove(t *testing.T, fn *syntax.Function) *Theorem {
	th := NewTheorem(fn, testConfig(boundedBackend), DefaultOptions())
	require.Nil(t, th.Prove(context.Background()))
	return th
}

func counterexample(th *Theorem) map[string]string {
	out := make(map[string]string)
	for _, b := range th.Counterexample() {
		out[b.Name] = b.Value.String()
	}
	return out
}

func Test_TheoremProved(t *testing.T) {
	fn := function("inc", []syntax.Param{param("x", "int")}, "int",
		[]syntax.Stmt{ret(bin(name("x"), "+", num(1)))},
		pre(cmp(name("x"), ">", num(0))),
		post(cmp(name(ResultName), ">", num(0))))
	th := prove(t, fn)
	assert.Equal(t, Proved, th.Conclusion())
	assert.Nil(t, th.Error())
	assert.Nil(t, th.Counterexample())
	assert.Equal(t, "proved!", th.Conclusion().String())
}

func Test_TheoremDisproved(t *testing.T) {
	fn := function("dec", []syntax.Param{param("x", "int")}, "int",
		[]syntax.Stmt{ret(bin(name("x"), "-", num(1)))},
		pre(cmp(name("x"), ">=", num(0))),
		post(cmp(name(ResultName), ">=", num(0))))
	th := prove(t, fn)
	assert.Equal(t, Disproved, th.Conclusion())
	assert.Equal(t, map[string]string{"x": "0"}, counterexample(th))
	assert.True(t, th.Validated())
	assert.Equal(t, "failed", th.Conclusion().String())
}

func Test_TheoremIdentity(t *testing.T) {
	fn := function("id", []syntax.Param{param("x", "int")}, "int",
		[]syntax.Stmt{ret(name("x"))},
		post(cmp(name(ResultName), "==", name("x"))))
	assert.Equal(t, Proved, prove(t, fn).Conclusion())
}

func Test_TheoremMissingAnnotation(t *testing.T) {
	fn := function("f", []syntax.Param{param("x", "")}, "int",
		[]syntax.Stmt{ret(name("x"))},
		post(cmp(name(ResultName), "==", name("x"))))
	th := prove(t, fn)
	assert.Equal(t, Skipped, th.Conclusion())
	require.NotNil(t, th.Error())
	assert.True(t, IsUnsupported(th.Error()))
	assert.Contains(t, th.Error().Error(), "unsupported: missing annotation for parameter x")

	fn.Params[0] = param("x", "dict")
	th = prove(t, fn)
	assert.Equal(t, Skipped, th.Conclusion())
	assert.Contains(t, th.Error().Error(), "type dict of parameter x")
}

func Test_TheoremBranches(t *testing.T) {
	abs := function("abs", []syntax.Param{param("x", "int")}, "int",
		[]syntax.Stmt{
			&syntax.If{
				Test:   cmp(name("x"), "<", num(0)),
				Body:   []syntax.Stmt{ret(&syntax.UnaryOp{Op: "-", Operand: name("x")})},
				OrElse: []syntax.Stmt{ret(name("x"))},
			},
		},
		post(cmp(name(ResultName), ">=", num(0))))
	th := prove(t, abs)
	assert.Equal(t, Proved, th.Conclusion())
	paths, err := th.Paths()
	require.Nil(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "(< x 0)", paths[0].Ctx.Given[0].String())
	assert.Equal(t, "(not (< x 0))", paths[1].Ctx.Given[0].String())

	clamp := function("clamp", []syntax.Param{param("x", "int")}, "int",
		[]syntax.Stmt{
			&syntax.If{
				Test: cmp(name("x"), ">", num(2)),
				Body: []syntax.Stmt{ret(bin(name("x"), "-", num(5)))},
			},
			ret(name("x")),
		},
		pre(cmp(name("x"), ">=", num(0))),
		post(cmp(name(ResultName), ">=", num(0))))
	th = prove(t, clamp)
	assert.Equal(t, Disproved, th.Conclusion())
	assert.Equal(t, map[string]string{"x": "3"}, counterexample(th))
	assert.True(t, th.Validated())
}

func Test_TheoremConstantBranch(t *testing.T) {
	fn := function("f", []syntax.Param{param("x", "int")}, "int",
		[]syntax.Stmt{
			&syntax.If{
				Test:   &syntax.Name{ID: "True"},
				Body:   []syntax.Stmt{&syntax.Assign{Targets: []syntax.Expr{name("y")}, Value: num(1)}},
				OrElse: []syntax.Stmt{&syntax.While{Test: name("x")}},
			},
			&syntax.AugAssign{Target: name("y"), Op: "+", Value: name("x")},
			ret(name("y")),
		},
		post(cmp(name(ResultName), "==", bin(name("x"), "+", num(1)))))
	th := prove(t, fn)
	assert.Equal(t, Proved, th.Conclusion())
	paths, err := th.Paths()
	require.Nil(t, err)
	assert.Len(t, paths, 1)
}

func Test_TheoremRaise(t *testing.T) {
	fn := function("sqrt_floor", []syntax.Param{param("x", "int")}, "int",
		[]syntax.Stmt{
			&syntax.ExprStmt{Value: str("returns x when it is not negative")},
			&syntax.If{
				Test: cmp(name("x"), "<", num(0)),
				Body: []syntax.Stmt{&syntax.Raise{Exc: name("ValueError")}},
			},
			ret(name("x")),
		},
		post(cmp(name(ResultName), ">=", num(0))))
	assert.Equal(t, Proved, prove(t, fn).Conclusion())
}

func Test_TheoremAssert(t *testing.T) {
	fn := function("check", []syntax.Param{param("x", "int")}, "int",
		[]syntax.Stmt{
			&syntax.Assert{Test: cmp(name("x"), "!=", num(3))},
			ret(name("x")),
		})
	th := prove(t, fn)
	assert.Equal(t, Disproved, th.Conclusion())
	assert.Equal(t, map[string]string{"x": "3"}, counterexample(th))
	assert.True(t, th.Validated())
}

func Test_TheoremUnsupportedStatements(t *testing.T) {
	bodies := map[string][]syntax.Stmt{
		"unsupported: while loop":     {&syntax.While{Test: name("x")}},
		"unsupported: for loop":       {&syntax.For{Target: name("i"), Iter: name("x")}},
		"unsupported: statement With": {&syntax.UnknownStmt{Kind: "With"}},
	}
	for want, body := range bodies {
		fn := function("f", []syntax.Param{param("x", "int")}, "", body)
		th := prove(t, fn)
		assert.Equal(t, Skipped, th.Conclusion(), want)
		assert.Equal(t, want, th.Error().Error())
	}

	fn := function("f", []syntax.Param{param("x", "int")}, "int",
		[]syntax.Stmt{&syntax.If{Test: name("x"), Body: []syntax.Stmt{ret(num(1))}}},
		post(cmp(name(ResultName), ">", num(0))))
	th := prove(t, fn)
	assert.Equal(t, Skipped, th.Conclusion())
	assert.Contains(t, th.Error().Error(), "path without return value")
}

func Test_TheoremPathLimit(t *testing.T) {
	branch := func(v int64) syntax.Stmt {
		return &syntax.If{
			Test: cmp(name("x"), ">", num(v)),
			Body: []syntax.Stmt{&syntax.AugAssign{Target: name("x"), Op: "-", Value: num(1)}},
		}
	}
	fn := function("f", []syntax.Param{param("x", "int")}, "int",
		[]syntax.Stmt{branch(0), branch(1), ret(name("x"))})

	opts := DefaultOptions()
	opts.MaxPaths = 2
	th := NewTheorem(fn, testConfig(boundedBackend), opts)
	require.Nil(t, th.Prove(context.Background()))
	assert.Equal(t, Skipped, th.Conclusion())
	assert.Equal(t, "unsupported: more than 2 paths at 1:0", th.Error().Error())

	opts.MaxPaths = 4
	th = NewTheorem(fn, testConfig(boundedBackend), opts)
	require.Nil(t, th.Prove(context.Background()))
	assert.Equal(t, Proved, th.Conclusion())
}

func Test_TheoremProveTwice(t *testing.T) {
	fn := function("dec", []syntax.Param{param("x", "int")}, "int",
		[]syntax.Stmt{ret(bin(name("x"), "-", num(1)))},
		post(cmp(name(ResultName), "<", name("x"))))
	th := NewTheorem(fn, testConfig(boundedBackend), DefaultOptions())
	require.Nil(t, th.Prove(context.Background()))
	assert.Equal(t, Proved, th.Conclusion())

	err := th.Prove(context.Background())
	assert.True(t, errors.Is(err, ErrAlreadyProved))
	assert.True(t, errors.Is(th.Configure(testConfig(unknownBackend)), ErrAlreadyProved))

	th.Reset()
	assert.Equal(t, Unproved, th.Conclusion())
	require.Nil(t, th.Prove(context.Background()))
	assert.Equal(t, Proved, th.Conclusion())

	th.Reset()
	require.Nil(t, th.Configure(testConfig(unknownBackend)))
	require.Nil(t, th.Prove(context.Background()))
	assert.Equal(t, Skipped, th.Conclusion())

	th.Reset()
	assert.NotNil(t, th.Configure(smt.Config{Backend: boundedBackend}))
}

func Test_TheoremInconclusive(t *testing.T) {
	fn := function("id", []syntax.Param{param("x", "int")}, "int",
		[]syntax.Stmt{ret(name("x"))},
		post(cmp(name(ResultName), "==", name("x"))))
	th := NewTheorem(fn, testConfig(unknownBackend), DefaultOptions())
	require.Nil(t, th.Prove(context.Background()))
	assert.Equal(t, Skipped, th.Conclusion())
	var inconclusive *InconclusiveError
	require.True(t, errors.As(th.Error(), &inconclusive))
	assert.Equal(t, "solver inconclusive: timeout", inconclusive.Error())
	assert.False(t, IsUnsupported(th.Error()))

	th = NewTheorem(fn, testConfig(noTheoryBackend), DefaultOptions())
	require.Nil(t, th.Prove(context.Background()))
	assert.Equal(t, Skipped, th.Conclusion())
	assert.True(t, IsUnsupported(th.Error()))
}

func Test_TheoremFatalErrors(t *testing.T) {
	fn := function("id", []syntax.Param{param("x", "int")}, "int",
		[]syntax.Stmt{ret(name("x"))})
	th := NewTheorem(fn, testConfig("no-such-backend"), DefaultOptions())
	err := th.Prove(context.Background())
	assert.True(t, errors.Is(err, smt.ErrUnknownBackend))
	assert.Equal(t, Unproved, th.Conclusion())
}

func Test_TheoremSMTLIB(t *testing.T) {
	fn := function("inc", []syntax.Param{param("x", "int")}, "int",
		[]syntax.Stmt{ret(bin(name("x"), "+", num(1)))},
		pre(cmp(name("x"), ">", num(0))),
		post(cmp(name(ResultName), ">", num(0))))
	th := NewTheorem(fn, testConfig(boundedBackend), DefaultOptions())
	script, err := th.SMTLIB()
	require.Nil(t, err)
	assert.Equal(t, strings.Join([]string{
		"(declare-const x Int)",
		"(declare-const result@1 Int)",
		"(assert (and (> x 0) (and (= result@1 (+ x 1)) (not (> result@1 0)))))",
		"(check-sat)",
		"(get-model)",
		"",
	}, "\n"), script)
	th.Reset()
}

const theoremUnit = `{
  "name": "unit.py",
  "definitions": {
    "positive": [{"value": {"kind": "Lambda", "params": ["n"], "body":
      {"kind": "Compare", "left": {"kind": "Name", "id": "n"}, "ops": [">"],
       "comparators": [{"kind": "Const", "value": 0}]}}}]
  },
  "functions": [
    {"name": "inc", "line": 4,
     "params": [{"name": "x", "annotation": {"kind": "Name", "id": "int"}}],
     "returns": {"kind": "Name", "id": "int"},
     "contracts": [
       {"category": "pre", "predicate": {"kind": "Name", "id": "positive"}},
       {"category": "post", "predicate": {"kind": "Lambda", "params": ["r"], "body":
         {"kind": "Compare", "left": {"kind": "Name", "id": "r"}, "ops": [">"],
          "comparators": [{"kind": "Const", "value": 1}]}}}
     ],
     "body": [{"kind": "Return", "value": {"kind": "BinOp", "op": "+",
       "left": {"kind": "Name", "id": "x"}, "right": {"kind": "Const", "value": 1}}}]},
    {"name": "", "body": [{"kind": "Pass"}]},
    {"name": "spin", "line": 12,
     "params": [{"name": "x", "annotation": {"kind": "Name", "id": "int"}}],
     "body": [{"kind": "While", "line": 13, "test": {"kind": "Name", "id": "x"}, "body": [{"kind": "Pass"}]}]}
  ]
}`

func Test_TheoremsFromUnit(t *testing.T) {
	unit, err := syntax.DecodeUnit(strings.NewReader(theoremUnit))
	require.Nil(t, err)
	theorems := TheoremsFromUnit(unit, testConfig(boundedBackend), DefaultOptions())
	require.Len(t, theorems, 3)

	var (
		names       []string
		conclusions []Conclusion
	)
	for _, th := range theorems {
		require.Nil(t, th.Prove(context.Background()))
		names = append(names, th.Name())
		conclusions = append(conclusions, th.Conclusion())
	}
	assert.Equal(t, []string{"inc", "unknown_function", "spin"}, names)
	assert.Equal(t, []Conclusion{Proved, Proved, Skipped}, conclusions)
	assert.Equal(t, "unsupported: while loop at 13:0", theorems[2].Error().Error())
}

func Test_TheoremEmptyMembership(t *testing.T) {
	xs := syntax.Param{Name: "xs", Annotation: &syntax.Subscript{
		Value: name("list"),
		Slice: &syntax.Subscript{Value: name("list"), Slice: name("int")},
	}}
	member := cmp(&syntax.List{}, "in", name("xs"))
	fns := []*syntax.Function{
		function("has_empty", []syntax.Param{xs}, "bool",
			[]syntax.Stmt{ret(member)},
			post(&syntax.UnaryOp{Op: "not", Operand: name(ResultName)})),
		function("lacks_empty", []syntax.Param{xs}, "bool",
			[]syntax.Stmt{ret(cmp(&syntax.List{}, "not in", name("xs")))},
			post(name(ResultName))),
	}
	for _, fn := range fns {
		th := NewTheorem(fn, testConfig(boundedBackend), DefaultOptions())
		require.Nil(t, th.Prove(context.Background()))
		assert.Equal(t, Disproved, th.Conclusion(), fn.Name)
		assert.Equal(t, map[string]string{"xs": "[[]]"}, counterexample(th), fn.Name)
		assert.True(t, th.Validated(), fn.Name)
	}
}

func Test_TheoremUnenumerableSort(t *testing.T) {
	fn := function("echo", []syntax.Param{param("s", "str")}, "str",
		[]syntax.Stmt{ret(name("s"))},
		post(cmp(name(ResultName), "==", str("a"))))
	th := NewTheorem(fn, testConfig(boundedBackend), DefaultOptions())
	require.Nil(t, th.Prove(context.Background()))
	assert.Equal(t, Skipped, th.Conclusion())
	var inconclusive *InconclusiveError
	require.True(t, errors.As(th.Error(), &inconclusive))
	assert.Equal(t, "solver inconclusive: cannot enumerate str", inconclusive.Error())
}
