package prover

import (
	"context"
	"math/big"

	"gprover/internal/smt"
	"gprover/internal/syntax"

	"github.com/pkg/errors"
)

const (
	boundedBackend   = "bounded"
	unknownBackend   = "gives-up"
	noTheoryBackend  = "no-theory"
	enumerationBound = 4
)

func init() {
	smt.Register(boundedBackend, func(smt.Config) (smt.Solver, error) {
		return &boundedSolver{bound: enumerationBound}, nil
	})
	smt.Register(unknownBackend, func(smt.Config) (smt.Solver, error) {
		return &fixedSolver{status: smt.Unknown, reason: "timeout"}, nil
	})
	smt.Register(noTheoryBackend, func(smt.Config) (smt.Solver, error) {
		return &fixedSolver{err: errors.Wrapf(smt.ErrUnsupportedTheory, "sort str")}, nil
	})
}

// boundedSolver decides a query by trying every assignment of bool and int
// constants within [-bound, bound] and of sequences of such values with at
// most one element. A query over any other sort is answered unknown.
type boundedSolver struct {
	bound  int64
	model  map[string]smt.Value
	reason string
}

func (b *boundedSolver) Check(_ context.Context, decls []*smt.Term, formula *smt.Term) (smt.Status, error) {
	domains := make([][]smt.Value, len(decls))
	for i, d := range decls {
		domains[i] = b.candidates(d.Sort())
		if domains[i] == nil {
			b.reason = "cannot enumerate " + d.Sort().String()
			return smt.Unknown, nil
		}
	}
	env := make(map[string]smt.Value, len(decls))
	if b.search(decls, domains, formula, env) {
		b.model = env
		return smt.Sat, nil
	}
	return smt.Unsat, nil
}

func (b *boundedSolver) candidates(sort *smt.Sort) []smt.Value {
	switch sort.Kind {
	case smt.KindBool:
		return []smt.Value{smt.BoolValue(false), smt.BoolValue(true)}
	case smt.KindInt:
		var values []smt.Value
		for i := -b.bound; i <= b.bound; i++ {
			values = append(values, smt.IntValue(i))
		}
		return values
	case smt.KindSeq:
		elems := b.candidates(sort.Elem)
		if elems == nil {
			return nil
		}
		values := []smt.Value{smt.SeqValue(sort)}
		for _, e := range elems {
			values = append(values, smt.SeqValue(sort, e))
		}
		return values
	}
	return nil
}

func (b *boundedSolver) search(decls []*smt.Term, domains [][]smt.Value, formula *smt.Term, env map[string]smt.Value) bool {
	if len(decls) == 0 {
		v, err := smt.Evaluate(formula, env)
		return err == nil && v.Bool
	}
	d := decls[0]
	for _, c := range domains[0] {
		env[d.Name()] = c
		if b.search(decls[1:], domains[1:], formula, env) {
			return true
		}
	}
	delete(env, d.Name())
	return false
}

func (b *boundedSolver) ReasonUnknown() string { return b.reason }

func (b *boundedSolver) Value(t *smt.Term) (smt.Value, error) {
	return smt.Evaluate(t, b.model)
}

func (b *boundedSolver) Close() {}

type fixedSolver struct {
	status smt.Status
	reason string
	err    error
}

func (f *fixedSolver) Check(context.Context, []*smt.Term, *smt.Term) (smt.Status, error) {
	return f.status, f.err
}

func (f *fixedSolver) ReasonUnknown() string             { return f.reason }
func (f *fixedSolver) Value(*smt.Term) (smt.Value, error) { return smt.Value{}, smt.ErrNoModel }
func (f *fixedSolver) Close()                             {}

func testConfig(backend string) smt.Config {
	cfg := smt.DefaultConfig()
	cfg.Backend = backend
	return cfg
}

func name(id string) *syntax.Name { return &syntax.Name{ID: id} }

func num(v int64) *syntax.Const { return &syntax.Const{Value: big.NewInt(v)} }

func str(s string) *syntax.Const { return &syntax.Const{Value: s} }

func bin(l syntax.Expr, op string, r syntax.Expr) *syntax.BinOp {
	return &syntax.BinOp{Op: op, Left: l, Right: r}
}

func cmp(l syntax.Expr, op string, r syntax.Expr) *syntax.Compare {
	return &syntax.Compare{Left: l, Ops: []string{op}, Comparators: []syntax.Expr{r}}
}

func ret(e syntax.Expr) *syntax.Return { return &syntax.Return{Value: e} }

func param(n, annotation string) syntax.Param {
	p := syntax.Param{Name: n}
	if annotation != "" {
		p.Annotation = name(annotation)
	}
	return p
}

func pre(e syntax.Expr) syntax.Contract {
	return syntax.Contract{Category: syntax.CategoryPre, Predicate: e}
}

func post(e syntax.Expr) syntax.Contract {
	return syntax.Contract{Category: syntax.CategoryPost, Predicate: e}
}

func function(n string, params []syntax.Param, returns string, body []syntax.Stmt, contracts ...syntax.Contract) *syntax.Function {
	fn := &syntax.Function{
		Name:      n,
		Pos:       syntax.Pos{Line: 1, Col: 0},
		Params:    params,
		Body:      body,
		Contracts: contracts,
		Resolver:  syntax.NewResolver(),
	}
	if returns != "" {
		fn.Returns = name(returns)
	}
	return fn
}

// intContext returns a context over the bounded backend with an int
// constant bound for every name.
func intContext(names ...string) (*Context, error) {
	ctx, err := MakeEmpty(testConfig(boundedBackend), syntax.NewResolver())
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		c, err := ctx.Session.Const(n, smt.IntSort)
		if err != nil {
			return nil, err
		}
		ctx.Scope.Set(n, c)
	}
	return ctx, nil
}
