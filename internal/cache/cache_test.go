package cache

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"gprover/internal/prover"
	"gprover/internal/smt"
	"gprover/internal/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// answerSolver answers every query with a fixed status and model.
type answerSolver struct {
	status smt.Status
	model  map[string]smt.Value
}

func (a *answerSolver) Check(context.Context, []*smt.Term, *smt.Term) (smt.Status, error) {
	return a.status, nil
}
func (a *answerSolver) ReasonUnknown() string { return "" }
func (a *answerSolver) Value(t *smt.Term) (smt.Value, error) {
	return smt.Evaluate(t, a.model)
}
func (a *answerSolver) Close() {}

func init() {
	smt.Register("cache-unsat", func(smt.Config) (smt.Solver, error) {
		return &answerSolver{status: smt.Unsat}, nil
	})
	smt.Register("cache-sat", func(smt.Config) (smt.Solver, error) {
		return &answerSolver{status: smt.Sat, model: map[string]smt.Value{"x": smt.IntValue(-2)}}, nil
	})
}

func identity(body ...syntax.Stmt) *syntax.Function {
	return &syntax.Function{
		Name:     "id",
		Params:   []syntax.Param{{Name: "x", Annotation: &syntax.Name{ID: "int"}}},
		Returns:  &syntax.Name{ID: "int"},
		Body:     body,
		Resolver: syntax.NewResolver(),
	}
}

func proved(t *testing.T, backend string, fn *syntax.Function) *prover.Theorem {
	cfg := smt.DefaultConfig()
	cfg.Backend = backend
	opts := prover.DefaultOptions()
	opts.Validate = false
	th := prover.NewTheorem(fn, cfg, opts)
	require.Nil(t, th.Prove(context.Background()))
	return th
}

func Test_Key(t *testing.T) {
	fn := identity(&syntax.Return{Value: &syntax.Name{ID: "x"}})
	cfg := smt.DefaultConfig()
	opts := prover.DefaultOptions()

	key := Key(fn, cfg, opts)
	assert.Len(t, key, 32)
	assert.Equal(t, key, Key(fn, cfg, opts))

	cfg.Backend = smt.BackendYices
	assert.NotEqual(t, key, Key(fn, cfg, opts))

	other := identity(&syntax.Return{Value: &syntax.Const{Value: big.NewInt(1)}})
	assert.NotEqual(t, key, Key(other, smt.DefaultConfig(), opts))
}

func Test_CachePutGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verdicts.db")
	c, err := Open(path)
	require.Nil(t, err)

	fn := identity(&syntax.Return{Value: &syntax.Name{ID: "x"}})
	key := Key(fn, smt.DefaultConfig(), prover.DefaultOptions())

	v, err := c.Get(key)
	require.Nil(t, err)
	assert.Nil(t, v)

	verdict, ok := FromTheorem(proved(t, "cache-sat", fn))
	require.True(t, ok)
	require.Nil(t, c.Put(key, verdict))
	require.Nil(t, c.Close())

	c, err = Open(path)
	require.Nil(t, err)
	defer c.Close()
	v, err = c.Get(key)
	require.Nil(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "failed", v.Conclusion)
	assert.False(t, v.Proved())
	assert.Equal(t, []Binding{{Name: "x", Value: "-2"}}, v.Counterexample)
}

func Test_FromTheorem(t *testing.T) {
	fn := identity(&syntax.Return{Value: &syntax.Name{ID: "x"}})
	v, ok := FromTheorem(proved(t, "cache-unsat", fn))
	require.True(t, ok)
	assert.True(t, v.Proved())
	assert.Empty(t, v.Counterexample)

	loop := identity(&syntax.While{Test: &syntax.Name{ID: "x"}})
	_, ok = FromTheorem(proved(t, "cache-unsat", loop))
	assert.False(t, ok)
}
