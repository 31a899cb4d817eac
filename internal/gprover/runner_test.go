package gprover

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gprover/internal/cache"
	"gprover/internal/prover"
	"gprover/internal/smt"
	"gprover/internal/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBackend = "runner-test"

// modelSolver answers sat with a fixed model whenever the query mentions
// a constant named x, and unsat otherwise.
type modelSolver struct {
	sat bool
}

func (m *modelSolver) Check(_ context.Context, decls []*smt.Term, _ *smt.Term) (smt.Status, error) {
	for _, d := range decls {
		if d.Name() == "x" {
			m.sat = true
			return smt.Sat, nil
		}
	}
	return smt.Unsat, nil
}

func (m *modelSolver) ReasonUnknown() string { return "" }

func (m *modelSolver) Value(t *smt.Term) (smt.Value, error) {
	return smt.Evaluate(t, map[string]smt.Value{"x": smt.IntValue(0)})
}

func (m *modelSolver) Close() {}

func init() {
	smt.Register(testBackend, func(smt.Config) (smt.Solver, error) {
		return &modelSolver{}, nil
	})
}

const unitSource = `{
  "name": "sample.py",
  "functions": [
    {"name": "dec", "line": 1,
     "params": [{"name": "x", "annotation": {"kind": "Name", "id": "int"}}],
     "returns": {"kind": "Name", "id": "int"},
     "contracts": [{"category": "post", "predicate": {"kind": "Compare",
       "left": {"kind": "Name", "id": "result"}, "ops": [">="],
       "comparators": [{"kind": "Const", "value": 0}]}}],
     "body": [{"kind": "Return", "value": {"kind": "BinOp", "op": "-",
       "left": {"kind": "Name", "id": "x"}, "right": {"kind": "Const", "value": 1}}}]},
    {"name": "one", "line": 5,
     "returns": {"kind": "Name", "id": "int"},
     "body": [{"kind": "Return", "value": {"kind": "Const", "value": 1}}]},
    {"name": "spin", "line": 8,
     "params": [{"name": "y", "annotation": {"kind": "Name", "id": "int"}}],
     "body": [{"kind": "While", "line": 9, "test": {"kind": "Name", "id": "y"}, "body": [{"kind": "Pass"}]}]}
  ]
}`

func writeUnit(t *testing.T, source string) string {
	path := filepath.Join(t.TempDir(), "sample.json")
	require.Nil(t, os.WriteFile(path, []byte(source), 0644))
	return path
}

func newTestRunner(workers int, verdicts *cache.Cache) *Runner {
	cfg := smt.DefaultConfig()
	cfg.Backend = testBackend
	return NewRunner(cfg, prover.DefaultOptions(), workers, verdicts)
}

func Test_LoadUnit(t *testing.T) {
	unit, err := LoadUnit(writeUnit(t, unitSource))
	require.Nil(t, err)
	assert.Equal(t, "sample.py", unit.Name)
	assert.Len(t, unit.Functions, 3)

	path := writeUnit(t, `{"functions": []}`)
	unit, err = LoadUnit(path)
	require.Nil(t, err)
	assert.Equal(t, path, unit.Name)

	_, err = LoadUnit(writeUnit(t, `{"functions": [`))
	assert.NotNil(t, err)
	_, err = LoadUnit(filepath.Join(t.TempDir(), "missing.json"))
	assert.NotNil(t, err)
}

func Test_RunnerRun(t *testing.T) {
	unit, err := LoadUnit(writeUnit(t, unitSource))
	require.Nil(t, err)

	entries, err := newTestRunner(2, nil).Run(context.Background(), []*syntax.Unit{unit})
	require.Nil(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "dec", entries[0].Name)
	assert.Equal(t, prover.Disproved, entries[0].Conclusion)
	assert.Equal(t, []string{"x = 0"}, entries[0].Counterexample)
	assert.True(t, entries[0].Validated)

	assert.Equal(t, "one", entries[1].Name)
	assert.Equal(t, prover.Proved, entries[1].Conclusion)

	assert.Equal(t, "spin", entries[2].Name)
	assert.Equal(t, prover.Skipped, entries[2].Conclusion)
	assert.Contains(t, entries[2].Reason, "while loop")
	for _, e := range entries {
		assert.Equal(t, "sample.py", e.Unit)
		assert.False(t, e.Cached)
	}
}

func Test_RunnerCache(t *testing.T) {
	unit, err := LoadUnit(writeUnit(t, unitSource))
	require.Nil(t, err)
	verdicts, err := cache.Open(filepath.Join(t.TempDir(), "verdicts.db"))
	require.Nil(t, err)
	defer verdicts.Close()

	first, err := newTestRunner(1, verdicts).Run(context.Background(), []*syntax.Unit{unit})
	require.Nil(t, err)
	second, err := newTestRunner(1, verdicts).Run(context.Background(), []*syntax.Unit{unit})
	require.Nil(t, err)
	require.Len(t, second, 3)

	assert.True(t, second[0].Cached)
	assert.True(t, second[1].Cached)
	assert.False(t, second[2].Cached)
	for i := range first {
		assert.Equal(t, first[i].Conclusion, second[i].Conclusion)
		assert.Equal(t, first[i].Counterexample, second[i].Counterexample)
		assert.Equal(t, first[i].Validated, second[i].Validated)
	}
}

func Test_RunnerErrors(t *testing.T) {
	r := newTestRunner(1, nil)
	_, err := r.Run(context.Background(), nil)
	assert.EqualError(t, err, "no function found")

	unit, err := LoadUnit(writeUnit(t, unitSource))
	require.Nil(t, err)
	cfg := smt.DefaultConfig()
	cfg.Backend = "no-such-backend"
	_, err = NewRunner(cfg, prover.DefaultOptions(), 0, nil).Run(context.Background(), []*syntax.Unit{unit})
	assert.NotNil(t, err)
}
