package smt

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSolver answers Sat and serves values from a fixed model.
type recordingSolver struct {
	decls   []*Term
	formula *Term
	model   map[string]Value
	closed  int
}

func (r *recordingSolver) Check(_ context.Context, decls []*Term, formula *Term) (Status, error) {
	r.decls = decls
	r.formula = formula
	return Sat, nil
}

func (r *recordingSolver) ReasonUnknown() string { return "" }

func (r *recordingSolver) Value(t *Term) (Value, error) {
	return Evaluate(t, r.model)
}

func (r *recordingSolver) Close() { r.closed++ }

func Test_SessionLifecycle(t *testing.T) {
	rec := &recordingSolver{model: map[string]Value{"x": IntValue(4)}}
	Register("recording", func(Config) (Solver, error) { return rec, nil })

	cfg := DefaultConfig()
	cfg.Backend = "recording"
	s, err := NewSession(cfg)
	require.Nil(t, err)

	x, err := s.Const("x", IntSort)
	require.Nil(t, err)
	_, err = s.Const("x", RealSort)
	assert.NotNil(t, err)

	r1 := s.Fresh("result", IntSort)
	r2 := s.Fresh("result", IntSort)
	assert.NotEqual(t, r1.Name(), r2.Name())
	assert.Len(t, s.Decls(), 3)

	_, err = s.Value(x)
	assert.Equal(t, ErrNoModel, err)

	formula := Gt(x, IntVal(0))
	assert.Contains(t, s.Script(formula, true), "(assert (> x 0))\n(check-sat)")

	status, err := s.Check(context.Background(), formula)
	require.Nil(t, err)
	assert.Equal(t, Sat, status)
	assert.Same(t, formula, rec.formula)
	assert.Len(t, rec.decls, 3)

	v, err := s.Value(Add(x, IntVal(1)))
	require.Nil(t, err)
	assert.Equal(t, "5", v.String())

	_, err = s.Check(context.Background(), formula)
	assert.True(t, errors.Is(err, ErrSessionUsed))

	s.Close()
	s.Close()
	assert.Equal(t, 1, rec.closed)
}

func Test_SessionConfig(t *testing.T) {
	_, err := NewSession(Config{Backend: "no-such-backend", Timeout: time.Second})
	assert.True(t, errors.Is(err, ErrUnknownBackend))

	_, err = NewSession(Config{Backend: BackendZ3})
	assert.NotNil(t, err)

	cfg := DefaultConfig()
	assert.Nil(t, cfg.Validate())
	assert.Equal(t, BackendZ3, cfg.Backend)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func Test_ConfigDeadline(t *testing.T) {
	cfg := Config{Backend: BackendZ3, Timeout: time.Minute}
	assert.Equal(t, time.Minute, cfg.deadline(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.True(t, cfg.deadline(ctx) <= time.Second)

	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()
	assert.Equal(t, time.Millisecond, cfg.deadline(expired))
}

func Test_AwaitCheck(t *testing.T) {
	result, pending := awaitCheck(context.Background(), func() int { return 7 })
	assert.Equal(t, 7, result)
	assert.Nil(t, pending)

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	result, pending = awaitCheck(ctx, func() int {
		<-release
		return 3
	})
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 0, result)
	require.NotNil(t, pending)

	close(release)
	assert.Equal(t, 3, <-pending)
}
