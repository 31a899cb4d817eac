//go:build cgo
// +build cgo

package smt

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newZ3Session(t *testing.T) *Session {
	s, err := NewSession(DefaultConfig())
	require.Nil(t, err)
	t.Cleanup(s.Close)
	return s
}

func Test_Z3Unsat(t *testing.T) {
	s := newZ3Session(t)
	x, err := s.Const("x", IntSort)
	require.Nil(t, err)

	status, err := s.Check(context.Background(), And(Gt(x, IntVal(0)), Lt(x, IntVal(1))))
	require.Nil(t, err)
	assert.Equal(t, Unsat, status)
}

func Test_Z3ModelValues(t *testing.T) {
	s := newZ3Session(t)
	x, _ := s.Const("x", IntSort)
	r, _ := s.Const("r", RealSort)
	str, _ := s.Const("s", StringSort)
	xs, _ := s.Const("xs", SeqSort(IntSort))

	formula := And(
		Eq(x, IntVal(-7)),
		Eq(Mul(r, RealVal(big.NewRat(2, 1))), RealVal(big.NewRat(1, 1))),
		Eq(str, StringVal("a\"b")),
		Eq(SeqLen(xs), IntVal(2)),
		Eq(SeqNth(xs, IntVal(0)), IntVal(3)),
		Eq(SeqNth(xs, IntVal(1)), x),
	)
	status, err := s.Check(context.Background(), formula)
	require.Nil(t, err)
	require.Equal(t, Sat, status)

	v, err := s.Value(x)
	require.Nil(t, err)
	assert.Equal(t, "-7", v.String())

	v, err = s.Value(r)
	require.Nil(t, err)
	assert.Equal(t, "0.5", v.String())

	v, err = s.Value(str)
	require.Nil(t, err)
	assert.Equal(t, "a\"b", v.Str)

	v, err = s.Value(xs)
	require.Nil(t, err)
	assert.Equal(t, "[3, -7]", v.String())
}

func Test_Z3CancelledContext(t *testing.T) {
	s := newZ3Session(t)
	x, _ := s.Const("x", IntSort)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, err := s.Check(ctx, Gt(x, IntVal(0)))
	require.Nil(t, err)
	assert.Equal(t, Unknown, status)
	assert.Equal(t, context.Canceled.Error(), s.ReasonUnknown())
}

func Test_ParseNumeral(t *testing.T) {
	tests := map[string]string{
		"5":           "5/1",
		"(- 5)":       "-5/1",
		"(/ 1 3)":     "1/3",
		"(- (/ 1 3))": "-1/3",
		"2.5":         "5/2",
	}
	for text, want := range tests {
		r, ok := parseNumeral("", text)
		require.True(t, ok, text)
		assert.Equal(t, want, r.String())
	}
	_, ok := parseNumeral("", "(root-obj (+ (^ x 2) (- 2)) 1)")
	assert.False(t, ok)
	assert.Equal(t, "a\\b\x01", unescapeString(`a\u{5c}b\u{1}`))
}

func Test_YicesArithmetic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendYices
	s, err := NewSession(cfg)
	require.Nil(t, err)
	defer s.Close()

	x, _ := s.Const("x", IntSort)
	y, _ := s.Const("y", RealSort)
	status, err := s.Check(context.Background(), And(
		Eq(Mod(x, IntVal(3)), IntVal(2)),
		Gt(x, IntVal(10)),
		Eq(Mul(y, RealVal(big.NewRat(4, 1))), ToReal(x)),
	))
	require.Nil(t, err)
	require.Equal(t, Sat, status)

	xv, err := s.Value(x)
	require.Nil(t, err)
	assert.Equal(t, int64(2), new(big.Int).Mod(xv.Int, big.NewInt(3)).Int64())
	yv, err := s.Value(y)
	require.Nil(t, err)
	assert.Equal(t, 0, new(big.Rat).Mul(yv.Real, big.NewRat(4, 1)).Cmp(new(big.Rat).SetInt(xv.Int)))
}

func Test_YicesRejectsStrings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendYices
	s, err := NewSession(cfg)
	require.Nil(t, err)
	defer s.Close()

	str, _ := s.Const("s", StringSort)
	_, err = s.Check(context.Background(), Eq(StrLen(str), IntVal(1)))
	assert.ErrorIs(t, err, ErrUnsupportedTheory)
}
