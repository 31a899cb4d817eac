//go:build cgo
// +build cgo

package smt

import (
	"context"
	"math/big"
	"sync"
	"time"

	yices2 "github.com/ianamason/yices2_go_bindings/yices_api"
	"github.com/pkg/errors"
)

func init() {
	Register(BackendYices, newYicesSolver)
}

// yices keeps one global term table, so every use goes through yicesMu and
// the library stays initialized while any solver is open.
var (
	yicesMu   sync.Mutex
	yicesRefs int
)

func yicesAcquire() {
	if yicesRefs == 0 {
		yices2.Init()
	}
	yicesRefs++
}

func yicesRelease() {
	yicesRefs--
	if yicesRefs == 0 {
		yices2.Exit()
	}
}

// yicesSolver covers the Bool, Int and Real fragment. Queries over strings,
// sequences or sets fail with ErrUnsupportedTheory.
type yicesSolver struct {
	cfg     Config
	ctx     yices2.ContextT
	hasCtx  bool
	model   *yices2.ModelT
	consts  map[string]yices2.TermT
	reason  string
	checked bool
	closed  bool
}

func newYicesSolver(cfg Config) (Solver, error) {
	yicesMu.Lock()
	defer yicesMu.Unlock()
	yicesAcquire()
	return &yicesSolver{
		cfg:    cfg,
		consts: make(map[string]yices2.TermT),
	}, nil
}

func (s *yicesSolver) Check(ctx context.Context, decls []*Term, formula *Term) (Status, error) {
	yicesMu.Lock()
	defer yicesMu.Unlock()
	if s.checked {
		return Unknown, ErrSessionUsed
	}
	s.checked = true
	if err := ctx.Err(); err != nil {
		s.reason = err.Error()
		return Unknown, nil
	}

	for _, d := range decls {
		typ, err := yicesType(d.sort)
		if err != nil {
			return Unknown, errors.Wrapf(err, "declare %s", d.name)
		}
		term := yices2.NewUninterpretedTerm(typ)
		yices2.SetTermName(term, d.name)
		s.consts[d.name] = term
	}
	f, err := s.term(formula)
	if err != nil {
		return Unknown, err
	}

	var cfg yices2.ConfigT
	yices2.InitConfig(&cfg)
	if isNonLinear(formula) {
		// the default simplex solver rejects non linear atoms
		yices2.SetConfig(cfg, "solver-type", "mcsat")
	}
	yices2.InitContext(cfg, &s.ctx)
	yices2.CloseConfig(&cfg)
	s.hasCtx = true

	if errcode := yices2.AssertFormula(s.ctx, f); errcode < 0 {
		return Unknown, errors.Wrapf(ErrUnsupportedTheory, "yices: %s", yices2.ErrorString())
	}

	var (
		timedOut bool
		stopMu   sync.Mutex
	)
	stop := func(timeout bool) {
		stopMu.Lock()
		timedOut = timedOut || timeout
		stopMu.Unlock()
		yices2.StopSearch(s.ctx)
	}
	timer := time.AfterFunc(s.cfg.deadline(ctx), func() { stop(true) })
	cancelled := context.AfterFunc(ctx, func() { stop(false) })
	status := yices2.CheckContext(s.ctx, yices2.ParamT{})
	timer.Stop()
	cancelled()

	switch status {
	case yices2.StatusSat:
		s.model = yices2.GetModel(s.ctx, 1)
		if s.model == nil {
			return Unknown, ErrNoModel
		}
		return Sat, nil
	case yices2.StatusUnsat:
		return Unsat, nil
	case yices2.StatusInterrupted:
		stopMu.Lock()
		defer stopMu.Unlock()
		if timedOut {
			s.reason = "timeout"
		} else if err := ctx.Err(); err != nil {
			s.reason = err.Error()
		} else {
			s.reason = "interrupted"
		}
		return Unknown, nil
	case yices2.StatusError:
		return Unknown, errors.Errorf("yices: %s", yices2.ErrorString())
	}
	s.reason = "incomplete"
	return Unknown, nil
}

func (s *yicesSolver) ReasonUnknown() string {
	return s.reason
}

func (s *yicesSolver) Value(t *Term) (Value, error) {
	yicesMu.Lock()
	defer yicesMu.Unlock()
	if s.model == nil {
		return Value{}, ErrNoModel
	}
	term, err := s.term(t)
	if err != nil {
		return Value{}, err
	}
	switch t.sort.Kind {
	case KindBool:
		var v int32
		if yices2.GetBoolValue(*s.model, term, &v) < 0 {
			return Value{}, errors.Errorf("yices: %s", yices2.ErrorString())
		}
		return BoolValue(v != 0), nil
	case KindInt:
		var v int64
		if yices2.GetInt64Value(*s.model, term, &v) < 0 {
			return Value{}, errors.Errorf("yices: %s", yices2.ErrorString())
		}
		return IntValue(v), nil
	case KindReal:
		var (
			num int64
			den uint64
		)
		if yices2.GetRational64Value(*s.model, term, &num, &den) < 0 {
			return Value{}, errors.Errorf("yices: %s", yices2.ErrorString())
		}
		r := new(big.Rat).SetFrac(big.NewInt(num), new(big.Int).SetUint64(den))
		return RealValue(r), nil
	}
	return Value{}, ErrUnsupportedTheory
}

func (s *yicesSolver) Close() {
	yicesMu.Lock()
	defer yicesMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.model != nil {
		yices2.CloseModel(s.model)
		s.model = nil
	}
	if s.hasCtx {
		yices2.CloseContext(&s.ctx)
	}
	yicesRelease()
}

func yicesType(sort *Sort) (yices2.TypeT, error) {
	switch sort.Kind {
	case KindBool:
		return yices2.BoolType(), nil
	case KindInt:
		return yices2.IntType(), nil
	case KindReal:
		return yices2.RealType(), nil
	}
	return 0, errors.Wrapf(ErrUnsupportedTheory, "yices sort %s", sort)
}

func isNonLinear(t *Term) bool {
	found := false
	Walk(t, func(sub *Term) {
		switch sub.op {
		case OpDiv, OpIntDiv, OpMod:
			if !sub.args[1].IsLiteral() {
				found = true
			}
		case OpMul:
			symbolic := 0
			for _, arg := range sub.args {
				if !arg.IsLiteral() {
					symbolic++
				}
			}
			if symbolic > 1 {
				found = true
			}
		}
	})
	return found
}

func (s *yicesSolver) terms(args []*Term) ([]yices2.TermT, error) {
	out := make([]yices2.TermT, len(args))
	for i, arg := range args {
		t, err := s.term(arg)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// term translates t into the yices term table. Callers hold yicesMu.
func (s *yicesSolver) term(t *Term) (yices2.TermT, error) {
	switch t.op {
	case OpConst:
		term, ok := s.consts[t.name]
		if !ok {
			return yices2.NullTerm, errors.Errorf("undeclared constant %s", t.name)
		}
		return term, nil
	case OpLit:
		switch v := t.lit.(type) {
		case bool:
			if v {
				return yices2.True(), nil
			}
			return yices2.False(), nil
		case *big.Int:
			return yices2.ParseRational(v.String()), nil
		case *big.Rat:
			return yices2.ParseRational(v.String()), nil
		}
		return yices2.NullTerm, errors.Wrapf(ErrUnsupportedTheory, "yices literal %s", t)
	}

	args, err := s.terms(t.args)
	if err != nil {
		return yices2.NullTerm, err
	}
	switch t.op {
	case OpNot:
		return yices2.Not(args[0]), nil
	case OpAnd:
		return yices2.And(args), nil
	case OpOr:
		return yices2.Or(args), nil
	case OpImplies:
		return yices2.Or2(yices2.Not(args[0]), args[1]), nil
	case OpIte:
		return yices2.Ite(args[0], args[1], args[2]), nil
	case OpEq:
		return yices2.Eq(args[0], args[1]), nil
	case OpLt:
		return yices2.ArithLtAtom(args[0], args[1]), nil
	case OpLe:
		return yices2.ArithLeqAtom(args[0], args[1]), nil
	case OpGt:
		return yices2.ArithGtAtom(args[0], args[1]), nil
	case OpGe:
		return yices2.ArithGeqAtom(args[0], args[1]), nil
	case OpAdd, OpSub, OpMul:
		acc := args[0]
		for _, arg := range args[1:] {
			switch t.op {
			case OpAdd:
				acc = yices2.Add(acc, arg)
			case OpSub:
				acc = yices2.Sub(acc, arg)
			default:
				acc = yices2.Mul(acc, arg)
			}
		}
		return acc, nil
	case OpNeg:
		return yices2.Neg(args[0]), nil
	case OpDiv:
		return yices2.Division(args[0], args[1]), nil
	case OpIntDiv:
		return yices2.Idiv(args[0], args[1]), nil
	case OpMod:
		return yices2.Imod(args[0], args[1]), nil
	case OpToReal:
		// Int is a subtype of Real in yices
		return args[0], nil
	case OpToInt:
		return yices2.Floor(args[0]), nil
	}
	return yices2.NullTerm, errors.Wrapf(ErrUnsupportedTheory, "yices operation %s", t.op)
}
