//go:build cgo
// +build cgo

package smt

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/vhavlena/z3-go/z3"
)

// longest sequence read element by element from a model
const maxModelSeqLen = 64

func init() {
	Register(BackendZ3, newZ3Solver)
}

// z3Solver renders the query to SMT-LIB2 and hands it to Z3. The native
// context is only created once the timeout of the check is known, because
// Z3 reads its parameters at context creation.
type z3Solver struct {
	cfg    Config
	ctx    *z3.Context
	solver *z3.Solver
	model  *z3.Model
	decls  []*Term
	reason string
	// pending is set when a check was abandoned on cancellation
	pending <-chan z3Check
}

func newZ3Solver(cfg Config) (Solver, error) {
	return &z3Solver{cfg: cfg}, nil
}

func (s *z3Solver) Check(ctx context.Context, decls []*Term, formula *Term) (Status, error) {
	if s.ctx != nil {
		return Unknown, ErrSessionUsed
	}
	if err := ctx.Err(); err != nil {
		s.reason = err.Error()
		return Unknown, nil
	}
	timeout := s.cfg.deadline(ctx)

	zcfg := z3.NewConfig()
	zcfg.SetParam("timeout", strconv.FormatInt(timeout.Milliseconds(), 10))
	if s.cfg.ResourceLimit > 0 {
		zcfg.SetParam("rlimit", strconv.FormatUint(s.cfg.ResourceLimit, 10))
	}
	s.ctx = z3.NewContext(zcfg)
	zcfg.Close()
	s.solver = s.ctx.NewSolver()
	s.decls = decls

	if err := s.solver.AssertSMTLIB2String(Script(decls, []*Term{formula}, false)); err != nil {
		return Unknown, errors.Wrapf(ErrUnsupportedTheory, "z3: %v", err)
	}

	// the binding cannot interrupt a running check, so a cancelled context
	// abandons it and Close releases it once it finishes
	solver := s.solver
	check, pending := awaitCheck(ctx, func() z3Check {
		result, err := solver.Check()
		return z3Check{result: result, err: err}
	})
	if pending != nil {
		s.pending = pending
		s.reason = ctx.Err().Error()
		return Unknown, nil
	}

	switch check.result {
	case z3.Sat:
		s.model = s.solver.Model()
		if s.model == nil {
			return Unknown, ErrNoModel
		}
		return Sat, nil
	case z3.Unsat:
		return Unsat, nil
	}
	s.reason = s.solver.ReasonUnknown()
	if s.reason == "" && check.err != nil {
		s.reason = check.err.Error()
	}
	return Unknown, nil
}

type z3Check struct {
	result z3.CheckResult
	err    error
}

func (s *z3Solver) ReasonUnknown() string {
	return s.reason
}

// ast parses t back into the native context. Constants with the same name
// and sort are shared, so the result refers to the asserted constants.
func (s *z3Solver) ast(t *Term) (z3.AST, error) {
	var b strings.Builder
	seen := make(map[string]bool)
	Walk(t, func(sub *Term) {
		if sub.IsConst() && !seen[sub.name] {
			seen[sub.name] = true
			b.WriteString(Declaration(sub))
			b.WriteByte('\n')
		}
	})
	fmt.Fprintf(&b, "(assert (= %s %s))", t.SMTLIB(), t.SMTLIB())
	asts, err := s.ctx.ParseSMTLIB2String(b.String())
	if err != nil {
		return z3.AST{}, errors.Wrapf(err, "parse %s", t)
	}
	if len(asts) != 1 || asts[0].NumChildren() != 2 {
		return z3.AST{}, errors.Errorf("cannot rebuild %s", t)
	}
	return asts[0].Child(0), nil
}

func (s *z3Solver) Value(t *Term) (Value, error) {
	if s.model == nil {
		return Value{}, ErrNoModel
	}
	a, err := s.ast(t)
	if err != nil {
		return Value{}, err
	}
	return s.value(t, s.model.Eval(a, true))
}

func (s *z3Solver) value(t *Term, v z3.AST) (Value, error) {
	text := v.String()
	switch t.sort.Kind {
	case KindBool:
		b, ok := v.BoolValue()
		if !ok {
			return Value{}, errors.Errorf("not a boolean: %s", text)
		}
		return BoolValue(b), nil
	case KindInt:
		r, ok := parseNumeral(v.NumeralString(), text)
		if !ok || !r.IsInt() {
			return Value{}, errors.Errorf("not an integer: %s", text)
		}
		return IntValueBig(r.Num()), nil
	case KindReal:
		r, ok := parseNumeral(v.NumeralString(), text)
		if !ok {
			// algebraic numbers have no exact rational form
			return Value{Sort: t.sort, Raw: text}, nil
		}
		return RealValue(r), nil
	case KindString:
		str, ok := v.AsStringLiteral()
		if !ok {
			return Value{}, errors.Errorf("not a string: %s", text)
		}
		return StringValue(unescapeString(str)), nil
	case KindSeq:
		n, err := s.Value(SeqLen(t))
		if err != nil {
			return Value{}, err
		}
		if !n.Int.IsInt64() || n.Int.Int64() > maxModelSeqLen {
			return Value{Sort: t.sort, Raw: text}, nil
		}
		seq := SeqValue(t.sort)
		for i := int64(0); i < n.Int.Int64(); i++ {
			elem, err := s.Value(SeqNth(t, IntVal(i)))
			if err != nil {
				return Value{}, err
			}
			seq.Elems = append(seq.Elems, elem)
		}
		return seq, nil
	}
	return Value{Sort: t.sort, Raw: text}, nil
}

func (s *z3Solver) Close() {
	if s.pending != nil {
		pending, solver, zctx := s.pending, s.solver, s.ctx
		s.pending, s.solver, s.ctx = nil, nil, nil
		go func() {
			<-pending
			solver.Close()
			zctx.Close()
		}()
		return
	}
	if s.model != nil {
		s.model.Close()
		s.model = nil
	}
	if s.solver != nil {
		s.solver.Close()
		s.solver = nil
	}
	if s.ctx != nil {
		s.ctx.Close()
		s.ctx = nil
	}
}

// parseNumeral reads a numeral either from its numeral string or from its
// printed form: n, n.m, (- x), (/ a b).
func parseNumeral(numeral, text string) (*big.Rat, bool) {
	if numeral != "" {
		if r, ok := new(big.Rat).SetString(numeral); ok {
			return r, true
		}
	}
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "(- ") && strings.HasSuffix(text, ")") {
		r, ok := parseNumeral("", text[3:len(text)-1])
		if !ok {
			return nil, false
		}
		return r.Neg(r), true
	}
	if strings.HasPrefix(text, "(/ ") && strings.HasSuffix(text, ")") {
		parts := strings.Fields(text[3 : len(text)-1])
		if len(parts) != 2 {
			return nil, false
		}
		num, ok1 := parseNumeral("", parts[0])
		den, ok2 := parseNumeral("", parts[1])
		if !ok1 || !ok2 || den.Sign() == 0 {
			return nil, false
		}
		return num.Quo(num, den), true
	}
	return new(big.Rat).SetString(text)
}

// unescapeString decodes the \u{..} escapes Z3 uses in string literals.
func unescapeString(s string) string {
	if !strings.Contains(s, `\u`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+2 < len(s) && s[i+1] == 'u' {
			var hex string
			end := i + 2
			if s[end] == '{' {
				closing := strings.IndexByte(s[end:], '}')
				if closing > 1 {
					hex = s[end+1 : end+closing]
					end += closing + 1
				}
			} else if end+4 <= len(s) {
				hex = s[end : end+4]
				end += 4
			}
			if r, err := strconv.ParseUint(hex, 16, 32); hex != "" && err == nil {
				b.WriteRune(rune(r))
				i = end - 1
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
