package prover

import (
	"context"

	"gprover/internal/smt"
	"gprover/internal/syntax"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const unknownFunction = "unknown_function"

type Conclusion int

const (
	Unproved Conclusion = iota
	Proved
	Skipped
	Disproved
)

func (c Conclusion) String() string {
	switch c {
	case Proved:
		return "proved!"
	case Skipped:
		return "skipped"
	case Disproved:
		return "failed"
	}
	return "unproved"
}

type Options struct {
	// MaxPaths bounds branch enumeration; 0 means no bound.
	MaxPaths int
	// Validate re-evaluates counterexamples concretely.
	Validate bool
	Logger   *log.Entry
}

func DefaultOptions() Options {
	return Options{
		MaxPaths: 64,
		Validate: true,
	}
}

// Argument is one function parameter and the constant standing for it.
type Argument struct {
	Name  string
	Sort  *smt.Sort
	Const *smt.Term
}

// Binding is one concrete argument value of a counterexample.
type Binding struct {
	Name  string
	Value smt.Value
}

// derived holds everything a proof attempt computes from the function. Each
// slot is filled on first use; Reset drops them all at once.
type derived struct {
	arguments  []Argument
	context    *Context
	paths      []*Path
	pathsDone  bool
	result     *smt.Term
	resultDone bool
	returns    map[*Path]*smt.Term
	contracts  *Contracts
	constraint *smt.Term
}

// Theorem is the claim that a function satisfies its contracts. It moves
// from Unproved to one of Proved, Skipped or Disproved on Prove.
type Theorem struct {
	fn   *syntax.Function
	cfg  smt.Config
	opts Options

	d derived

	conclusion     Conclusion
	err            error
	counterexample []Binding
	validated      bool
}

func NewTheorem(fn *syntax.Function, cfg smt.Config, opts Options) *Theorem {
	if opts.Logger == nil {
		opts.Logger = log.NewEntry(log.StandardLogger())
	}
	return &Theorem{
		fn:   fn,
		cfg:  cfg,
		opts: opts,
	}
}

// TheoremsFromUnit returns one theorem per function of unit, in source order.
func TheoremsFromUnit(unit *syntax.Unit, cfg smt.Config, opts Options) []*Theorem {
	theorems := make([]*Theorem, 0, len(unit.Functions))
	for _, fn := range unit.Functions {
		if fn.Resolver == nil {
			fn.Resolver = unit.Resolver
		}
		theorems = append(theorems, NewTheorem(fn, cfg, opts))
	}
	return theorems
}

func (t *Theorem) Name() string {
	if t.fn == nil || t.fn.Name == "" {
		return unknownFunction
	}
	return t.fn.Name
}

func (t *Theorem) Function() *syntax.Function { return t.fn }
func (t *Theorem) Config() smt.Config          { return t.cfg }
func (t *Theorem) Conclusion() Conclusion      { return t.conclusion }

// Error is why the theorem was skipped, nil otherwise.
func (t *Theorem) Error() error { return t.err }

// Counterexample is set when the theorem is Disproved.
func (t *Theorem) Counterexample() []Binding { return t.counterexample }

// Validated reports whether the counterexample was confirmed by concrete
// evaluation.
func (t *Theorem) Validated() bool { return t.validated }

// Configure replaces the solver configuration. The theorem must be
// Unproved; call Reset first to retry with other limits.
func (t *Theorem) Configure(cfg smt.Config) error {
	if t.conclusion != Unproved {
		return ErrAlreadyProved
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	t.release()
	t.d = derived{}
	t.cfg = cfg
	return nil
}

// Reset drops the verdict and every derived value, keeping the function.
func (t *Theorem) Reset() {
	t.release()
	t.d = derived{}
	t.conclusion = Unproved
	t.err = nil
	t.counterexample = nil
	t.validated = false
}

func (t *Theorem) release() {
	if t.d.context != nil {
		t.d.context.Close()
	}
}

// Arguments maps every parameter annotation to a sort.
func (t *Theorem) Arguments() ([]Argument, error) {
	if t.d.arguments != nil {
		return t.d.arguments, nil
	}
	args := make([]Argument, 0, len(t.fn.Params))
	for _, p := range t.fn.Params {
		if p.Annotation == nil {
			return nil, unsupportedAt(t.fn.Pos, "missing annotation for parameter %s", p.Name)
		}
		sort := SortOf(p.Annotation, t.fn.Resolver)
		if sort == nil {
			return nil, unsupported(p.Annotation, "type %s of parameter %s", p.Annotation, p.Name)
		}
		args = append(args, Argument{Name: p.Name, Sort: sort})
	}
	t.d.arguments = args
	return args, nil
}

// Context returns the entry context: a fresh session with one constant per
// argument bound in scope.
func (t *Theorem) Context() (*Context, error) {
	if t.d.context != nil {
		return t.d.context, nil
	}
	args, err := t.Arguments()
	if err != nil {
		return nil, err
	}
	ctx, err := MakeEmpty(t.cfg, t.fn.Resolver)
	if err != nil {
		return nil, err
	}
	for i, arg := range args {
		c, err := ctx.Session.Const(arg.Name, arg.Sort)
		if err != nil {
			ctx.Close()
			return nil, unsupportedAt(t.fn.Pos, "parameter %s: %v", arg.Name, err)
		}
		args[i].Const = c
		ctx.Scope.Set(arg.Name, c)
	}
	t.d.context = ctx
	return ctx, nil
}

// Paths runs the body from the entry context.
func (t *Theorem) Paths() ([]*Path, error) {
	if t.d.pathsDone {
		return t.d.paths, nil
	}
	ctx, err := t.Context()
	if err != nil {
		return nil, err
	}
	paths, err := EvalStmts(t.fn, ctx, t.opts.MaxPaths)
	if err != nil {
		return nil, err
	}
	t.d.paths, t.d.pathsDone = paths, true
	return paths, nil
}

// Result is the constant standing for the returned value, nil when the
// function returns nothing. Its sort comes from the return annotation, or
// from the returned values when there is none.
func (t *Theorem) Result() (*smt.Term, error) {
	if t.d.resultDone {
		return t.d.result, nil
	}
	paths, err := t.Paths()
	if err != nil {
		return nil, err
	}
	var sort *smt.Sort
	if t.fn.Returns != nil {
		sort = SortOf(t.fn.Returns, t.fn.Resolver)
	}
	if sort == nil {
		for _, p := range paths {
			if p.Result == nil {
				continue
			}
			s := p.Result.Sort()
			switch {
			case sort == nil:
				sort = s
			case sort.Equal(s):
			case sort.IsNumeric() && s.IsNumeric():
				sort = smt.RealSort
			default:
				return nil, unsupportedAt(p.Pos, "returns of %s and %s", sort, s)
			}
		}
	}
	if sort != nil {
		t.d.result = t.d.context.Session.Fresh(ResultName, sort)
	}
	t.d.resultDone = true
	return t.d.result, nil
}

func (t *Theorem) Contracts() (*Contracts, error) {
	if t.d.contracts != nil {
		return t.d.contracts, nil
	}
	result, err := t.Result()
	if err != nil {
		return nil, err
	}
	contracts, err := EvalContracts(t.fn, t.d.context, result)
	if err != nil {
		return nil, err
	}
	t.d.contracts = contracts
	return contracts, nil
}

// Constraint is the negated claim. It is satisfiable exactly when some
// input meeting the precondition breaks an obligation or the
// postcondition on some path:
//
//	pre and (path_1 or ... or path_n)
//	path_i = given_i and result = result_i and not (expected_i and post)
func (t *Theorem) Constraint() (*smt.Term, error) {
	if t.d.constraint != nil {
		return t.d.constraint, nil
	}
	contracts, err := t.Contracts()
	if err != nil {
		return nil, err
	}
	result := t.d.result
	t.d.returns = make(map[*Path]*smt.Term)
	var violations []*smt.Term
	for _, p := range t.d.paths {
		parts := append([]*smt.Term(nil), p.Ctx.Given...)
		owed := append([]*smt.Term(nil), p.Ctx.Expected...)
		switch {
		case p.End == Raised:
		case result == nil:
			owed = append(owed, contracts.Post)
		case p.Result == nil:
			return nil, unsupportedAt(p.Pos, "path without return value (%s)", p.End)
		default:
			value, ok, err := coerce(nil, p.Result, result.Sort())
			if err != nil || !ok {
				return nil, unsupportedAt(p.Pos, "returning %s from %s function", p.Result.Sort(), result.Sort())
			}
			t.d.returns[p] = value
			parts = append(parts, smt.Eq(result, value))
			owed = append(owed, contracts.Post)
		}
		parts = append(parts, smt.Not(smt.And(owed...)))
		violations = append(violations, smt.And(parts...))
	}
	t.d.constraint = smt.And(contracts.Pre, smt.Or(violations...))
	return t.d.constraint, nil
}

// SMTLIB renders the query Prove sends to the solver.
func (t *Theorem) SMTLIB() (string, error) {
	constraint, err := t.Constraint()
	if err != nil {
		return "", err
	}
	return t.d.context.Session.Script(constraint, true), nil
}

// Prove decides the theorem. Constructs that cannot be modelled and
// inconclusive solver answers make it Skipped and are not returned as
// errors. A non-nil error is a failure of the run itself.
func (t *Theorem) Prove(ctx context.Context) error {
	if t.conclusion != Unproved {
		return ErrAlreadyProved
	}
	defer t.release()

	constraint, err := t.Constraint()
	if err != nil {
		return t.skip(err)
	}
	session := t.d.context.Session
	if t.cfg.Debug {
		t.opts.Logger.Debugf("%s query:\n%s", t.Name(), session.Script(constraint, true))
	}
	status, err := session.Check(ctx, constraint)
	if err != nil {
		return t.skip(err)
	}
	switch status {
	case smt.Unsat:
		t.conclusion = Proved
	case smt.Unknown:
		t.conclusion = Skipped
		t.err = &InconclusiveError{Reason: session.ReasonUnknown()}
	case smt.Sat:
		if err := t.extract(); err != nil {
			return errors.Wrapf(err, "counterexample of %s", t.Name())
		}
		t.conclusion = Disproved
		if t.opts.Validate {
			t.validated = t.validate()
			if !t.validated {
				t.opts.Logger.Warnf("counterexample of %s does not replay", t.Name())
			}
		}
	}
	return nil
}

func (t *Theorem) skip(err error) error {
	if IsUnsupported(err) {
		t.conclusion = Skipped
		t.err = err
		return nil
	}
	if errors.Is(err, smt.ErrUnsupportedTheory) {
		t.conclusion = Skipped
		t.err = &UnsupportedError{What: err.Error(), Pos: t.fn.Pos}
		return nil
	}
	return err
}

func (t *Theorem) extract() error {
	session := t.d.context.Session
	bindings := make([]Binding, 0, len(t.d.arguments))
	for _, arg := range t.d.arguments {
		value, err := session.Value(arg.Const)
		if err != nil {
			return errors.Wrapf(err, "value of %s", arg.Name)
		}
		bindings = append(bindings, Binding{Name: arg.Name, Value: value})
	}
	t.counterexample = bindings
	return nil
}

// validate replays the counterexample: on the path it selects, an
// obligation or the postcondition must actually fail.
func (t *Theorem) validate() bool {
	env := make(map[string]smt.Value, len(t.counterexample)+1)
	for _, b := range t.counterexample {
		if b.Value.IsOpaque() {
			return false
		}
		env[b.Name] = b.Value
	}
	eval := func(f *smt.Term) (bool, bool) {
		v, err := smt.Evaluate(f, env)
		return v.Bool, err == nil
	}
	if pre, ok := eval(t.d.contracts.Pre); !ok || !pre {
		return false
	}
	for _, p := range t.d.paths {
		if given, ok := eval(smt.And(p.Ctx.Given...)); !ok || !given {
			continue
		}
		expected, ok := eval(smt.And(p.Ctx.Expected...))
		if !ok {
			return false
		}
		if !expected {
			return true
		}
		if p.End == Raised {
			return false
		}
		if value, ok := t.d.returns[p]; ok {
			v, err := smt.Evaluate(value, env)
			if err != nil {
				return false
			}
			env[t.d.result.Name()] = v
		}
		post, ok := eval(t.d.contracts.Post)
		return ok && !post
	}
	return false
}
