package prover

import (
	"gprover/internal/smt"
	"gprover/internal/strategy"
	"gprover/internal/syntax"
)

type PathEnd int

const (
	Returned PathEnd = iota
	Raised
	FellThrough
)

func (e PathEnd) String() string {
	switch e {
	case Returned:
		return "return"
	case Raised:
		return "raise"
	}
	return "end of body"
}

// Path is one execution path through a function body. Ctx holds what is
// assumed and what is owed along it.
type Path struct {
	Ctx    *Context
	End    PathEnd
	Result *smt.Term // returned value; nil unless End is Returned with a value
	Pos    syntax.Pos
}

// pathState is a path under construction: its context and the statements
// left to run, innermost block last.
type pathState struct {
	ctx    *Context
	frames [][]syntax.Stmt
}

func (s *pathState) fork(cond *smt.Term, block []syntax.Stmt) *pathState {
	ctx := s.ctx.Fork()
	ctx.Assume(cond)
	frames := append(append([][]syntax.Stmt(nil), s.frames...), block)
	return &pathState{ctx: ctx, frames: frames}
}

// next pops the next statement to run, nil at the end of the body.
func (s *pathState) next() syntax.Stmt {
	for len(s.frames) > 0 {
		top := s.frames[len(s.frames)-1]
		if len(top) == 0 {
			s.frames = s.frames[:len(s.frames)-1]
			continue
		}
		s.frames[len(s.frames)-1] = top[1:]
		return top[0]
	}
	return nil
}

// EvalStmts runs the body of fn from ctx, forking the path at every branch
// whose condition is not a constant. Every path is explored; more than
// maxPaths of them is unsupported.
func EvalStmts(fn *syntax.Function, ctx *Context, maxPaths int) ([]*Path, error) {
	limit := 0
	if maxPaths > 0 {
		// each fork pushes both successors
		limit = 2*maxPaths - 1
	}
	var worklist strategy.Strategy[*pathState] = strategy.NewBoundedDFS[*pathState](limit)
	if err := worklist.Push(&pathState{ctx: ctx.Fork(), frames: [][]syntax.Stmt{fn.Body}}); err != nil {
		return nil, err
	}
	var paths []*Path
	for worklist.HasNext() {
		state, err := worklist.Pop()
		if err != nil {
			return nil, err
		}
		path, forks, err := state.exec()
		if err != nil {
			return nil, err
		}
		if path != nil {
			paths = append(paths, path)
			continue
		}
		if err := worklist.Push(forks...); err != nil {
			return nil, unsupportedAt(fn.Pos, "more than %d paths", maxPaths)
		}
	}
	return paths, nil
}

// exec runs statements until the path ends or forks.
func (s *pathState) exec() (*Path, []*pathState, error) {
	for {
		stmt := s.next()
		if stmt == nil {
			return &Path{Ctx: s.ctx, End: FellThrough}, nil, nil
		}
		path, forks, err := s.execStmt(stmt)
		if err != nil || path != nil || forks != nil {
			return path, forks, err
		}
	}
}

func (s *pathState) execStmt(stmt syntax.Stmt) (*Path, []*pathState, error) {
	ctx := s.ctx
	switch stmt := stmt.(type) {
	case *syntax.Assign:
		value, err := ctx.Eval(stmt.Value)
		if err != nil {
			return nil, nil, err
		}
		for _, target := range stmt.Targets {
			name, ok := target.(*syntax.Name)
			if !ok {
				return nil, nil, unsupported(target, "assignment to %s", target)
			}
			ctx.Scope.Set(name.ID, value)
		}
	case *syntax.AugAssign:
		name, ok := stmt.Target.(*syntax.Name)
		if !ok {
			return nil, nil, unsupported(stmt, "assignment to %s", stmt.Target)
		}
		current, err := ctx.Eval(name)
		if err != nil {
			return nil, nil, err
		}
		value, err := ctx.evalHint(stmt.Value, current.Sort())
		if err != nil {
			return nil, nil, err
		}
		updated, err := ctx.binary(stmt, stmt.Op, current, value)
		if err != nil {
			return nil, nil, err
		}
		ctx.Scope.Set(name.ID, updated)
	case *syntax.AnnAssign:
		name, ok := stmt.Target.(*syntax.Name)
		if !ok {
			return nil, nil, unsupported(stmt, "assignment to %s", stmt.Target)
		}
		if stmt.Value == nil {
			return nil, nil, nil
		}
		sort := SortOf(stmt.Annotation, ctx.Resolver)
		value, err := ctx.evalHint(stmt.Value, sort)
		if err != nil {
			return nil, nil, err
		}
		if sort != nil {
			coerced, ok, err := coerce(stmt, value, sort)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				return nil, nil, unsupported(stmt, "%s value for %s variable", value.Sort(), sort)
			}
			value = coerced
		}
		ctx.Scope.Set(name.ID, value)
	case *syntax.Return:
		path := &Path{Ctx: ctx, End: Returned, Pos: stmt.At}
		if stmt.Value != nil {
			value, err := ctx.Eval(stmt.Value)
			if err != nil {
				return nil, nil, err
			}
			path.Result = value
		}
		return path, nil, nil
	case *syntax.Raise:
		return &Path{Ctx: ctx, End: Raised, Pos: stmt.At}, nil, nil
	case *syntax.If:
		test, err := ctx.Eval(stmt.Test)
		if err != nil {
			return nil, nil, err
		}
		cond, err := truthy(stmt.Test, test)
		if err != nil {
			return nil, nil, err
		}
		if v, ok := cond.BoolLiteral(); ok {
			block := stmt.OrElse
			if v {
				block = stmt.Body
			}
			s.frames = append(s.frames, block)
			return nil, nil, nil
		}
		return nil, []*pathState{s.fork(cond, stmt.Body), s.fork(smt.Not(cond), stmt.OrElse)}, nil
	case *syntax.Assert:
		test, err := ctx.Eval(stmt.Test)
		if err != nil {
			return nil, nil, err
		}
		cond, err := truthy(stmt.Test, test)
		if err != nil {
			return nil, nil, err
		}
		ctx.Expect(cond)
	case *syntax.ExprStmt:
		if _, ok := stmt.Value.(*syntax.Const); ok {
			// docstring
			return nil, nil, nil
		}
		if _, err := ctx.Eval(stmt.Value); err != nil {
			return nil, nil, err
		}
	case *syntax.Pass:
	case *syntax.For:
		return nil, nil, unsupported(stmt, "for loop")
	case *syntax.While:
		return nil, nil, unsupported(stmt, "while loop")
	case *syntax.UnknownStmt:
		return nil, nil, unsupported(stmt, "statement %s", stmt.Kind)
	default:
		return nil, nil, unsupported(stmt, "statement %T", stmt)
	}
	return nil, nil, nil
}
