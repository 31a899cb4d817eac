package prover

import (
	"gprover/internal/smt"
	"gprover/internal/syntax"

	"github.com/pkg/errors"
)

// Scope maps variable names to their current symbolic values.
type Scope struct {
	vars map[string]*smt.Term
}

func NewScope() *Scope {
	return &Scope{
		vars: make(map[string]*smt.Term),
	}
}

func (s *Scope) Set(name string, value *smt.Term) {
	s.vars[name] = value
}

func (s *Scope) Get(name string) (*smt.Term, error) {
	value, ok := s.vars[name]
	if !ok {
		return nil, errors.Wrapf(ErrNameNotFound, "%s", name)
	}
	return value, nil
}

func (s *Scope) Has(name string) bool {
	_, ok := s.vars[name]
	return ok
}

func (s *Scope) Clone() *Scope {
	clone := NewScope()
	for name, value := range s.vars {
		clone.vars[name] = value
	}
	return clone
}

// Context is the symbolic state of one execution path: the scope plus the
// assumptions (Given) and obligations (Expected) gathered along it. Forks
// share the session but never each other's scope or constraint sets.
type Context struct {
	Session  *smt.Session
	Scope    *Scope
	Given    []*smt.Term
	Expected []*smt.Term
	Resolver *syntax.Resolver

	// conditions under which the expression being evaluated runs, from
	// short-circuit operators and conditional expressions
	guards []*smt.Term
}

// MakeEmpty creates a context with an empty scope and a fresh session.
func MakeEmpty(cfg smt.Config, resolver *syntax.Resolver) (*Context, error) {
	session, err := smt.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "new session")
	}
	return &Context{
		Session:  session,
		Scope:    NewScope(),
		Resolver: resolver,
	}, nil
}

func (c *Context) Fork() *Context {
	return &Context{
		Session:  c.Session,
		Scope:    c.Scope.Clone(),
		Given:    append([]*smt.Term(nil), c.Given...),
		Expected: append([]*smt.Term(nil), c.Expected...),
		Resolver: c.Resolver,
		guards:   append([]*smt.Term(nil), c.guards...),
	}
}

// Assume records a formula that holds on this path.
func (c *Context) Assume(f *smt.Term) {
	c.Given = append(c.Given, f)
}

// Expect records an obligation. Inside a guarded subexpression it only has
// to hold when the guards do.
func (c *Context) Expect(f *smt.Term) {
	if len(c.guards) > 0 {
		f = smt.Implies(smt.And(c.guards...), f)
	}
	if f.IsTrue() {
		return
	}
	c.Expected = append(c.Expected, f)
}

// guarded runs fn with g as an extra guard.
func (c *Context) guarded(g *smt.Term, fn func() (*smt.Term, error)) (*smt.Term, error) {
	c.guards = append(c.guards, g)
	defer func() { c.guards = c.guards[:len(c.guards)-1] }()
	return fn()
}

func (c *Context) Close() {
	if c.Session != nil {
		c.Session.Close()
	}
}
