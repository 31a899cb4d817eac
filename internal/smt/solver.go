package smt

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	BackendZ3    = "z3"
	BackendYices = "yices"

	DefaultTimeout = 5 * time.Second
)

var (
	// ErrUnsupportedTheory is returned by a backend that cannot express a
	// sort or operation used by the query.
	ErrUnsupportedTheory = errors.New("theory not supported by backend")
	ErrUnknownBackend    = errors.New("unknown solver backend")
	ErrSessionUsed       = errors.New("session already checked")
	ErrNoModel           = errors.New("no model available")
)

type Status int

const (
	Unknown Status = iota
	Sat
	Unsat
)

func (s Status) String() string {
	switch s {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	}
	return "unknown"
}

// Config is passed explicitly to every session; there is no process wide
// solver state to configure.
type Config struct {
	Backend string
	// Timeout bounds one Check. A context deadline that is sooner wins.
	Timeout time.Duration
	// ResourceLimit is a backend specific step budget, 0 for none.
	ResourceLimit uint64
	Debug         bool
}

func DefaultConfig() Config {
	return Config{
		Backend: BackendZ3,
		Timeout: DefaultTimeout,
	}
}

func (c Config) Validate() error {
	if c.Backend == "" {
		return errors.New("solver backend must be set")
	}
	if c.Timeout <= 0 {
		return errors.Errorf("solver timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("%s/timeout=%s/rlimit=%d", c.Backend, c.Timeout, c.ResourceLimit)
}

// deadline returns how long a check started now may run.
func (c Config) deadline(ctx context.Context) time.Duration {
	timeout := c.Timeout
	if d, ok := ctx.Deadline(); ok {
		if left := time.Until(d); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	return timeout
}

// awaitCheck runs check on its own goroutine. When ctx is done first it
// returns at once with a non-nil pending channel, which later yields the
// result of the abandoned check.
func awaitCheck[T any](ctx context.Context, check func() T) (T, <-chan T) {
	done := make(chan T, 1)
	go func() {
		done <- check()
	}()
	select {
	case result := <-done:
		return result, nil
	case <-ctx.Done():
		var zero T
		return zero, done
	}
}

// Solver is one native solver instance. It is used for a single Check.
type Solver interface {
	Check(ctx context.Context, decls []*Term, formula *Term) (Status, error)
	ReasonUnknown() string
	// Value reads t from the model of the last Sat check.
	Value(t *Term) (Value, error)
	Close()
}

type Factory func(cfg Config) (Solver, error)

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]Factory)
)

// Register makes a backend available by name. Backends register themselves
// from init; tests may register scripted ones.
func Register(name string, factory Factory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = factory
}

func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newSolver(cfg Config) (Solver, error) {
	backendsMu.RLock()
	factory, ok := backends[cfg.Backend]
	backendsMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBackend, "%q (available: %v)", cfg.Backend, Backends())
	}
	return factory(cfg)
}

// Session owns the logical namespace of one query and the solver that
// answers it. It is not safe for concurrent use.
type Session struct {
	cfg     Config
	solver  Solver
	decls   []*Term
	names   map[string]*Term
	counter int
	status  Status
	checked bool
	closed  bool
}

func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	solver, err := newSolver(cfg)
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:    cfg,
		solver: solver,
		names:  make(map[string]*Term),
	}, nil
}

func (s *Session) Config() Config { return s.cfg }

// Const declares a named constant. Declaring a name twice is an error.
func (s *Session) Const(name string, sort *Sort) (*Term, error) {
	if _, ok := s.names[name]; ok {
		return nil, errors.Errorf("constant %s already declared", name)
	}
	c := NewConst(name, sort)
	s.names[name] = c
	s.decls = append(s.decls, c)
	return c, nil
}

// Fresh declares a constant with an unused name derived from prefix.
func (s *Session) Fresh(prefix string, sort *Sort) *Term {
	for {
		s.counter++
		name := fmt.Sprintf("%s@%d", prefix, s.counter)
		if _, ok := s.names[name]; !ok {
			c, _ := s.Const(name, sort)
			return c
		}
	}
}

// Lookup returns a declared constant by name.
func (s *Session) Lookup(name string) (*Term, bool) {
	c, ok := s.names[name]
	return c, ok
}

func (s *Session) Decls() []*Term {
	return append([]*Term(nil), s.decls...)
}

// Script renders the query for formula over every declared constant.
func (s *Session) Script(formula *Term, checkSat bool) string {
	return Script(s.decls, []*Term{formula}, checkSat)
}

// Check asks the solver whether formula is satisfiable. A session is
// consumed by its first Check.
func (s *Session) Check(ctx context.Context, formula *Term) (Status, error) {
	if s.closed {
		return Unknown, errors.New("session closed")
	}
	if s.checked {
		return Unknown, ErrSessionUsed
	}
	s.checked = true
	status, err := s.solver.Check(ctx, s.decls, formula)
	if err != nil {
		return Unknown, errors.Wrapf(err, "%s check", s.cfg.Backend)
	}
	s.status = status
	return status, nil
}

func (s *Session) ReasonUnknown() string {
	return s.solver.ReasonUnknown()
}

// Value reads a term from the model after a Sat check.
func (s *Session) Value(t *Term) (Value, error) {
	if s.status != Sat {
		return Value{}, ErrNoModel
	}
	return s.solver.Value(t)
}

// Close releases the native solver. It is safe to call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.solver.Close()
}
