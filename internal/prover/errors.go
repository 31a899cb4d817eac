package prover

import (
	"fmt"

	"gprover/internal/syntax"

	"github.com/pkg/errors"
)

var (
	// ErrAlreadyProved is returned when Prove or Configure is called on a
	// theorem that already has a conclusion. Call Reset first.
	ErrAlreadyProved = errors.New("theorem already proved")
	// ErrNameNotFound is a scope miss for a name the evaluator itself should
	// have bound. It is an evaluator bug, never a verification outcome.
	ErrNameNotFound = errors.New("name not found")
)

// UnsupportedError marks a construct the evaluator has no sound translation
// for. A theorem that hits one is Skipped.
type UnsupportedError struct {
	What string
	Pos  syntax.Pos
}

func (e *UnsupportedError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("unsupported: %s at %s", e.What, e.Pos)
	}
	return "unsupported: " + e.What
}

func unsupported(node syntax.Node, format string, args ...interface{}) error {
	var pos syntax.Pos
	if node != nil {
		pos = node.Position()
	}
	return unsupportedAt(pos, format, args...)
}

func unsupportedAt(pos syntax.Pos, format string, args ...interface{}) error {
	return &UnsupportedError{What: fmt.Sprintf(format, args...), Pos: pos}
}

// IsUnsupported reports whether err is, or wraps, an UnsupportedError.
func IsUnsupported(err error) bool {
	var target *UnsupportedError
	return errors.As(err, &target)
}

// InconclusiveError records that the solver gave up: unknown, timeout or
// resource exhaustion.
type InconclusiveError struct {
	Reason string
}

func (e *InconclusiveError) Error() string {
	if e.Reason == "" {
		return "solver inconclusive: cannot validate theorem"
	}
	return "solver inconclusive: " + e.Reason
}
