// Package report prints one line per theorem.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gprover/internal/prover"

	"golang.org/x/term"
)

const (
	Red    = 31
	Green  = 32
	Yellow = 33
	Cyan   = 36
)

func Colour(color int, str string) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, str)
}

func ConclusionColour(c prover.Conclusion) int {
	switch c {
	case prover.Proved:
		return Green
	case prover.Disproved:
		return Red
	}
	return Yellow
}

// Entry is the outcome of one theorem.
type Entry struct {
	Unit       string
	Name       string
	Conclusion prover.Conclusion
	// Reason is why the theorem was skipped.
	Reason string
	// Counterexample lists "name = value" assignments of a failed theorem.
	Counterexample []string
	Validated      bool
	Cached         bool
}

// NewEntry describes a theorem after Prove.
func NewEntry(unit string, th *prover.Theorem) Entry {
	e := Entry{
		Unit:       unit,
		Name:       th.Name(),
		Conclusion: th.Conclusion(),
		Validated:  th.Validated(),
	}
	if err := th.Error(); err != nil {
		e.Reason = err.Error()
	}
	for _, b := range th.Counterexample() {
		e.Counterexample = append(e.Counterexample, fmt.Sprintf("%s = %s", b.Name, b.Value))
	}
	return e
}

func (e Entry) details() string {
	switch {
	case e.Reason != "":
		return e.Reason
	case len(e.Counterexample) > 0:
		details := strings.Join(e.Counterexample, ", ")
		if !e.Validated {
			details += " (not replayed)"
		}
		return details
	}
	return ""
}

func (e Entry) line(colour bool) string {
	conclusion := e.Conclusion.String()
	if colour {
		conclusion = Colour(ConclusionColour(e.Conclusion), conclusion)
	}
	line := fmt.Sprintf("  %s: %s", e.Name, conclusion)
	if e.Cached {
		line += " (cached)"
	}
	if details := e.details(); details != "" {
		line += "\n    " + details
	}
	return line
}

func (e Entry) String() string {
	return e.line(false)
}

// Writer prints entries grouped by unit and keeps a tally.
type Writer struct {
	out    io.Writer
	colour bool
	unit   string
	counts map[prover.Conclusion]int
}

// NewWriter colours its output when out is a terminal.
func NewWriter(out io.Writer) *Writer {
	colour := false
	if f, ok := out.(*os.File); ok {
		colour = term.IsTerminal(int(f.Fd()))
	}
	return &Writer{
		out:    out,
		colour: colour,
		counts: make(map[prover.Conclusion]int),
	}
}

func (w *Writer) SetColour(colour bool) {
	w.colour = colour
}

func (w *Writer) Write(e Entry) error {
	if e.Unit != w.unit {
		w.unit = e.Unit
		header := e.Unit
		if w.colour {
			header = Colour(Cyan, header)
		}
		if _, err := fmt.Fprintln(w.out, header); err != nil {
			return err
		}
	}
	w.counts[e.Conclusion]++
	_, err := fmt.Fprintln(w.out, e.line(w.colour))
	return err
}

// Failed reports whether any written theorem was disproved.
func (w *Writer) Failed() bool {
	return w.counts[prover.Disproved] > 0
}

func (w *Writer) Summary() string {
	return fmt.Sprintf("%d proved, %d failed, %d skipped",
		w.counts[prover.Proved], w.counts[prover.Disproved], w.counts[prover.Skipped])
}
