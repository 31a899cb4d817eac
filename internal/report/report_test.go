package report

import (
	"bytes"
	"testing"

	"gprover/internal/prover"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_EntryString(t *testing.T) {
	assert.Equal(t, "  inc: proved!", Entry{Name: "inc", Conclusion: prover.Proved}.String())
	assert.Equal(t, "  inc: proved! (cached)", Entry{Name: "inc", Conclusion: prover.Proved, Cached: true}.String())
	assert.Equal(t, "  f: skipped\n    unsupported: while loop at 3:4",
		Entry{Name: "f", Conclusion: prover.Skipped, Reason: "unsupported: while loop at 3:4"}.String())
	assert.Equal(t, "  dec: failed\n    x = 0, s = 'a'",
		Entry{Name: "dec", Conclusion: prover.Disproved, Counterexample: []string{"x = 0", "s = 'a'"}, Validated: true}.String())
	assert.Equal(t, "  dec: failed\n    x = 0 (not replayed)",
		Entry{Name: "dec", Conclusion: prover.Disproved, Counterexample: []string{"x = 0"}}.String())
}

func Test_Writer(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.Nil(t, w.Write(Entry{Unit: "a.py", Name: "f", Conclusion: prover.Proved}))
	require.Nil(t, w.Write(Entry{Unit: "a.py", Name: "g", Conclusion: prover.Skipped, Reason: "solver inconclusive: timeout"}))
	assert.False(t, w.Failed())
	require.Nil(t, w.Write(Entry{Unit: "b.py", Name: "h", Conclusion: prover.Disproved, Counterexample: []string{"x = 1"}, Validated: true}))
	assert.True(t, w.Failed())

	assert.Equal(t, "a.py\n  f: proved!\n  g: skipped\n    solver inconclusive: timeout\nb.py\n  h: failed\n    x = 1\n", buf.String())
	assert.Equal(t, "1 proved, 1 failed, 1 skipped", w.Summary())
}

func Test_WriterColour(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.SetColour(true)
	require.Nil(t, w.Write(Entry{Unit: "a.py", Name: "f", Conclusion: prover.Disproved}))
	assert.Equal(t, "\033[36ma.py\033[0m\n  f: \033[31mfailed\033[0m\n", buf.String())
	assert.Equal(t, Green, ConclusionColour(prover.Proved))
	assert.Equal(t, Yellow, ConclusionColour(prover.Skipped))
}
