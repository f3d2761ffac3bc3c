package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ambergrep/ambergrep/internal/model"
)

func TestWriteMatchLineScansToLineBoundaries(t *testing.T) {
	var out, errOut bytes.Buffer
	disabled := false
	w := New(&out, &errOut, &disabled)

	src := []byte("first line\nsecond has a needle here\nthird line\n")
	m := model.Match{Beg: 24, End: 30} // "needle"

	w.WriteMatchLine(src, m)
	assert.Equal(t, "second has a needle here\n", out.String())
}

func TestWriteReplaceLineSubstitutes(t *testing.T) {
	var out, errOut bytes.Buffer
	disabled := false
	w := New(&out, &errOut, &disabled)

	src := []byte("x = needle;\n")
	m := model.Match{Beg: 4, End: 10}

	w.WriteReplaceLine(src, m, []byte("replaced"))
	assert.Equal(t, "x = replaced;\n", out.String())
}

func TestInfoAndErrorGoToStderr(t *testing.T) {
	var out, errOut bytes.Buffer
	disabled := false
	w := New(&out, &errOut, &disabled)

	w.Infof("skipped %s", "foo.bin")
	w.Errorf("failed: %s", "boom")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "skipped foo.bin")
	assert.Contains(t, errOut.String(), "failed: boom")
}

func TestFormatMatchLineHasNoColorCodes(t *testing.T) {
	src := []byte("alpha beta gamma\n")
	m := model.Match{Beg: 6, End: 10}
	assert.Equal(t, "alpha beta gamma", FormatMatchLine(src, m))
}
