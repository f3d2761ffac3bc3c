package printer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambergrep/ambergrep/internal/console"
	"github.com/ambergrep/ambergrep/internal/model"
	"github.com/ambergrep/ambergrep/internal/pipeline"
)

func TestColRowMatchesSpecTerminology(t *testing.T) {
	src := []byte("line one\nline two needle\nline three\n")
	beg := bytes.Index(src, []byte("needle"))
	require.NotEqual(t, -1, beg)

	col, row := colRow(src, beg)
	assert.Equal(t, 2, col, "col counts preceding newlines, i.e. which line")
	assert.Equal(t, 10, row, "row is the 1-based offset within that line")
}

func TestPrinterEmitsOneLinePerMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha needle beta\nneedle again\n"), 0o644))

	var out, errOut bytes.Buffer
	disabled := false
	w := console.New(&out, &errOut, &disabled)

	cfg := Config{ShowPath: true, ShowCol: true, ShowRow: true}
	p := New(1, cfg, w)

	in := make(chan pipeline.Envelope, 4)
	pm := model.PathMatch{Path: path, Matches: []model.Match{
		{Beg: 6, End: 12},
		{Beg: 18, End: 24},
	}}
	in <- pipeline.SeqDat(0, pm)
	close(in)

	p.Run(context.Background(), in)

	lines := out.String()
	assert.Contains(t, lines, path+":1:7:")
	assert.Contains(t, lines, path+":2:1:")
}

func TestPrinterSkipsEmptyMatches(t *testing.T) {
	var out, errOut bytes.Buffer
	disabled := false
	w := console.New(&out, &errOut, &disabled)
	p := New(1, Config{}, w)

	in := make(chan pipeline.Envelope, 4)
	in <- pipeline.SeqDat(0, model.PathMatch{Path: "/unused", Matches: nil})
	close(in)

	p.Run(context.Background(), in)
	assert.Empty(t, out.String())
}

func TestPrinterGroupsConsecutiveMatchesOnSameLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("aa bb aa cc\n"), 0o644))

	var out, errOut bytes.Buffer
	disabled := false
	w := console.New(&out, &errOut, &disabled)
	cfg := Config{GroupByLine: true}
	p := New(1, cfg, w)

	in := make(chan pipeline.Envelope, 4)
	pm := model.PathMatch{Path: path, Matches: []model.Match{
		{Beg: 0, End: 2},
		{Beg: 6, End: 8},
	}}
	in <- pipeline.SeqDat(0, pm)
	close(in)

	p.Run(context.Background(), in)

	lineCount := bytes.Count(out.Bytes(), []byte("\n"))
	assert.Equal(t, 1, lineCount, "both matches share a line, so only one output line should be emitted")
}
