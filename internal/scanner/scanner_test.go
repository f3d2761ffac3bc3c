package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambergrep/ambergrep/internal/matcher"
	"github.com/ambergrep/ambergrep/internal/model"
	"github.com/ambergrep/ambergrep/internal/pipeline"
)

func runOne(t *testing.T, cfg Config, path string) model.PathMatch {
	t.Helper()
	in := make(chan pipeline.Envelope, 4)
	out := make(chan pipeline.Envelope, 8)

	in <- pipeline.SeqBeg(0)
	in <- pipeline.SeqDat(0, model.PathInfo{Path: path})
	in <- pipeline.SeqEnd(1)
	close(in)

	s := New(1, cfg)
	s.Run(context.Background(), in, []chan<- pipeline.Envelope{out})

	var pm model.PathMatch
	for e := range out {
		if e.Tag == pipeline.TagSeqDat {
			pm = e.Payload.(model.PathMatch)
		}
	}
	return pm
}

func TestScannerFindsMatchesInSmallFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("needle in a haystack with a needle"), 0o644))

	cfg := Config{Algorithm: matcher.QuickSearch{}, Keyword: []byte("needle")}
	pm := runOne(t, cfg, path)

	require.Len(t, pm.Matches, 2)
	assert.Equal(t, 0, pm.Matches[0].Beg)
	assert.Equal(t, 28, pm.Matches[1].Beg)
}

func TestScannerMmapsLargeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	content := make([]byte, 2<<20)
	for i := range content {
		content[i] = '.'
	}
	copy(content[len(content)-10:], []byte("targetxxx"))
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg := Config{
		Algorithm:     matcher.QuickSearch{},
		Keyword:       []byte("target"),
		MmapThreshold: 1 << 20,
	}
	pm := runOne(t, cfg, path)
	require.Len(t, pm.Matches, 1)
	assert.Equal(t, len(content)-10, pm.Matches[0].Beg)
}

func TestScannerSkipsBinaryFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bin.dat")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01, 'a', 'b', 'c'}, 0o644))

	cfg := Config{
		Algorithm:    matcher.QuickSearch{},
		Keyword:      []byte("a"),
		SkipBinary:   true,
		PrintSkipped: true,
	}
	pm := runOne(t, cfg, path)
	assert.Empty(t, pm.Matches)
}

// panickyAlgorithm always panics, standing in for a programmer-error bug
// in a real Algorithm implementation.
type panickyAlgorithm struct{}

func (panickyAlgorithm) Search(src, pat []byte, opts matcher.Options) []model.Match {
	panic("boom")
}

func TestScannerReportsErrOnAlgorithmPanic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("anything"), 0o644))

	in := make(chan pipeline.Envelope, 4)
	out := make(chan pipeline.Envelope, 8)
	in <- pipeline.SeqBeg(0)
	in <- pipeline.SeqDat(0, model.PathInfo{Path: path})
	in <- pipeline.SeqEnd(1)
	close(in)

	s := New(1, Config{Algorithm: panickyAlgorithm{}, Keyword: []byte("x")})
	s.Run(context.Background(), in, []chan<- pipeline.Envelope{out})

	var sawErr bool
	var pm model.PathMatch
	for e := range out {
		if e.Tag == pipeline.TagMsgErr {
			sawErr = true
		}
		if e.Tag == pipeline.TagSeqDat {
			pm = e.Payload.(model.PathMatch)
		}
	}
	assert.True(t, sawErr)
	assert.Empty(t, pm.Matches)
}

func TestScannerReportsErrOnMissingFile(t *testing.T) {
	in := make(chan pipeline.Envelope, 4)
	out := make(chan pipeline.Envelope, 8)
	in <- pipeline.SeqBeg(0)
	in <- pipeline.SeqDat(0, model.PathInfo{Path: "/does/not/exist"})
	in <- pipeline.SeqEnd(1)
	close(in)

	s := New(1, Config{Algorithm: matcher.QuickSearch{}, Keyword: []byte("x")})
	s.Run(context.Background(), in, []chan<- pipeline.Envelope{out})

	var sawErr bool
	var pm model.PathMatch
	for e := range out {
		if e.Tag == pipeline.TagMsgErr {
			sawErr = true
		}
		if e.Tag == pipeline.TagSeqDat {
			pm = e.Payload.(model.PathMatch)
		}
	}
	assert.True(t, sawErr)
	assert.Empty(t, pm.Matches)
}
