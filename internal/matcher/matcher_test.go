package matcher

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambergrep/ambergrep/internal/model"
)

func allLiteralAlgorithms() map[string]Algorithm {
	return map[string]Algorithm{
		"bruteforce":  BruteForce{},
		"quicksearch": QuickSearch{},
		"tbm":         TBM{},
		"fjs":         FJS{},
	}
}

func smallOptions() Options {
	return Options{SizePerThread: 8, MaxThreads: 4}
}

func TestLiteralAlgorithmsAgree(t *testing.T) {
	cases := []struct {
		src, pat string
	}{
		{"abcabcabcabc", "abc"},
		{"aaaaaaaaaaaa", "aaa"},
		{"the quick brown fox jumps over the lazy dog", "the"},
		{"mississippi", "issi"},
		{"", "x"},
		{"abc", ""},
		{"abc", "abcd"},
		{"xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx", "xxxx"},
		{"one two three four five six seven eight nine ten", "seven"},
	}

	for _, c := range cases {
		c := c
		t.Run(fmt.Sprintf("%q in %q", c.pat, c.src), func(t *testing.T) {
			want := BruteForce{}.Search([]byte(c.src), []byte(c.pat), smallOptions())
			for name, algo := range allLiteralAlgorithms() {
				got := algo.Search([]byte(c.src), []byte(c.pat), smallOptions())
				assert.Equalf(t, want, got, "algorithm %s disagreed with bruteforce", name)
			}
		})
	}
}

// TestParallelChunkBoundary plants a single occurrence straddling the
// natural chunk split point of a large buffer and checks every literal
// algorithm still finds it exactly once, exercising the "earlier-starting
// worker wins" overlap rule.
func TestParallelChunkBoundary(t *testing.T) {
	const srcLen = 4 << 20
	pat := []byte("needle123")
	src := bytes.Repeat([]byte{'.'}, srcLen)
	plantAt := 1048573
	copy(src[plantAt:], pat)

	opts := DefaultOptions()
	for name, algo := range allLiteralAlgorithms() {
		got := algo.Search(src, pat, opts)
		require.Lenf(t, got, 1, "algorithm %s", name)
		assert.Equal(t, plantAt, got[0].Beg)
		assert.Equal(t, plantAt+len(pat), got[0].End)
	}
}

func TestCharBoundaryRejectsSplitUTF8(t *testing.T) {
	// "あいうえお" in UTF-8 is 0xE3 0x81 0x82 0xE3 0x81 0x84 ...; a literal
	// byte pattern equal to a continuation-byte run (e.g. 0x81 0x82) would
	// match bytes without starting on a character boundary.
	src := []byte("あいうえお")
	pat := []byte{src[1], src[2]}

	for name, algo := range allLiteralAlgorithms() {
		got := algo.Search(src, pat, smallOptions())
		assert.Emptyf(t, got, "algorithm %s should reject a non-boundary match", name)
	}
}

func TestQuickSearchFindsBoundaryAlignedMatch(t *testing.T) {
	src := []byte("あいうえお")
	pat := []byte("い")
	got := QuickSearch{}.Search(src, pat, smallOptions())
	require.Len(t, got, 1)
	assert.Equal(t, model.Match{Beg: 3, End: 6}, got[0])
}

// TestRegexParallelChunkBoundaryNoOverlap plants a single regex match
// straddling a chunk split point and checks it is reported exactly once,
// not duplicated by the neighbouring chunk's independent scan.
func TestRegexParallelChunkBoundaryNoOverlap(t *testing.T) {
	const srcLen = 4 << 20
	pat := []byte(`needle\d+`)
	src := bytes.Repeat([]byte{'.'}, srcLen)
	plantAt := 1048573
	copy(src[plantAt:], []byte("needle123456"))

	opts := DefaultOptions()
	got := Regex{}.Search(src, pat, opts)
	require.Len(t, got, 1)
	assert.Equal(t, plantAt, got[0].Beg)
	assert.Equal(t, plantAt+len("needle123456"), got[0].End)
}

// TestRegexChunkingDoesNotDuplicateOverlappingMatches forces four tiny
// chunks over a run of seven 'a's, where two neighbouring chunks each
// independently restart their regex scan mid-run and would otherwise each
// report their own overlapping "aaa" match. The result must agree with
// what a single unchunked scan over the whole buffer finds: (0,3) and
// (3,6), not the three overlapping candidates the raw per-chunk scans
// produce before dedupeOverlapping runs.
func TestRegexChunkingDoesNotDuplicateOverlappingMatches(t *testing.T) {
	src := []byte("aaaaaaa")
	opts := Options{SizePerThread: 2, MaxThreads: 4}

	got := Regex{}.Search(src, []byte("aaa"), opts)
	want := Regex{}.Search(src, []byte("aaa"), Options{SizePerThread: 7, MaxThreads: 1})
	assert.Equal(t, want, got)
	require.Len(t, got, 2)
	assert.Equal(t, model.Match{Beg: 0, End: 3}, got[0])
	assert.Equal(t, model.Match{Beg: 3, End: 6}, got[1])
}

func TestDedupeOverlappingDropsLaterOverlap(t *testing.T) {
	in := []model.Match{
		{Beg: 0, End: 10},
		{Beg: 5, End: 15},
		{Beg: 20, End: 25},
	}
	got := dedupeOverlapping(in)
	assert.Equal(t, []model.Match{{Beg: 0, End: 10}, {Beg: 20, End: 25}}, got)
}

func TestRegexCaptureGroups(t *testing.T) {
	src := []byte("name=alice age=30 name=bob age=41")
	pat := []byte(`name=(\w+) age=(\d+)`)

	got := Regex{}.Search(src, pat, smallOptions())
	require.Len(t, got, 2)
	require.Len(t, got[0].SubMatch, 2)
	assert.Equal(t, "alice", string(src[got[0].SubMatch[0].Beg:got[0].SubMatch[0].End]))
	assert.Equal(t, "30", string(src[got[0].SubMatch[1].Beg:got[0].SubMatch[1].End]))
	assert.Equal(t, "bob", string(src[got[1].SubMatch[0].Beg:got[1].SubMatch[0].End]))
}

func TestRegexIgnoreCaseFoldsPatternNotCharClassShorthands(t *testing.T) {
	src := []byte("Foo Bar BAZ")
	pat := []byte(`[A-Z]\w+`)
	got := Regex{IgnoreCase: true}.Search(src, pat, smallOptions())
	// With ASCII case folding the class is lowered to [a-z] and matched
	// against a lowered copy of src, so the whole run of letters in each
	// word should match, not just the capital.
	require.Len(t, got, 3)
	assert.Equal(t, "Foo", string(src[got[0].Beg:got[0].End]))
	assert.Equal(t, "Bar", string(src[got[1].Beg:got[1].End]))
	assert.Equal(t, "BAZ", string(src[got[2].Beg:got[2].End]))
}

func TestRegexInvalidUTF8ReturnsNoMatches(t *testing.T) {
	src := []byte{0xff, 0xfe, 0xfd}
	got := Regex{}.Search(src, []byte("a"), smallOptions())
	assert.Empty(t, got)
}

func TestRegexEmptyPatternNoPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		Regex{}.Search([]byte("abc"), []byte(""), smallOptions())
	})
}

// TestRunChunkedAggregatesWorkerPanics plants a panic in every chunk
// worker and checks runChunked re-panics once with a single aggregated
// error naming every chunk, rather than propagating just the first one.
func TestRunChunkedAggregatesWorkerPanics(t *testing.T) {
	const workers = 4
	defer func() {
		r := recover()
		require.NotNil(t, r)
		merr, ok := r.(*multierror.Error)
		require.True(t, ok, "expected *multierror.Error, got %T", r)
		assert.Len(t, merr.Errors, workers)
	}()
	runChunked(workers, 16, func(beg, end int) []model.Match {
		panic(fmt.Sprintf("boom at [%d,%d)", beg, end))
	})
}

func TestSelectDefaultsToQuickSearch(t *testing.T) {
	assert.IsType(t, QuickSearch{}, Select(KindQuickSearch, false))
	assert.IsType(t, TBM{}, Select(KindTBM, false))
	assert.IsType(t, Regex{}, Select(KindRegex, false))
}
