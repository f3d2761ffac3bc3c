// Package matcher implements the byte-pattern search algorithms used by
// the scanner stage: brute-force (reference), Quick-Search, Tuned
// Boyer-Moore, FJS and a regex variant delegating to stdlib regexp.
//
// The parallel variants are adapted from the chunking technique in
// dalance/amber's src/matcher.rs, rewritten around goroutines and
// golang.org/x/sync/errgroup instead of a scoped thread pool.
package matcher

import (
	"github.com/ambergrep/ambergrep/internal/model"
)

// Algorithm searches src for pat and returns non-overlapping matches in
// strictly increasing Beg order. It must not panic except for programmer
// errors (e.g. nil src); callers pass Options to control chunk-parallel
// fan-out for large inputs.
type Algorithm interface {
	Search(src, pat []byte, opts Options) []model.Match
}

// Options configures chunk-parallel scanning of a single large buffer.
type Options struct {
	// SizePerThread is the approximate amount of source bytes assigned to
	// each chunk worker. Default 1 MiB.
	SizePerThread int

	// MaxThreads caps the number of chunk workers spawned for one buffer.
	MaxThreads int
}

// DefaultOptions mirrors the public defaults from spec.md §4.1.3 and §6.
func DefaultOptions() Options {
	return Options{
		SizePerThread: 1 << 20,
		MaxThreads:    4,
	}
}

func (o Options) normalize() Options {
	if o.SizePerThread <= 0 {
		o.SizePerThread = 1 << 20
	}
	if o.MaxThreads <= 0 {
		o.MaxThreads = 4
	}
	return o
}

// numChunks returns T = min(ceil(srcLen/SizePerThread), MaxThreads), with a
// floor of 1 so zero-length or tiny sources still get a single worker.
func numChunks(srcLen int, o Options) int {
	if srcLen <= 0 {
		return 1
	}
	t := (srcLen + o.SizePerThread - 1) / o.SizePerThread
	if t < 1 {
		t = 1
	}
	if t > o.MaxThreads {
		t = o.MaxThreads
	}
	return t
}

// chunkBounds returns the [beg, end) byte range owned by chunk k of t,
// splitting srcLen as evenly as integer division allows.
func chunkBounds(srcLen, t, k int) (beg, end int) {
	beg = srcLen * k / t
	end = srcLen * (k + 1) / t
	return
}
