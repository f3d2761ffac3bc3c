package matcher

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/ambergrep/ambergrep/internal/model"
)

// QuickSearch implements the Sunday Quick-Search algorithm, parallelised
// by splitting src into chunks of approximately Options.SizePerThread
// bytes, up to Options.MaxThreads workers. Adapted from
// QuickSearchMatcher in dalance/amber's src/matcher.rs.
type QuickSearch struct{}

func (QuickSearch) Search(src, pat []byte, opts Options) []model.Match {
	opts = opts.normalize()
	patLen := len(pat)
	srcLen := len(src)
	if patLen == 0 || srcLen < patLen {
		return nil
	}

	var shift [256]int
	for i := range shift {
		shift[i] = patLen + 1
	}
	for i := 0; i < patLen; i++ {
		shift[pat[i]] = patLen - i
	}

	t := numChunks(srcLen, opts)
	if t == 1 {
		return quickSearchRange(src, pat, &shift, 0, srcLen)
	}
	return runChunked(t, srcLen, func(beg, end int) []model.Match {
		return quickSearchRange(src, pat, &shift, beg, end)
	})
}

func quickSearchRange(src, pat []byte, shift *[256]int, beg, end int) []model.Match {
	patLen := len(pat)
	srcLen := len(src)
	var ret []model.Match

	i := beg
	for i < end {
		if srcLen < i+patLen {
			break
		}
		if bytesEqual(src[i:i+patLen], pat) {
			if checkCharBoundary(src, i) {
				ret = append(ret, model.Match{Beg: i, End: i + patLen})
				i += patLen
				continue
			}
		}
		if srcLen <= i+patLen {
			break
		}
		i += shift[src[i+patLen]]
	}
	return ret
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// runChunked fans out f over t roughly-equal chunks of [0, srcLen) using a
// scoped errgroup (joined before returning), collects each chunk's matches
// keyed by chunk index, then concatenates in chunk order.
//
// Algorithm.Search must not panic except for programmer error, but each
// worker recovers its own anyway and aggregates every recovered panic with
// go-multierror rather than letting the first one alone crash the
// goroutine; runChunked re-panics with the aggregate so the scanner
// stage's own recover can report it as a single MsgErr.
func runChunked(t, srcLen int, f func(beg, end int) []model.Match) []model.Match {
	results := make([][]model.Match, t)
	var g errgroup.Group
	var mu sync.Mutex
	var panics *multierror.Error
	for k := 0; k < t; k++ {
		k := k
		beg, end := chunkBounds(srcLen, t, k)
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					panics = multierror.Append(panics, fmt.Errorf("chunk %d of %d: %v", k, t, r))
					mu.Unlock()
				}
			}()
			results[k] = f(beg, end)
			return nil
		})
	}
	_ = g.Wait()
	if panics != nil {
		panic(panics)
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	ret := make([]model.Match, 0, total)
	for _, r := range results {
		ret = append(ret, r...)
	}
	return ret
}
