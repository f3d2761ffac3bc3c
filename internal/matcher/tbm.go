package matcher

import "github.com/ambergrep/ambergrep/internal/model"

// TBM implements a tuned Boyer-Moore search (bad-character shift plus an
// md2 guard derived from the pattern's own suffix), parallelised the same
// way as QuickSearch. Adapted from TbmMatcher in dalance/amber's
// src/matcher.rs.
type TBM struct{}

func (TBM) Search(src, pat []byte, opts Options) []model.Match {
	opts = opts.normalize()
	patLen := len(pat)
	srcLen := len(src)
	if patLen == 0 || srcLen < patLen {
		return nil
	}

	var shift [256]int
	for i := range shift {
		shift[i] = patLen
	}
	for i := 0; i < patLen; i++ {
		shift[pat[i]] = patLen - 1 - i
	}

	pe := patLen - 1
	p := pe - 1
	for p >= 0 && pat[p] != pat[pe] {
		p--
	}
	md2 := pe - p

	t := numChunks(srcLen, opts)
	if t == 1 {
		return tbmRange(src, pat, &shift, md2, 0, srcLen)
	}
	return runChunked(t, srcLen, func(beg, end int) []model.Match {
		// TBM's starting point for a chunk is beg + patLen - 1 (spec.md §4.1.3).
		return tbmRange(src, pat, &shift, md2, beg, end)
	})
}

func tbmRange(src, pat []byte, shift *[256]int, md2, beg, end int) []model.Match {
	patLen := len(pat)
	srcLen := len(src)
	var ret []model.Match

	// A match belongs to this chunk when it starts before end, so its last
	// byte may lie up to patLen-1 bytes past end; clamp that limit to srcLen:
	// workers must never read past |src| (spec.md §9).
	last := end + patLen - 1
	if last > srcLen {
		last = srcLen
	}

	i := beg + patLen - 1
	for i < last {
		k := shift[src[i]]
		for k != 0 {
			i += k
			if i >= srcLen {
				return ret
			}
			k = shift[src[i]]
		}
		if i >= last {
			break
		}

		if bytesEqual(src[i+1-patLen:i+1], pat) {
			if checkCharBoundary(src, i+1-patLen) {
				ret = append(ret, model.Match{Beg: i + 1 - patLen, End: i + 1})
				i += patLen
				continue
			}
		}
		i += md2
	}
	return ret
}
