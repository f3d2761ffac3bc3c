package matcher

import "github.com/ambergrep/ambergrep/internal/model"

// FJS implements the Franek-Jennings-Smyth algorithm: a failure-function
// automaton combined with a bad-character delta table. It is carried over
// from dalance/amber's src/matcher.rs (FjsMatcher), whose own test suite
// was already disabled upstream; we keep it available as an Algorithm
// implementation for benchmarking and tests but do not expose it behind a
// CLI flag (spec.md §6 names no --fjs option).
type FJS struct{}

func (FJS) Search(src, pat []byte, opts Options) []model.Match {
	opts = opts.normalize()
	patLen := len(pat)
	srcLen := len(src)
	if patLen == 0 || srcLen < patLen {
		return nil
	}

	betap := make([]int, patLen+1)
	for i := range betap {
		betap[i] = -1
	}
	var delta [256]int
	for i := range delta {
		delta[i] = patLen
	}

	i, j := 0, betap[0]
	for i < patLen {
		for j > -1 && pat[i] != pat[j] {
			j = betap[j]
		}
		i++
		j++
		if i < patLen && pat[i] == pat[j] {
			betap[i] = betap[j]
		} else {
			betap[i] = j
		}
	}
	for i := 0; i < patLen; i++ {
		delta[pat[i]] = patLen - i
	}

	t := numChunks(srcLen, opts)
	if t == 1 {
		return fjsRange(src, pat, betap, &delta, 0, srcLen)
	}
	return runChunked(t, srcLen, func(beg, end int) []model.Match {
		return fjsRange(src, pat, betap, &delta, beg, end)
	})
}

func fjsRange(src, pat []byte, betap []int, delta *[256]int, beg, end int) []model.Match {
	patLen := len(pat)
	srcLen := len(src)
	var ret []model.Match

	mp := patLen - 1
	ip := mp + beg
	prev := -patLen
	i, j := 0, 0

	for ip < end {
		if j <= 0 {
			if ip+1 >= srcLen {
				return ret
			}
			for pat[mp] != src[ip] {
				ip += delta[src[ip+1]]
				if ip >= srcLen {
					return ret
				}
			}
			j = 0
			i = ip - mp
			for j < mp && src[i] == pat[j] {
				i++
				j++
			}
			if j == mp {
				if i-mp >= end {
					return ret // starts in the next chunk's range
				}
				if checkCharBoundary(src, i-mp) {
					if prev+patLen <= i-mp {
						ret = append(ret, model.Match{Beg: i - mp, End: i - mp + patLen})
						prev = i - mp
					}
					i++
					j++
				}
			}
			if j <= 0 {
				i++
			} else {
				j = betap[j]
			}
		} else {
			for j < patLen && src[i] == pat[j] {
				i++
				j++
			}
			if j == patLen {
				if i-patLen >= end {
					return ret // starts in the next chunk's range
				}
				if checkCharBoundary(src, i-patLen) {
					if prev+patLen <= i-patLen {
						ret = append(ret, model.Match{Beg: i - patLen, End: i})
						prev = i - patLen
					}
				}
			}
			j = betap[j]
		}
		ip = i + mp - j
	}
	return ret
}
