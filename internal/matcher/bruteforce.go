package matcher

import "github.com/ambergrep/ambergrep/internal/model"

// BruteForce is the reference implementation used to cross-check the
// tuned algorithms in tests. It does not parallelise.
type BruteForce struct{}

func (BruteForce) Search(src, pat []byte, _ Options) []model.Match {
	srcLen, patLen := len(src), len(pat)
	if patLen == 0 || srcLen < patLen {
		return nil
	}

	var ret []model.Match
	i := 0
	for i <= srcLen-patLen {
		if src[i] == pat[0] {
			match := true
			for j := 1; j < patLen; j++ {
				if src[i+j] != pat[j] {
					match = false
					break
				}
			}
			if match && checkCharBoundary(src, i) {
				ret = append(ret, model.Match{Beg: i, End: i + patLen})
				i += patLen
				continue
			}
		}
		i++
	}
	return ret
}
