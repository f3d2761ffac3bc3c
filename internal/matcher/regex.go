package matcher

import (
	"bytes"
	"regexp"
	"regexp/syntax"
	"unicode"
	"unicode/utf8"

	"github.com/ambergrep/ambergrep/internal/model"
)

// Regex delegates to the stdlib regexp engine rather than implementing its
// own scan. Case-insensitive matching is handled by lowering the parsed
// syntax tree (lowerRegexpASCII) rather than compiling with (?i), mirroring
// cmd/searcher/search/matcher.go's compile() -- the stdlib engine has poor
// optimisations for the latter. A literal substring guaranteed to occur in
// any match (longestLiteral) is checked once against the whole buffer, so
// Search returns early, before any chunking, when the literal isn't present.
type Regex struct {
	// IgnoreCase requests ASCII-only case-insensitive matching, applied by
	// lowering the compiled syntax tree rather than the (?i) flag.
	IgnoreCase bool
}

func (r Regex) compile(pat []byte) (*regexp.Regexp, []byte, error) {
	expr := string(pat)
	if r.IgnoreCase {
		parsed, err := syntax.Parse(expr, syntax.Perl)
		if err != nil {
			return nil, nil, err
		}
		lowerRegexpASCII(parsed)
		expr = parsed.String()
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, nil, err
	}

	var literal []byte
	if prefix, complete := re.LiteralPrefix(); complete {
		literal = []byte(prefix)
	} else {
		parsed, err := syntax.Parse(expr, syntax.Perl)
		if err == nil {
			parsed = parsed.Simplify()
			literal = []byte(longestLiteral(parsed))
		}
	}
	return re, literal, nil
}

// Search treats pat as a regular expression rather than a literal byte
// string. When IgnoreCase is set, src is matched via an ASCII-lowered copy
// (same technique as cmd/searcher/search/matcher.go's transformBuf) rather
// than a case-insensitive regex engine flag; since ASCII lowering never
// changes a byte's position or the total length, match offsets read off the
// lowered copy apply unchanged to the original src.
func (r Regex) Search(src, pat []byte, opts Options) []model.Match {
	opts = opts.normalize()
	if !utf8.Valid(src) || !utf8.Valid(pat) {
		return nil
	}
	re, literal, err := r.compile(pat)
	if err != nil || re == nil {
		return nil
	}

	matchBuf := src
	if r.IgnoreCase {
		matchBuf = make([]byte, len(src))
		bytesToLowerASCII(matchBuf, src)
	}

	if len(literal) > 0 && !bytes.Contains(matchBuf, literal) {
		return nil
	}

	t := numChunks(len(matchBuf), opts)
	if t == 1 {
		return regexRange(re, matchBuf, 0, len(matchBuf))
	}
	matches := runChunked(t, len(matchBuf), func(beg, end int) []model.Match {
		return regexRange(re, matchBuf, beg, end)
	})
	return dedupeOverlapping(matches)
}

// dedupeOverlapping drops any match that starts before the previous kept
// match's End, keeping the earlier one. Each chunk's own FindAllSubmatchIndex
// call is non-overlapping in isolation, but a match a chunk accepts can
// extend past its own end into the next chunk's range, which scans
// independently from its own beg and can surface a second, overlapping
// match starting in that stolen territory. Chunks are processed and
// concatenated in increasing beg order, so the input here is already
// sorted by Beg; a single linear pass is enough (spec.md §3 non-overlap).
func dedupeOverlapping(matches []model.Match) []model.Match {
	if len(matches) == 0 {
		return matches
	}
	kept := make([]model.Match, 0, len(matches))
	kept = append(kept, matches[0])
	for _, m := range matches[1:] {
		if m.Beg < kept[len(kept)-1].End {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// bytesToLowerASCII lowers src[i] into dst[i] for ASCII letters only,
// leaving every other byte (including multi-byte UTF-8 sequences) untouched
// so offsets and length are preserved.
func bytesToLowerASCII(dst, src []byte) {
	for i, b := range src {
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		dst[i] = b
	}
}

// regexRange runs re over src[beg:end], widened so a match cannot be split
// by the chunk boundary: FindAllSubmatchIndex is anchored at beg but allowed
// to run to len(src), and any result that starts before end is kept. A
// match accepted this way can still extend past end into the next chunk's
// own scan, producing a second overlapping match there; dedupeOverlapping
// resolves that once every chunk's results are concatenated.
func regexRange(re *regexp.Regexp, src []byte, beg, end int) []model.Match {
	var ret []model.Match
	locs := re.FindAllSubmatchIndex(src[beg:], -1)
	for _, loc := range locs {
		start := beg + loc[0]
		if start >= end {
			continue
		}
		finish := beg + loc[1]
		m := model.Match{Beg: start, End: finish}
		for i := 2; i+1 < len(loc); i += 2 {
			if loc[i] < 0 {
				continue
			}
			m.SubMatch = append(m.SubMatch, model.Match{
				Beg: beg + loc[i],
				End: beg + loc[i+1],
			})
		}
		ret = append(ret, m)
	}
	return ret
}

// lowerRegexpASCII lowers rune literals and expands char classes to include
// lowercase, in place. strings.ToLower isn't safe here since it would also
// change the meaning of regex shorthands like \S or \B.
func lowerRegexpASCII(re *syntax.Regexp) {
	for _, c := range re.Sub {
		if c != nil {
			lowerRegexpASCII(c)
		}
	}
	switch re.Op {
	case syntax.OpLiteral:
		for i := range re.Rune {
			re.Rune[i] = unicode.ToLower(re.Rune[i])
		}
	case syntax.OpCharClass:
		l := len(re.Rune)

		// An exclusion class such as [^A-Z] must map to [^a-z]; the normal
		// inclusive-range logic below would do nothing, since [a-z] is
		// already outside [^A-Z]. We detect exclusion classes by the
		// inclusive range starting at 0 and ending at the top of the
		// unicode range (re.Rune is sorted).
		isExclusion := l >= 4 && re.Rune[0] == 0 && re.Rune[l-1] == utf8.MaxRune
		if isExclusion {
			excluded := []rune{}
			for i := 1; i < l-1; i += 2 {
				a, b := re.Rune[i], re.Rune[i+1]
				if a > 'Z' || b < 'A' {
					continue
				}
				if a < 'A' {
					a = 'A' - 1
				}
				if b > 'Z' {
					b = 'Z' + 1
				}
				excluded = append(excluded, a+'a'-'A', b+'b'-'B')
			}

			out := make([]rune, 0, len(re.Rune))
			for i := 0; i < l; i += 2 {
				a, b := re.Rune[i], re.Rune[i+1]
				for len(excluded) > 0 && a >= excluded[1] {
					excluded = excluded[2:]
				}
				if len(excluded) == 0 || b <= excluded[0] {
					out = append(out, a, b)
					continue
				}
				if a <= excluded[0] {
					out = append(out, a, excluded[0])
				}
				if b >= excluded[1] {
					out = append(out, excluded[1], b)
				}
			}
			re.Rune = out
		} else {
			for i := 0; i < l; i += 2 {
				if re.Rune[i] <= 'a' && re.Rune[i+1] >= 'z' {
					return
				}
			}
			for i := 0; i < l; i += 2 {
				a, b := re.Rune[i], re.Rune[i+1]
				if a > 'Z' || b < 'A' {
					continue
				}
				simple := true
				if a < 'A' {
					simple = false
					a = 'A'
				}
				if b > 'Z' {
					simple = false
					b = 'Z'
				}
				a, b = unicode.ToLower(a), unicode.ToLower(b)
				if simple {
					re.Rune[i], re.Rune[i+1] = a, b
				} else {
					re.Rune = append(re.Rune, a, b)
				}
			}
		}
	default:
		return
	}
	for i := 0; i < 2 && i < len(re.Rune); i++ {
		re.Rune0[i] = re.Rune[i]
	}
}

// longestLiteral finds a substring guaranteed to appear in any match of re.
// It may miss a longer guaranteed substring -- e.g. it doesn't find the
// longest common substring across an alternation, nor concat simple capture
// groups -- but anything it returns is safe to use as a prefilter.
func longestLiteral(re *syntax.Regexp) string {
	switch re.Op {
	case syntax.OpLiteral:
		return string(re.Rune)
	case syntax.OpCapture, syntax.OpPlus:
		return longestLiteral(re.Sub[0])
	case syntax.OpRepeat:
		if re.Min >= 1 {
			return longestLiteral(re.Sub[0])
		}
	case syntax.OpConcat:
		longest := ""
		for _, sub := range re.Sub {
			l := longestLiteral(sub)
			if len(l) > len(longest) {
				longest = l
			}
		}
		return longest
	}
	return ""
}
