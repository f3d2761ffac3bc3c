// Package model holds the data types that flow through the pipeline:
// PathInfo from the Finder, PathMatch from the Matcher stage onward.
package model

// Match is a closed-open byte interval [Beg, End) within a source buffer,
// optionally carrying sub-match intervals for regex capture groups.
type Match struct {
	Beg      int
	End      int
	SubMatch []Match
}

// PathInfo is a file discovered by the Finder. Immutable after emission.
type PathInfo struct {
	Path string
	Len  int64
}

// PathMatch is produced by the Matcher stage. Matches is nil or empty to
// signal "scanned, no hits". Matches are ordered by Beg ascending and
// non-overlapping.
type PathMatch struct {
	Path    string
	Matches []Match
}
