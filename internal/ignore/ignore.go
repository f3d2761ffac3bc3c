// Package ignore implements the gitignore-style path rejection rules the
// Finder stage consults while descending a directory tree: a VCS-directory
// rule, and a stack of compiled .gitignore rule sets pushed on descent and
// popped on ascent.
//
// Each rule set is two-layered, mirroring the approach dalance/amber itself
// moved to (original_source/src/ignore.rs delegates straight to the `ignore`
// crate's Gitignore type): a cheap fast-reject cache sits in front of the
// authoritative matcher from gopkg.in/src-d/go-git.v4/plumbing/format/gitignore,
// which supplies full git semantics including negation.
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	gogitignore "gopkg.in/src-d/go-git.v4/plumbing/format/gitignore"
)

// VCSDirs lists the directory names rejected outright regardless of any
// .gitignore content.
var VCSDirs = map[string]bool{
	".git": true,
	".hg":  true,
	".svn": true,
	".bzr": true,
}

// IsVCSDir reports whether name (a single path component) names a directory
// that must always be rejected.
func IsVCSDir(name string) bool {
	return VCSDirs[name]
}

// RuleSet is one compiled .gitignore file: a fast-reject cache in front of
// the authoritative go-git matcher.
type RuleSet struct {
	dir     string
	matcher gogitignore.Matcher
	cache   []fastRule
}

// fastRule is the O(1) pre-filter described in spec.md §4.2: a constant
// first/last byte (0 if that end of the pattern is a wildcard) plus the
// compiled glob, checked before falling through to the authoritative
// matcher. It may report a possible match that the authoritative matcher
// then turns down (its cached bytes don't rule the pattern out), but it never
// rules out a pattern that does match, so a possible match always falls
// through to the authoritative matcher rather than rejecting directly.
type fastRule struct {
	firstByte byte
	lastByte  byte
	// g is a best-effort gobwas/glob compilation of a simple (no `/`)
	// trailing path segment, used only to narrow couldMatch further; nil
	// when the pattern is anchored or failed to compile, in which case the
	// byte cache alone decides.
	g glob.Glob
}

func newFastRule(pattern string) fastRule {
	var fr fastRule
	// A trailing "/" only marks the pattern as directory-only (spec.md
	// §4.2); it is never itself one of the literal name bytes couldMatch
	// compares against, so strip it before computing firstByte/lastByte/g.
	pattern = strings.TrimSuffix(pattern, "/")
	// couldMatch only sees a base name, so the cached bytes come from the
	// pattern's last segment ("/build" and "src/build" both cache 'b'/'d').
	seg := pattern[strings.LastIndex(pattern, "/")+1:]
	if seg == "" {
		return fr
	}
	if !isWildcardByte(seg[0]) {
		fr.firstByte = seg[0]
	}
	if last := seg[len(seg)-1]; !isWildcardByte(last) {
		fr.lastByte = last
	}
	if !strings.Contains(pattern, "/") {
		if g, err := glob.Compile(pattern); err == nil {
			fr.g = g
		}
	}
	return fr
}

func isWildcardByte(b byte) bool {
	return b == '*' || b == '?' || b == '[' || b == '!'
}

// couldMatch reports whether base could possibly satisfy the rule, using
// only the cached first/last byte and (when available) a compiled glob
// pattern. A false result is authoritative; a true result still requires
// the real matcher to account for directory anchoring and negation.
func (fr fastRule) couldMatch(base string) bool {
	if base == "" {
		return true
	}
	if fr.firstByte != 0 && base[0] != fr.firstByte {
		return false
	}
	if fr.lastByte != 0 && base[len(base)-1] != fr.lastByte {
		return false
	}
	if fr.g != nil && !fr.g.Match(base) {
		return false
	}
	return true
}

// ParseRuleSet compiles the contents of a .gitignore file located at dir
// (dir is the directory containing the file, used to anchor `/`-qualified
// patterns per spec.md §4.2). Blank lines and lines starting with `#` are
// skipped; everything else -- negation included -- is handed to the go-git
// gitignore parser, which implements full pattern semantics.
func ParseRuleSet(dir, contents string) *RuleSet {
	var patterns []gogitignore.Pattern
	var cache []fastRule

	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		// No domain: Rejects hands the matcher paths relative to dir.
		patterns = append(patterns, gogitignore.ParsePattern(line, nil))
		cache = append(cache, newFastRule(strings.TrimPrefix(trimmed, "!")))
	}

	return &RuleSet{
		dir:     dir,
		matcher: gogitignore.NewMatcher(patterns),
		cache:   cache,
	}
}

// Rejects reports whether path (absolute or relative to the process's
// working directory) is ignored by this rule set.
func (r *RuleSet) Rejects(path string, isDir bool) bool {
	if r == nil || r.matcher == nil {
		return false
	}
	base := filepath.Base(path)
	anyCouldMatch := len(r.cache) == 0
	for _, fr := range r.cache {
		if fr.couldMatch(base) {
			anyCouldMatch = true
			break
		}
	}
	if !anyCouldMatch {
		return false
	}

	rel, err := filepath.Rel(r.dir, path)
	if err != nil {
		rel = path
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	return r.matcher.Match(parts, isDir)
}

// Stack is the per-descent sequence of RuleSets: one pushed whenever the
// Finder enters a directory containing a .gitignore, popped on ascent. A
// path is rejected if any set currently on the stack rejects it.
type Stack struct {
	sets []*RuleSet
}

// NewStack returns an empty stack, optionally seeded by a parent lookup
// (spec.md §4.2 "Parent lookup").
func NewStack(seed ...*RuleSet) *Stack {
	return &Stack{sets: append([]*RuleSet{}, seed...)}
}

// Push adds a rule set to the top of the stack, e.g. on entering a
// directory that contains a .gitignore.
func (s *Stack) Push(rs *RuleSet) {
	if rs != nil {
		s.sets = append(s.sets, rs)
	}
}

// Pop removes the rule set most recently pushed, e.g. on leaving that
// directory.
func (s *Stack) Pop() {
	if len(s.sets) > 0 {
		s.sets = s.sets[:len(s.sets)-1]
	}
}

// Depth reports how many rule sets are currently on the stack, letting a
// caller snapshot and later Pop back to a known depth instead of tracking
// individual pushes per directory.
func (s *Stack) Depth() int {
	return len(s.sets)
}

// TruncateTo pops rule sets until the stack depth equals n.
func (s *Stack) TruncateTo(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(s.sets) {
		s.sets = s.sets[:n]
	}
}

// Rejects reports whether path is ignored by any rule set on the stack, or
// is itself a VCS directory (isDir set and a VCS name as its last component).
func (s *Stack) Rejects(path string, isDir bool) bool {
	if isDir && IsVCSDir(filepath.Base(path)) {
		return true
	}
	for _, rs := range s.sets {
		if rs.Rejects(path, isDir) {
			return true
		}
	}
	return false
}

// LoadGitignore reads dir/.gitignore and compiles it, returning nil with no
// error if the file does not exist.
func LoadGitignore(dir string) (*RuleSet, error) {
	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return ParseRuleSet(dir, string(data)), nil
}

// SeedFromParents walks the ancestors of base looking for .gitignore files,
// compiling the outermost first so closer rule sets are pushed last (spec.md
// §4.2 "before processing a user-supplied base path, the Finder MAY walk
// ancestor directories").
func SeedFromParents(base string) ([]*RuleSet, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for dir := filepath.Dir(abs); ; {
		dirs = append(dirs, dir)
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	var sets []*RuleSet
	for i := len(dirs) - 1; i >= 0; i-- {
		rs, err := LoadGitignore(dirs[i])
		if err != nil {
			continue
		}
		if rs != nil {
			sets = append(sets, rs)
		}
	}
	return sets, nil
}
