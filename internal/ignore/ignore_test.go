package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsVCSDir(t *testing.T) {
	for _, d := range []string{".git", ".hg", ".svn", ".bzr"} {
		assert.True(t, IsVCSDir(d))
	}
	assert.False(t, IsVCSDir("git"))
	assert.False(t, IsVCSDir("src"))
}

func TestRuleSetRejectsByExtensionAndDirectory(t *testing.T) {
	dir := t.TempDir()
	rs := ParseRuleSet(dir, "*.o\n!abc.o\ndir2/\n# comment\n\nd?.t\n")

	assert.True(t, rs.Rejects(filepath.Join(dir, "a.o"), false))
	assert.False(t, rs.Rejects(filepath.Join(dir, "abc.o"), false), "negated pattern should be kept")
	assert.True(t, rs.Rejects(filepath.Join(dir, "dir2"), true))
	assert.False(t, rs.Rejects(filepath.Join(dir, "dir2"), false), "dir-only pattern must not match a plain file")
	assert.True(t, rs.Rejects(filepath.Join(dir, "d0.t"), false))
	assert.False(t, rs.Rejects(filepath.Join(dir, "d00.t"), false))
}

func TestStackRejectsWhenAnySetRejects(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	rootRules := ParseRuleSet(root, "*.log\n")
	subRules := ParseRuleSet(sub, "*.tmp\n")

	s := NewStack()
	s.Push(rootRules)
	assert.True(t, s.Rejects(filepath.Join(root, "a.log"), false))
	assert.False(t, s.Rejects(filepath.Join(root, "a.tmp"), false))

	s.Push(subRules)
	assert.True(t, s.Rejects(filepath.Join(sub, "b.tmp"), false))
	assert.True(t, s.Rejects(filepath.Join(sub, "b.log"), false), "outer rule set still applies")

	s.Pop()
	assert.False(t, s.Rejects(filepath.Join(sub, "b.tmp"), false), "popped rule set no longer applies")
}

func TestStackRejectsVCSDirs(t *testing.T) {
	s := NewStack()
	assert.True(t, s.Rejects("/repo/.git", true))
	assert.False(t, s.Rejects("/repo/.git", false), "VCS rule only applies to directories")
}

func TestTruncateTo(t *testing.T) {
	s := NewStack()
	s.Push(ParseRuleSet("/a", "x\n"))
	s.Push(ParseRuleSet("/a/b", "y\n"))
	s.Push(ParseRuleSet("/a/b/c", "z\n"))
	require.Equal(t, 3, s.Depth())

	s.TruncateTo(1)
	assert.Equal(t, 1, s.Depth())
}

func TestLoadGitignoreMissingFileIsNotAnError(t *testing.T) {
	rs, err := LoadGitignore(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, rs)
}
