package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeDefaultsWhenNothingSet(t *testing.T) {
	r := Merge(map[string]string{}, Flags{})
	assert.Equal(t, 4, r.MaxThreads)
	assert.True(t, r.SkipVCS)
	assert.True(t, r.SkipGitignore)
	assert.False(t, r.Regex)
}

func TestMergeConfigFileOverridesDefault(t *testing.T) {
	r := Merge(map[string]string{"RECURSIVE": "true"}, Flags{})
	assert.True(t, r.Recursive)
}

func TestMergeCLIFlagWinsOverConfigFile(t *testing.T) {
	no := false
	r := Merge(map[string]string{"RECURSIVE": "true"}, Flags{Recursive: &no})
	assert.False(t, r.Recursive, "explicit --no-recursive must win over the config file")
}

func TestLoadMissingFileReturnsEmptyMap(t *testing.T) {
	vals, err := Load(filepath.Join(t.TempDir(), "does-not-exist.env"))
	require.NoError(t, err)
	assert.Empty(t, vals)
}

func TestLoadParsesKeyValueLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")
	require.NoError(t, os.WriteFile(path, []byte("RECURSIVE=true\nMAX_THREADS=8\n"), 0o644))

	vals, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "true", vals["RECURSIVE"])
	assert.Equal(t, "8", vals["MAX_THREADS"])
}

func TestFilePathHonoursXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdgtest")
	p, err := FilePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdgtest/ambergrep/config.env", p)
}
