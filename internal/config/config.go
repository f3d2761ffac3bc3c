// Package config loads the well-known per-user config file and merges it
// with CLI flags (C10), the way cmd/server/shared/shared.go loads
// $CONFIG_DIR/env with github.com/joho/godotenv before applying defaults --
// except here the config file supplies *defaults* a CLI flag can override,
// rather than environment variables a process inherits.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Flags is the paired --flag/--no-flag option set from spec.md §6,
// represented as *bool so "not set on the CLI" is distinguishable from
// both true and false.
type Flags struct {
	MaxThreads    *int
	SizePerThread *int64
	BinCheckBytes *int
	MmapBytes     *int64

	Regex *bool
	TBM   *bool

	Column *bool
	Row    *bool
	File   *bool

	Recursive     *bool
	Symlink       *bool
	SkipVCS       *bool
	SkipGitignore *bool
	ParentIgnore  *bool
	FixedOrder    *bool

	Binary      *bool
	Skipped     *bool
	Statistics  *bool
	Interactive *bool
	PreserveTime *bool
}

// Resolved is the fully merged configuration: every field has a concrete
// value, combining CLI flags, the config file, and documented defaults in
// that precedence order (spec.md §9 Open Question, resolved in SPEC_FULL.md
// §4.10).
type Resolved struct {
	MaxThreads    int
	SizePerThread int64
	BinCheckBytes int
	MmapBytes     int64

	Regex bool
	TBM   bool

	Column bool
	Row    bool
	File   bool

	Recursive     bool
	Symlink       bool
	SkipVCS       bool
	SkipGitignore bool
	ParentIgnore  bool
	FixedOrder    bool

	Binary       bool
	Skipped      bool
	Statistics   bool
	Interactive  bool
	PreserveTime bool
}

func defaults() Resolved {
	return Resolved{
		MaxThreads:    4,
		SizePerThread: 1 << 20,
		BinCheckBytes: 256,
		MmapBytes:     1 << 20,
		SkipVCS:       true,
		SkipGitignore: true,
	}
}

// FilePath returns the well-known config file location:
// $XDG_CONFIG_HOME/ambergrep/config.env, falling back to
// ~/.config/ambergrep/config.env.
func FilePath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ambergrep", "config.env"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "config: locating home directory")
	}
	return filepath.Join(home, ".config", "ambergrep", "config.env"), nil
}

// Load reads the config file (if present) as a flat KEY=value table via
// godotenv.Read, returning an empty map if the file does not exist.
func Load(path string) (map[string]string, error) {
	vals, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}
	return vals, nil
}

// Merge combines a loaded config file's overrides with explicit CLI flags.
// An explicitly-set CLI flag always wins; otherwise the config file's value
// applies; otherwise the documented default.
func Merge(file map[string]string, cli Flags) Resolved {
	r := defaults()

	applyBool := func(dst *bool, cliVal *bool, key string) {
		if cliVal != nil {
			*dst = *cliVal
			return
		}
		if v, ok := file[key]; ok {
			*dst = v == "1" || v == "true"
		}
	}

	applyBool(&r.Regex, cli.Regex, "REGEX")
	applyBool(&r.TBM, cli.TBM, "TBM")
	applyBool(&r.Column, cli.Column, "COLUMN")
	applyBool(&r.Row, cli.Row, "ROW")
	applyBool(&r.File, cli.File, "FILE")
	applyBool(&r.Recursive, cli.Recursive, "RECURSIVE")
	applyBool(&r.Symlink, cli.Symlink, "SYMLINK")
	applyBool(&r.SkipVCS, cli.SkipVCS, "SKIP_VCS")
	applyBool(&r.SkipGitignore, cli.SkipGitignore, "SKIP_GITIGNORE")
	applyBool(&r.ParentIgnore, cli.ParentIgnore, "PARENT_IGNORE")
	applyBool(&r.FixedOrder, cli.FixedOrder, "FIXED_ORDER")
	applyBool(&r.Binary, cli.Binary, "BINARY")
	applyBool(&r.Skipped, cli.Skipped, "SKIPPED")
	applyBool(&r.Statistics, cli.Statistics, "STATISTICS")
	applyBool(&r.Interactive, cli.Interactive, "INTERACTIVE")
	applyBool(&r.PreserveTime, cli.PreserveTime, "PRESERVE_TIME")

	fileInt := func(key string) (int64, bool) {
		n, err := strconv.ParseInt(file[key], 10, 64)
		return n, err == nil && n > 0
	}
	if cli.MaxThreads != nil {
		r.MaxThreads = *cli.MaxThreads
	} else if n, ok := fileInt("MAX_THREADS"); ok {
		r.MaxThreads = int(n)
	}
	if cli.SizePerThread != nil {
		r.SizePerThread = *cli.SizePerThread
	} else if n, ok := fileInt("SIZE_PER_THREAD"); ok {
		r.SizePerThread = n
	}
	if cli.BinCheckBytes != nil {
		r.BinCheckBytes = *cli.BinCheckBytes
	} else if n, ok := fileInt("BIN_CHECK_BYTES"); ok {
		r.BinCheckBytes = int(n)
	}
	if cli.MmapBytes != nil {
		r.MmapBytes = *cli.MmapBytes
	} else if n, ok := fileInt("MMAP_BYTES"); ok {
		r.MmapBytes = n
	}

	return r
}
