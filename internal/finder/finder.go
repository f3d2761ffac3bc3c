// Package finder implements the Fork 1→N stage: it walks one or more base
// paths, applies VCS/gitignore rejection, and dispatches discovered files
// round-robin across the Matcher stage's input channels.
package finder

import (
	"os"
	"path/filepath"
	"time"

	"github.com/karrick/godirwalk"
	"github.com/RoaringBitmap/roaring"

	"github.com/ambergrep/ambergrep/internal/ignore"
	"github.com/ambergrep/ambergrep/internal/model"
	"github.com/ambergrep/ambergrep/internal/pipeline"
)

// Config mirrors the boolean knobs named in spec.md §4.5. Zero value:
// non-recursive, symlinks not followed, no VCS or gitignore rejection,
// skipped paths silent.
type Config struct {
	Recursive        bool
	FollowSymlink    bool
	SkipVCS          bool
	SkipGitignore    bool
	PrintSkipped     bool
	FindParentIgnore bool
}

// Finder drives the Fork 1→N stage for one pipeline run.
type Finder struct {
	cfg     Config
	outs    []chan<- pipeline.Envelope
	rr      *pipeline.RoundRobin
	stageID int

	seq     int
	visited *roaring.Bitmap
}

// New builds a Finder dispatching across outs, round-robin.
func New(stageID int, cfg Config, outs []chan<- pipeline.Envelope) *Finder {
	return &Finder{
		cfg:     cfg,
		outs:    outs,
		rr:      pipeline.NewRoundRobin(len(outs)),
		stageID: stageID,
		visited: roaring.New(),
	}
}

// Run walks each of basePaths and dispatches discovered files, then closes
// the fan-out with SeqEnd on every output. It is the entire lifetime of one
// Finder: SeqBeg(0) is sent first, a MsgTime and SeqEnd(finalSeq) last, the
// same per-stage accounting every other stage reports (spec.md §4.4 item 4).
func (f *Finder) Run(basePaths []string) {
	start := time.Now()
	f.broadcast(pipeline.SeqBeg(0))

	var stack ignore.Stack
	for _, base := range basePaths {
		if f.cfg.FindParentIgnore && f.cfg.SkipGitignore {
			seeds, err := ignore.SeedFromParents(base)
			if err == nil {
				for _, rs := range seeds {
					stack.Push(rs)
				}
			}
		}
		depth := stack.Depth()
		f.visit(base, &stack)
		stack.TruncateTo(depth)
	}

	wall := time.Since(start)
	f.broadcast(pipeline.MsgTime(f.stageID, wall, wall))
	final := f.seq
	f.broadcast(pipeline.SeqEnd(final))
	for _, o := range f.outs {
		close(o)
	}
}

func (f *Finder) broadcast(e pipeline.Envelope) {
	for _, o := range f.outs {
		o <- e
	}
}

func (f *Finder) dispatch(path string) {
	seq := f.seq
	f.seq++
	out := f.outs[f.rr.Next()]
	out <- pipeline.SeqDat(seq, model.PathInfo{Path: path})
}

func (f *Finder) skip(path string, reason string) {
	if f.cfg.PrintSkipped {
		f.broadcast(pipeline.MsgInfo(f.stageID, "skipped "+path+": "+reason))
	}
}

func (f *Finder) errf(path string, reason string) {
	f.broadcast(pipeline.MsgErr(f.stageID, path+": "+reason))
}

// visit implements the algorithm in spec.md §4.5.
func (f *Finder) visit(path string, stack *ignore.Stack) {
	info, err := os.Lstat(path)
	if err != nil {
		f.errf(path, err.Error())
		return
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if !f.cfg.FollowSymlink {
			return
		}
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			f.errf(path, err.Error())
			return
		}
		info, err = os.Stat(resolved)
		if err != nil {
			f.errf(path, err.Error())
			return
		}
		path = resolved
	}

	if info.IsDir() {
		if key, ok := dirKey(info); ok {
			if !f.visited.CheckedAdd(key) {
				// Already descended into this directory identity: a
				// symlink cycle. Stop here rather than recursing forever.
				return
			}
		}

		var pushed *ignore.RuleSet
		if f.cfg.SkipGitignore {
			rs, err := ignore.LoadGitignore(path)
			if err == nil && rs != nil {
				stack.Push(rs)
				pushed = rs
			}
		}

		entries, err := godirwalk.ReadDirents(path, nil)
		if err != nil {
			f.errf(path, err.Error())
		} else {
			for _, de := range entries {
				child := filepath.Join(path, de.Name())
				switch {
				case de.IsRegular():
					if f.cfg.SkipGitignore && stack.Rejects(child, false) {
						f.skip(child, "gitignore")
						continue
					}
					f.dispatchFile(child)
				case de.IsDir() || de.IsSymlink():
					if !f.cfg.Recursive {
						continue
					}
					if f.cfg.SkipVCS && ignore.IsVCSDir(de.Name()) {
						f.skip(child, "vcs directory")
						continue
					}
					if f.cfg.SkipGitignore && stack.Rejects(child, true) {
						f.skip(child, "gitignore")
						continue
					}
					f.visit(child, stack)
				}
			}
		}

		if pushed != nil {
			stack.Pop()
		}
		return
	}

	if info.Mode().IsRegular() {
		f.dispatchFile(path)
	}
}

func (f *Finder) dispatchFile(path string) {
	info, err := os.Stat(path)
	if err != nil {
		f.errf(path, err.Error())
		return
	}
	if info.Size() == 0 {
		return
	}
	f.dispatch(path)
}
