// Package replacer implements the Replacer stage (C9): the terminal stage
// that performs an atomic, permission-preserving rewrite of each file with
// non-empty matches, with optional per-match interactive confirmation.
package replacer

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"

	"github.com/ambergrep/ambergrep/internal/model"
	"github.com/ambergrep/ambergrep/internal/pipeline"
)

// Decision is the outcome of deciding whether to apply one match's
// replacement, per spec.md §4.9's [Y]es/[N]o/[A]ll/[Q]uit precedence.
type Decision int

const (
	Yes Decision = iota
	No
	All
	Quit
)

// Prompter asks the user what to do about one match. It is called only
// when Config.Interactive is set and --all has not already been chosen.
type Prompter func(path string, m model.Match) Decision

// ErrQuit is returned by Run when the user chose Quit: the caller should
// stop the pipeline and exit 0, per spec.md §6 "0 on SIGINT after cleanup"
// and §4.9 "on Q, delete temp file and exit 0".
var ErrQuit = errors.New("replace: user requested quit")

// Config controls one Replacer run. Exactly one of Regex or plain
// Replacement applies, selected by whether Regex is non-nil.
type Config struct {
	Replacement []byte

	// Regex, if set, re-runs capture-reference expansion
	// (regexp.Regexp.Expand) using the replacement bytes as a
	// template against each match's absolute byte spans.
	Regex *regexp.Regexp

	Interactive  bool
	PreserveTime bool
	MmapThreshold int64

	Prompt Prompter
}

func (c Config) normalize() Config {
	if c.MmapThreshold <= 0 {
		c.MmapThreshold = 1 << 20
	}
	return c
}

// Replacer is the terminal stage. It is single-threaded by contract
// (spec.md §5): file writes happen only here.
type Replacer struct {
	cfg       Config
	stageID   int
	allChosen bool

	// currentTmp holds the path of the temp file currently being written.
	// No signal handler reads it: an interrupt does not remove the temp
	// file; rewriteFile removes it itself when a rewrite does not complete.
	currentTmp atomic.Value // string
}

func New(stageID int, cfg Config) *Replacer {
	return &Replacer{cfg: cfg.normalize(), stageID: stageID}
}

// CurrentTempFile returns the temp file path in flight, if any. Nothing in
// the repository calls it; no signal handler removes that file.
func (r *Replacer) CurrentTempFile() string {
	v, _ := r.currentTmp.Load().(string)
	return v
}

// Run consumes PathMatch records and rewrites each file with non-empty
// matches. It returns ErrQuit if the user quit an interactive prompt.
func (r *Replacer) Run(in <-chan pipeline.Envelope, onErr func(text string), onInfo func(text string)) error {
	for e := range in {
		switch e.Tag {
		case pipeline.TagSeqDat:
			pm := e.Payload.(model.PathMatch)
			if len(pm.Matches) == 0 {
				continue
			}
			if err := r.rewriteFile(pm.Path, pm.Matches); err != nil {
				if errors.Is(err, ErrQuit) {
					return ErrQuit
				}
				onErr(pm.Path + ": " + err.Error())
			}
		case pipeline.TagMsgInfo:
			onInfo(e.Text)
		case pipeline.TagMsgErr:
			onErr(e.Text)
		}
	}
	return nil
}

func (r *Replacer) rewriteFile(path string, matches []model.Match) error {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		real = path
	}

	src, closeSrc, err := openForRead(real, r.cfg.MmapThreshold)
	if err != nil {
		return err
	}
	defer closeSrc()

	srcInfo, err := os.Stat(real)
	if err != nil {
		return err
	}

	dir := filepath.Dir(real)
	tmp, err := os.CreateTemp(dir, ".ambergrep-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	r.currentTmp.Store(tmpPath)
	defer r.currentTmp.Store("")

	succeeded := false
	defer func() {
		if !succeeded {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(tmp)
	cursor := 0
	for _, m := range matches {
		if _, err := w.Write(src[cursor:m.Beg]); err != nil {
			return err
		}

		decision := r.decide(real, m)
		if decision == Quit {
			return ErrQuit
		}

		if decision == No {
			if _, err := w.Write(src[m.Beg:m.End]); err != nil {
				return err
			}
		} else {
			rep := r.expand(src, m)
			if _, err := w.Write(rep); err != nil {
				return err
			}
		}
		cursor = m.End
	}
	if _, err := w.Write(src[cursor:]); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpPath, srcInfo.Mode()); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, real); err != nil {
		return err
	}
	succeeded = true

	if r.cfg.PreserveTime {
		restoreTimes(real, srcInfo)
	}
	return nil
}

// decide applies the precedence in spec.md §4.9: --all already chosen,
// then an interactive prompt, then default Yes for batch mode.
func (r *Replacer) decide(path string, m model.Match) Decision {
	if r.allChosen {
		return Yes
	}
	if !r.cfg.Interactive || r.cfg.Prompt == nil {
		return Yes
	}
	switch r.cfg.Prompt(path, m) {
	case All:
		r.allChosen = true
		return Yes
	case Quit:
		return Quit
	case No:
		return No
	default:
		return Yes
	}
}

// expand returns the replacement bytes for m: the regex capture-expanded
// template in regex mode, or the literal replacement otherwise.
func (r *Replacer) expand(src []byte, m model.Match) []byte {
	if r.cfg.Regex == nil {
		return r.cfg.Replacement
	}
	idx := make([]int, 2+2*len(m.SubMatch))
	idx[0], idx[1] = m.Beg, m.End
	for i, sm := range m.SubMatch {
		idx[2+2*i] = sm.Beg
		idx[2+2*i+1] = sm.End
	}
	return r.cfg.Regex.Expand(nil, r.cfg.Replacement, src, idx)
}

func openForRead(path string, mmapThreshold int64) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.Size() > mmapThreshold {
		m, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return m, func() { m.Unmap(); f.Close() }, nil
	}
	buf := make([]byte, info.Size())
	if _, err := io.ReadFull(f, buf); err != nil {
		f.Close()
		return nil, nil, err
	}
	return buf, func() { f.Close() }, nil
}
