// Package scanner implements the Matcher stage (C6): a Pipeline 1→1 shape,
// replicated N times, that maps PathInfo records to PathMatch records by
// reading (or mmapping) each file and running a configured matcher.Algorithm.
package scanner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"

	"github.com/ambergrep/ambergrep/internal/matcher"
	"github.com/ambergrep/ambergrep/internal/model"
	"github.com/ambergrep/ambergrep/internal/pipeline"
)

// Config configures one Scanner replica.
type Config struct {
	Algorithm matcher.Algorithm
	Keyword   []byte

	// MmapThreshold is the file size above which the file is mapped
	// read-only rather than read whole into a buffer. Default 1 MiB.
	MmapThreshold int64

	// SkipBinary, when set, causes files whose first BinCheckBytes bytes
	// contain a byte <= 0x08 to be treated as binary: no matches, with an
	// MsgInfo if PrintSkipped is set.
	SkipBinary   bool
	BinCheckBytes int
	PrintSkipped  bool

	// IgnoreCase folds both the keyword and the scanned buffer to lowercase
	// ASCII before searching. matcher.Regex folds internally, so this only
	// takes effect for the literal algorithms, which leave case folding to
	// the caller (matcher.Select's doc comment).
	IgnoreCase bool

	MatcherOptions matcher.Options
}

func (c Config) normalize() Config {
	if c.MmapThreshold <= 0 {
		c.MmapThreshold = 1 << 20
	}
	if c.BinCheckBytes <= 0 {
		c.BinCheckBytes = 256
	}
	return c
}

// bufPool reuses read buffers across files scanned by the same replica,
// avoiding an allocation per small file.
var bufPool = sync.Pool{
	New: func() interface{} { return make([]byte, 0, 64*1024) },
}

// Scanner is one replica of the Matcher stage.
type Scanner struct {
	cfg     Config
	stageID int

	// foldedKeyword is the lowercase-ASCII keyword, precomputed once, used
	// in place of cfg.Keyword when cfg.IgnoreCase applies to a literal
	// algorithm.
	foldedKeyword []byte
}

func New(stageID int, cfg Config) *Scanner {
	cfg = cfg.normalize()
	s := &Scanner{cfg: cfg, stageID: stageID}
	if cfg.IgnoreCase {
		if _, isRegex := cfg.Algorithm.(matcher.Regex); !isRegex {
			s.foldedKeyword = make([]byte, len(cfg.Keyword))
			bytesToLowerASCII(s.foldedKeyword, cfg.Keyword)
		}
	}
	return s
}

// Run drives this replica's Stage harness over in, emitting PathMatch
// records on outs.
func (s *Scanner) Run(ctx context.Context, in <-chan pipeline.Envelope, outs []chan<- pipeline.Envelope) {
	stage := &pipeline.Stage{ID: s.stageID, Name: "scanner"}
	stage.Run(ctx, in, outs, func(ctx context.Context, e pipeline.Envelope, send func(pipeline.Envelope)) {
		pi := e.Payload.(model.PathInfo)
		pm := s.scanOne(pi, send)
		send(pipeline.SeqDat(e.Seq, pm))
	})
}

func (s *Scanner) scanOne(pi model.PathInfo, send func(pipeline.Envelope)) model.PathMatch {
	f, err := os.Open(pi.Path)
	if err != nil {
		send(pipeline.MsgErr(s.stageID, pi.Path+": "+err.Error()))
		return model.PathMatch{Path: pi.Path}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		send(pipeline.MsgErr(s.stageID, pi.Path+": "+err.Error()))
		return model.PathMatch{Path: pi.Path}
	}

	var src []byte
	var mapped mmap.MMap
	if info.Size() > s.cfg.MmapThreshold {
		mapped, err = mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			send(pipeline.MsgErr(s.stageID, pi.Path+": "+err.Error()))
			return model.PathMatch{Path: pi.Path}
		}
		defer mapped.Unmap()
		src = mapped
	} else {
		buf := bufPool.Get().([]byte)
		buf = buf[:0]
		defer bufPool.Put(buf) //nolint:staticcheck // buf is reassigned below; pool the backing array
		grown, err := readAll(f, buf, info.Size())
		if err != nil {
			send(pipeline.MsgErr(s.stageID, pi.Path+": "+err.Error()))
			return model.PathMatch{Path: pi.Path}
		}
		src = grown
	}

	if s.cfg.SkipBinary && looksBinary(src, s.cfg.BinCheckBytes) {
		if s.cfg.PrintSkipped {
			send(pipeline.MsgInfo(s.stageID, "skipped "+pi.Path+": binary"))
		}
		return model.PathMatch{Path: pi.Path}
	}

	searchSrc, searchPat := src, s.cfg.Keyword
	if s.foldedKeyword != nil {
		folded := make([]byte, len(src))
		bytesToLowerASCII(folded, src)
		searchSrc, searchPat = folded, s.foldedKeyword
	}

	matches, err := s.search(searchSrc, searchPat)
	if err != nil {
		send(pipeline.MsgErr(s.stageID, pi.Path+": "+err.Error()))
		return model.PathMatch{Path: pi.Path}
	}
	return model.PathMatch{Path: pi.Path, Matches: matches}
}

// search runs the configured Algorithm and converts a chunk-worker panic
// (matcher.runChunked aggregates concurrent ones with go-multierror before
// re-panicking) into an error, so one bad file reports a single MsgErr
// instead of taking the whole scanner stage down.
func (s *Scanner) search(src, pat []byte) (matches []model.Match, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return s.cfg.Algorithm.Search(src, pat, s.cfg.MatcherOptions), nil
}

// bytesToLowerASCII is scanner's own copy of the ASCII-only fold used by
// matcher.Regex, duplicated here rather than exported: the scanner needs to
// fold whole file buffers for the literal algorithms, which don't fold
// internally.
func bytesToLowerASCII(dst, src []byte) {
	for i, b := range src {
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		dst[i] = b
	}
}

func readAll(f *os.File, buf []byte, size int64) ([]byte, error) {
	if cap(buf) < int(size) {
		buf = make([]byte, size)
	} else {
		buf = buf[:size]
	}
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:n], nil
}

// looksBinary classifies src as binary if any of its first n bytes is a
// control byte <= 0x08 (spec.md §4.6).
func looksBinary(src []byte, n int) bool {
	if n > len(src) {
		n = len(src)
	}
	for _, c := range src[:n] {
		if c <= 0x08 {
			return true
		}
	}
	return false
}
