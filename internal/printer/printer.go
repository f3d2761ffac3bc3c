// Package printer implements the Printer stage (C8): the terminal stage
// that renders grep-style output lines for PathMatch records with
// non-empty matches.
package printer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/ambergrep/ambergrep/internal/console"
	"github.com/ambergrep/ambergrep/internal/model"
	"github.com/ambergrep/ambergrep/internal/pipeline"
)

// Config controls which prefix fields are included in each emitted line
// and whether consecutive matches on an identical surrounding line are
// grouped.
type Config struct {
	ShowPath  bool
	ShowCol   bool
	ShowRow   bool
	GroupByLine bool

	MmapThreshold int64
}

func (c Config) normalize() Config {
	if c.MmapThreshold <= 0 {
		c.MmapThreshold = 1 << 20
	}
	return c
}

// Printer is the terminal stage consuming sorted PathMatch records.
type Printer struct {
	cfg     Config
	w       *console.Writer
	stageID int
}

func New(stageID int, cfg Config, w *console.Writer) *Printer {
	return &Printer{cfg: cfg.normalize(), w: w, stageID: stageID}
}

// Run consumes in to completion (there is no further stage to forward to),
// emitting one formatted line per match to the console Writer.
func (p *Printer) Run(ctx context.Context, in <-chan pipeline.Envelope) {
	for e := range in {
		switch e.Tag {
		case pipeline.TagSeqDat:
			pm := e.Payload.(model.PathMatch)
			if len(pm.Matches) == 0 {
				continue
			}
			p.printOne(pm)
		case pipeline.TagMsgInfo:
			p.w.Infof("%s", e.Text)
		case pipeline.TagMsgErr:
			p.w.Errorf("%s", e.Text)
		}
	}
}

func (p *Printer) printOne(pm model.PathMatch) {
	src, closeFn, err := openForRead(pm.Path, p.cfg.MmapThreshold)
	if err != nil {
		p.w.Errorf("%s: %s", pm.Path, err.Error())
		return
	}
	defer closeFn()

	if p.cfg.GroupByLine {
		p.printGrouped(pm.Path, src, pm.Matches)
		return
	}
	for _, m := range pm.Matches {
		p.printLine(pm.Path, src, m)
	}
}

func (p *Printer) printLine(path string, src []byte, m model.Match) {
	col, row := colRow(src, m.Beg)
	var prefix bytes.Buffer
	if p.cfg.ShowPath {
		prefix.WriteString(p.w.Sprint(console.Filename, path))
		prefix.WriteByte(':')
	}
	if p.cfg.ShowCol {
		fmt.Fprintf(&prefix, "%d:", col)
	}
	if p.cfg.ShowRow {
		fmt.Fprintf(&prefix, "%d:", row)
	}
	p.w.Write(console.Other, prefix.String())
	p.w.WriteMatchLine(src, m)
}

// printGrouped collapses consecutive matches whose surrounding line is
// identical into one emitted line carrying multiple highlighted spans.
func (p *Printer) printGrouped(path string, src []byte, matches []model.Match) {
	i := 0
	for i < len(matches) {
		beg, end := lineBounds(src, matches[i].Beg)
		j := i + 1
		for j < len(matches) {
			b2, e2 := lineBounds(src, matches[j].Beg)
			if b2 != beg || e2 != end {
				break
			}
			j++
		}
		group := matches[i:j]
		col, row := colRow(src, group[0].Beg)

		var prefix bytes.Buffer
		if p.cfg.ShowPath {
			prefix.WriteString(p.w.Sprint(console.Filename, path))
			prefix.WriteByte(':')
		}
		if p.cfg.ShowCol {
			fmt.Fprintf(&prefix, "%d:", col)
		}
		if p.cfg.ShowRow {
			fmt.Fprintf(&prefix, "%d:", row)
		}
		p.w.Write(console.Other, prefix.String())

		cursor := beg
		for _, m := range group {
			p.w.Write(console.Text, string(src[cursor:m.Beg]))
			p.w.Write(console.MatchText, string(src[m.Beg:m.End]))
			cursor = m.End
		}
		p.w.Writeln(console.Text, string(src[cursor:end]))

		i = j
	}
}

// lineBounds is printer's own copy of the line-scan used by console's
// WriteMatchLine, needed here to detect when two matches share a line.
func lineBounds(src []byte, pos int) (beg, end int) {
	beg = pos
	for beg > 0 && src[beg-1] != '\n' && src[beg-1] != '\r' {
		beg--
	}
	end = pos
	for end < len(src) && src[end] != '\n' && src[end] != '\r' {
		end++
	}
	return
}

// colRow computes the spec's (deliberately swapped) terminology: col is the
// 1-based count of '\n' bytes before beg (conventionally a "line number"),
// row is the 1-based offset within that line (conventionally a "column").
func colRow(src []byte, beg int) (col, row int) {
	col = 1
	lineStart := 0
	for i := 0; i < beg; i++ {
		if src[i] == '\n' {
			col++
			lineStart = i + 1
		}
	}
	row = beg - lineStart + 1
	return
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
