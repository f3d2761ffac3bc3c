// Package console renders the coloured, kind-tagged text the Printer and
// Replacer stages write to the terminal, built on github.com/fatih/color
// the way the rest of the reference corpus reaches for it rather than
// hand-rolling ANSI escapes.
package console

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/ambergrep/ambergrep/internal/model"
)

// Kind tags a piece of output text so Writer can pick both its colour and
// its destination stream.
type Kind int

const (
	Filename Kind = iota
	Text
	MatchText
	Other
	Info
	Error
)

var defaultColors = map[Kind]*color.Color{
	Filename:  color.New(color.FgMagenta),
	Text:      color.New(),
	MatchText: color.New(color.FgRed, color.Bold),
	Other:     color.New(color.FgCyan),
	Info:      color.New(color.FgYellow),
	Error:     color.New(color.FgRed, color.Bold),
}

// Writer writes Kind-tagged text to stdout or stderr, colourising when
// enabled. Info and Error go to stderr; everything else goes to stdout.
type Writer struct {
	stdout io.Writer
	stderr io.Writer
	colors map[Kind]*color.Color
	enable bool
}

// New builds a Writer. If colorize is nil, colour is auto-detected from
// whether stdout is a terminal (via mattn/go-isatty); stderr is not
// checked, and a stdout that is not an *os.File keeps colour on.
func New(stdout, stderr io.Writer, colorize *bool) *Writer {
	enable := true
	if colorize != nil {
		enable = *colorize
	} else if f, ok := stdout.(*os.File); ok {
		enable = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	colors := make(map[Kind]*color.Color, len(defaultColors))
	for k, c := range defaultColors {
		c := *c
		c.EnableColor()
		if !enable {
			c.DisableColor()
		}
		colors[k] = &c
	}

	return &Writer{stdout: stdout, stderr: stderr, colors: colors, enable: enable}
}

func (w *Writer) streamFor(k Kind) io.Writer {
	if k == Info || k == Error {
		return w.stderr
	}
	return w.stdout
}

// Write renders s in the colour for kind to the appropriate stream.
func (w *Writer) Write(kind Kind, s string) {
	w.colors[kind].Fprint(w.streamFor(kind), s)
}

// Writeln is Write plus a trailing newline.
func (w *Writer) Writeln(kind Kind, s string) {
	w.colors[kind].Fprintln(w.streamFor(kind), s)
}

// lineBounds scans outward from pos in src to the nearest 0x0A/0x0D (or the
// buffer edge), returning the [beg, end) span of the enclosing line.
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

// WriteMatchLine emits the line surrounding m, rendering the matched span
// in MatchText and the remainder in Text.
func (w *Writer) WriteMatchLine(src []byte, m model.Match) {
	beg, end := lineBounds(src, m.Beg)
	w.Write(Text, string(src[beg:m.Beg]))
	w.Write(MatchText, string(src[m.Beg:m.End]))
	w.Writeln(Text, string(src[m.End:end]))
}

// WriteReplaceLine is WriteMatchLine but substitutes replacement for the
// matched span instead of echoing it.
func (w *Writer) WriteReplaceLine(src []byte, m model.Match, replacement []byte) {
	beg, end := lineBounds(src, m.Beg)
	w.Write(Text, string(src[beg:m.Beg]))
	w.Write(MatchText, string(replacement))
	w.Writeln(Text, string(src[m.End:end]))
}

// FormatMatchLine renders the same content as WriteMatchLine into a string,
// without colour and without the trailing newline. The Printer stage does
// not use it; it writes its lines through WriteMatchLine.
func FormatMatchLine(src []byte, m model.Match) string {
	beg, end := lineBounds(src, m.Beg)
	var buf bytes.Buffer
	buf.Write(src[beg:m.Beg])
	buf.Write(src[m.Beg:m.End])
	buf.Write(src[m.End:end])
	return buf.String()
}

// Sprint renders s as it would appear for kind, without writing it anywhere
// -- used to build combined lines (e.g. the Printer's path:col:row prefix)
// that mix several Kinds before a single Fprintln.
func (w *Writer) Sprint(kind Kind, s string) string {
	return w.colors[kind].Sprint(s)
}

// Errorf writes a formatted Error-kind line to stderr.
func (w *Writer) Errorf(format string, args ...interface{}) {
	w.Writeln(Error, fmt.Sprintf(format, args...))
}

// Infof writes a formatted Info-kind line to stderr.
func (w *Writer) Infof(format string, args ...interface{}) {
	w.Writeln(Info, fmt.Sprintf(format, args...))
}
