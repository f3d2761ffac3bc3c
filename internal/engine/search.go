package engine

import (
	"context"

	"github.com/ambergrep/ambergrep/internal/config"
	"github.com/ambergrep/ambergrep/internal/console"
	"github.com/ambergrep/ambergrep/internal/matcher"
	"github.com/ambergrep/ambergrep/internal/printer"
	"github.com/ambergrep/ambergrep/internal/stats"
)

// Result is what a CLI driver gets back once a pipeline run completes: the
// accumulated per-stage statistics, ready for a --statistics report.
type Result struct {
	Stats *stats.Collector
}

// SearchOptions are the values a CLI driver collects from flags/config and
// hands to Search; everything pipeline-internal (channel sizes, stage ids)
// stays inside this package.
type SearchOptions struct {
	Resolved   config.Resolved
	Paths      []string
	Keyword    []byte
	IgnoreCase bool

	// GroupByLine collapses consecutive matches sharing a surrounding line
	// into one printed line with multiple highlighted spans; it has no
	// corresponding CLI flag in spec.md and defaults to off.
	GroupByLine bool
}

func algorithmKind(r config.Resolved) matcher.Kind {
	switch {
	case r.Regex:
		return matcher.KindRegex
	case r.TBM:
		return matcher.KindTBM
	default:
		return matcher.KindQuickSearch
	}
}

// Search runs the full Finder->Scanner->Sorter->Printer pipeline to
// completion, writing formatted matches to w. It returns once the Printer
// has consumed the final SeqEnd, i.e. once every file has been accounted
// for. The returned Collector holds per-stage statistics for a
// --statistics report.
func Search(ctx context.Context, opts SearchOptions, w *console.Writer) *Result {
	r := opts.Resolved
	build := buildUpToSorter(ctx, r, opts.Paths, opts.Keyword, algorithmKind(r), opts.IgnoreCase, r.FixedOrder)

	p := printer.New(r.MaxThreads+2, printer.Config{
		ShowPath:      r.File,
		ShowCol:       r.Column,
		ShowRow:       r.Row,
		GroupByLine:   opts.GroupByLine,
		MmapThreshold: r.MmapBytes,
	}, w)
	p.Run(ctx, build.Out)

	return &Result{Stats: build.Stats}
}
