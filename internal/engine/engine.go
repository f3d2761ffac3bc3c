// Package engine wires Finder, N Scanner replicas, Sorter and a terminal
// Printer or Replacer into a running pipeline, owning channel creation,
// goroutine lifetimes and stage-id bookkeeping for --statistics.
package engine

import (
	"context"

	"github.com/ambergrep/ambergrep/internal/config"
	"github.com/ambergrep/ambergrep/internal/finder"
	"github.com/ambergrep/ambergrep/internal/matcher"
	"github.com/ambergrep/ambergrep/internal/pipeline"
	"github.com/ambergrep/ambergrep/internal/scanner"
	"github.com/ambergrep/ambergrep/internal/sorter"
	"github.com/ambergrep/ambergrep/internal/stats"
)

// stageNames assigns stage ids: 0 is the Finder, 1..N are the Scanner
// replicas, N+1 is the Sorter. The terminal Printer/Replacer stage runs
// outside the Stage/JoinStage harness (it has no outs to forward to) and so
// contributes no MsgTime of its own.
func stageNames(n int) map[int]string {
	names := map[int]string{0: "finder"}
	for i := 1; i <= n; i++ {
		names[i] = scannerName(i)
	}
	names[n+1] = "sorter"
	return names
}

func scannerName(i int) string {
	return "scanner[" + itoa(i-1) + "]"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// pipelineBuild holds the wiring common to search and replace: a running
// Finder, N running Scanners and a running Sorter, whose merged, ordered
// output arrives on Out. Stats are fed continuously as MsgTime envelopes
// pass through Out.
type pipelineBuild struct {
	Out   chan pipeline.Envelope
	Stats *stats.Collector
}

// buildUpToSorter starts the Finder/Scanner/Sorter fan-out/fan-in and
// returns the channel carrying the Sorter's (or through-mode passthrough's)
// output, already instrumented for statistics.
func buildUpToSorter(ctx context.Context, r config.Resolved, paths []string, keyword []byte, algo matcher.Kind, ignoreCase bool, fixedOrder bool) *pipelineBuild {
	n := r.MaxThreads
	if n < 1 {
		n = 1
	}
	names := stageNames(n)
	collector := stats.New(n)

	toScanner := make([]chan pipeline.Envelope, n)
	toSorter := make([]chan pipeline.Envelope, n)
	for i := 0; i < n; i++ {
		toScanner[i] = make(chan pipeline.Envelope, 64)
		toSorter[i] = make(chan pipeline.Envelope, 64)
	}

	finderOuts := make([]chan<- pipeline.Envelope, n)
	for i := range toScanner {
		finderOuts[i] = toScanner[i]
	}
	f := finder.New(0, finder.Config{
		Recursive:        r.Recursive,
		FollowSymlink:    r.Symlink,
		SkipVCS:          r.SkipVCS,
		SkipGitignore:    r.SkipGitignore,
		PrintSkipped:     r.Skipped,
		FindParentIgnore: r.ParentIgnore,
	}, finderOuts)
	go f.Run(paths)

	matcherOpts := matcher.Options{SizePerThread: int(r.SizePerThread), MaxThreads: r.MaxThreads}
	for i := 0; i < n; i++ {
		sc := scanner.New(i+1, scanner.Config{
			Algorithm:      matcher.Select(algo, ignoreCase),
			Keyword:        keyword,
			IgnoreCase:     ignoreCase,
			MmapThreshold:  r.MmapBytes,
			SkipBinary:     !r.Binary,
			BinCheckBytes:  r.BinCheckBytes,
			PrintSkipped:   r.Skipped,
			MatcherOptions: matcherOpts,
		})
		in := toScanner[i]
		outs := []chan<- pipeline.Envelope{toSorter[i]}
		go sc.Run(ctx, in, outs)
	}

	sorterIns := make([]<-chan pipeline.Envelope, n)
	for i := range toSorter {
		sorterIns[i] = toSorter[i]
	}
	merged := make(chan pipeline.Envelope, 64)
	srt := sorter.New(n+1, n, !fixedOrder)
	go srt.Run(ctx, sorterIns, merged)

	out := observe(merged, names, collector)
	return &pipelineBuild{Out: out, Stats: collector}
}

// observe relays every envelope from in to the returned channel unchanged,
// additionally recording any MsgTime envelope into collector as it passes.
// Terminal stages (Printer, Replacer) never need to know about statistics.
func observe(in <-chan pipeline.Envelope, names map[int]string, collector *stats.Collector) chan pipeline.Envelope {
	out := make(chan pipeline.Envelope, 64)
	go func() {
		defer close(out)
		for e := range in {
			if e.Tag == pipeline.TagMsgTime {
				name := names[e.StageID]
				if name == "" {
					name = "stage"
				}
				collector.Record(e.StageID, name, e.Busy, e.Wall)
			}
			out <- e
		}
	}()
	return out
}
