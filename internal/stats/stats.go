// Package stats implements the --statistics report (C11): per-stage
// busy/wall seconds recorded into a prometheus SummaryVec as MsgTime
// envelopes arrive, rendered with github.com/dustin/go-humanize for the
// end-of-run human-readable block spec.md §6 describes.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector records MsgTime(stage_id, busy, wall) envelopes as they arrive,
// concurrently, from any stage, and can render the final report.
type Collector struct {
	busy *prometheus.SummaryVec
	wall *prometheus.SummaryVec

	matcherThreads int

	mu      sync.Mutex
	entries []entry
}

type entry struct {
	stageID    int
	name       string
	busy, wall time.Duration
}

// New builds a Collector. matcherThreads is the configured matcher
// replica count, reported verbatim in the final block (spec.md §6).
func New(matcherThreads int) *Collector {
	return &Collector{
		busy: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: "ambergrep",
			Name:      "stage_busy_seconds",
			Help:      "Cumulative per-record handler time for a pipeline stage.",
		}, []string{"stage"}),
		wall: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: "ambergrep",
			Name:      "stage_wall_seconds",
			Help:      "First-SeqBeg-to-SeqEnd wall-clock time for a pipeline stage.",
		}, []string{"stage"}),
		matcherThreads: matcherThreads,
	}
}

// Record ingests one stage's MsgTime observation. name labels the stage
// (e.g. "finder", "scanner[2]", "sorter", "printer") for the report.
func (c *Collector) Record(stageID int, name string, busy, wall time.Duration) {
	c.busy.WithLabelValues(name).Observe(busy.Seconds())
	c.wall.WithLabelValues(name).Observe(wall.Seconds())

	c.mu.Lock()
	c.entries = append(c.entries, entry{stageID: stageID, name: name, busy: busy, wall: wall})
	c.mu.Unlock()
}

// Report renders the end-of-run --statistics block: a line per stage with
// busy/wall seconds and a humanized relative duration, followed by the
// matcher thread count.
func (c *Collector) Report() string {
	c.mu.Lock()
	entries := append([]entry(nil), c.entries...)
	c.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].stageID < entries[j].stageID })

	now := time.Now()
	var b strings.Builder
	fmt.Fprintln(&b, "stage statistics:")
	for _, e := range entries {
		fmt.Fprintf(&b, "  %-12s busy=%.4fs (%s) wall=%.4fs (%s)\n",
			e.name,
			e.busy.Seconds(), humanize.RelTime(now.Add(-e.busy), now, "", ""),
			e.wall.Seconds(), humanize.RelTime(now.Add(-e.wall), now, "", ""),
		)
	}
	fmt.Fprintf(&b, "matcher threads: %d\n", c.matcherThreads)
	return b.String()
}

// BusyLessThanWall is the property named in SPEC_FULL.md §4.13, mirroring
// the original pipeline_sorter time_bsy < time_all test: for every recorded
// stage, busy time must not exceed wall time.
func (c *Collector) BusyLessThanWall() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.busy > e.wall {
			return false
		}
	}
	return true
}
