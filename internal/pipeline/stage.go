package pipeline

import (
	"context"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// Stage is the common lifecycle every pipeline shape (Pipeline 1→1, Fork
// 1→N, Join N→1) implements: forward SeqBeg once, handle each SeqDat,
// forward MsgInfo/MsgErr/MsgTime untouched (an upstream stage's own MsgTime
// passes through rather than being absorbed), and on SeqEnd emit
// accumulated diagnostics, a MsgTime, then terminate (spec.md §4.4).
type Stage struct {
	ID   int
	Name string

	busy time.Duration
	wall time.Duration
}

// Run drives a single input channel through handle, fanning its emissions
// out to outs. handle is called once per SeqDat with the envelope payload
// and a send function; it may call send any number of times (zero or
// more), reassigning or preserving the sequence number per the calling
// stage's documented contract.
//
// Run owns forwarding SeqBeg/SeqEnd/MsgInfo/MsgErr and busy/wall
// accounting; callers only implement the per-record transform. Run is the
// sole writer of outs, so it closes every channel in outs once in is
// exhausted and closed.
func (s *Stage) Run(ctx context.Context, in <-chan Envelope, outs []chan<- Envelope, handle func(ctx context.Context, e Envelope, send func(Envelope))) {
	span, ctx := opentracing.StartSpanFromContext(ctx, s.Name)
	ext.Component.Set(span, "pipeline")
	defer span.Finish()

	var start time.Time
	started := false

	send := func(e Envelope) {
		for _, o := range outs {
			o <- e
		}
	}

	for e := range in {
		switch e.Tag {
		case TagSeqBeg:
			if !started {
				started = true
				start = time.Now()
				send(e)
			}
		case TagMsgInfo, TagMsgErr, TagMsgTime:
			send(e)
		case TagSeqDat:
			recordStart := time.Now()
			handle(ctx, e, send)
			s.busy += time.Since(recordStart)
		case TagSeqEnd:
			s.wall = time.Since(start)
			send(MsgTime(s.ID, s.busy, s.wall))
			send(e)
		}
	}

	for _, o := range outs {
		close(o)
	}
}

// Busy returns the cumulative per-record handler time recorded by the most
// recent Run call.
func (s *Stage) Busy() time.Duration { return s.busy }

// Wall returns the first-SeqBeg-to-SeqEnd wall-clock span recorded by the
// most recent Run call.
func (s *Stage) Wall() time.Duration { return s.wall }
