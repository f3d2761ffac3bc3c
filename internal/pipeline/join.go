package pipeline

import (
	"context"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// JoinStage is the N→1 fan-in shape. It owns the bookkeeping common to any
// Join (forward SeqBeg once, forward MsgInfo/MsgErr/MsgTime immediately,
// track per-input SeqEnd and only finish once all N have arrived) and
// defers the sequencing policy for SeqDat to handle, which the Sorter
// stage uses to implement its buffer-by-sequence-number reordering.
type JoinStage struct {
	ID   int
	Name string
	N    int

	busy time.Duration
	wall time.Duration
}

// Run multiplexes ins into a single logical stream delivered to handle.
// onBeg, if non-nil, is called once with the initial counter value carried
// by the first observed SeqBeg, before any SeqDat is handled -- this is how
// the Sorter stage learns where to initialise next_seq from (spec.md §4.7)
// without re-deriving it from the first data record, which need not be the
// one with the lowest sequence number. handle receives each SeqDat envelope
// (plus a send func for emission) and is invoked from a single goroutine,
// so it needs no locking of its own. finalize is called once, after every
// input has produced its SeqEnd, to flush any records the policy is still
// holding. Run is the sole writer of out, so it closes out once every input
// has been drained to its own close.
func (j *JoinStage) Run(ctx context.Context, ins []<-chan Envelope, out chan<- Envelope, onBeg func(n int), handle func(ctx context.Context, e Envelope, send func(Envelope)), finalize func(send func(Envelope))) {
	span, ctx := opentracing.StartSpanFromContext(ctx, j.Name)
	ext.Component.Set(span, "pipeline")
	defer span.Finish()

	merged := make(chan Envelope)
	done := make(chan struct{})
	for _, in := range ins {
		in := in
		go func() {
			for e := range in {
				merged <- e
			}
			done <- struct{}{}
		}()
	}
	go func() {
		for i := 0; i < len(ins); i++ {
			<-done
		}
		close(merged)
	}()

	send := func(e Envelope) { out <- e }

	var start time.Time
	begSent := false
	endsSeen := 0

	for e := range merged {
		switch e.Tag {
		case TagSeqBeg:
			if !begSent {
				begSent = true
				start = time.Now()
				if onBeg != nil {
					onBeg(e.Seq)
				}
				send(e)
			}
		case TagMsgInfo, TagMsgErr, TagMsgTime:
			send(e)
		case TagSeqDat:
			recordStart := time.Now()
			handle(ctx, e, send)
			j.busy += time.Since(recordStart)
		case TagSeqEnd:
			endsSeen++
			if endsSeen == j.N {
				finalize(send)
				j.wall = time.Since(start)
				send(MsgTime(j.ID, j.busy, j.wall))
				send(e)
			}
		}
	}

	close(out)
}

func (j *JoinStage) Busy() time.Duration { return j.busy }
func (j *JoinStage) Wall() time.Duration { return j.wall }
