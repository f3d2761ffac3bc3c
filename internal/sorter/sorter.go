// Package sorter implements the Sorter stage (C7): a Join N→1 that buffers
// out-of-order SeqDat records by sequence number and releases them in
// order, or forwards immediately in "through" mode.
package sorter

import (
	"context"

	"github.com/ambergrep/ambergrep/internal/pipeline"
)

// Sorter restores the original sequence order across N Matcher stage
// outputs (spec.md §4.7).
type Sorter struct {
	stageID int
	n       int
	through bool
}

// New builds a Sorter joining n inputs. When through is true, reordering is
// disabled and records are forwarded immediately as they arrive.
func New(stageID, n int, through bool) *Sorter {
	return &Sorter{stageID: stageID, n: n, through: through}
}

// Run joins ins into out, preserving spec.md §4.7's invariant: in ordered
// mode the output SeqDat sequence numbers form an unbroken run starting at
// the first observed SeqBeg counter.
func (s *Sorter) Run(ctx context.Context, ins []<-chan pipeline.Envelope, out chan<- pipeline.Envelope) {
	join := &pipeline.JoinStage{ID: s.stageID, Name: "sorter", N: s.n}

	buffer := make(map[int]pipeline.Envelope)
	nextSeq := 0

	release := func(send func(pipeline.Envelope)) {
		for {
			e, ok := buffer[nextSeq]
			if !ok {
				return
			}
			delete(buffer, nextSeq)
			send(e)
			nextSeq++
		}
	}

	join.Run(ctx, ins, out,
		func(n int) { nextSeq = n },
		func(ctx context.Context, e pipeline.Envelope, send func(pipeline.Envelope)) {
			if s.through {
				send(e)
				return
			}
			buffer[e.Seq] = e
			release(send)
		},
		func(send func(pipeline.Envelope)) {
			if s.through {
				return
			}
			release(send)
		},
	)
}
