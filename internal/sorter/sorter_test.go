package sorter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambergrep/ambergrep/internal/pipeline"
)

func TestSorterRestoresOrderAcrossTwoInputs(t *testing.T) {
	a := make(chan pipeline.Envelope, 4)
	b := make(chan pipeline.Envelope, 4)
	out := make(chan pipeline.Envelope, 16)

	// Input a delivers seq 2 then 0; input b delivers seq 1 then 3 --
	// out-of-order both within and across channels.
	a <- pipeline.SeqBeg(0)
	a <- pipeline.SeqDat(2, "two")
	a <- pipeline.SeqDat(0, "zero")
	a <- pipeline.SeqEnd(4)
	close(a)

	b <- pipeline.SeqBeg(0)
	b <- pipeline.SeqDat(1, "one")
	b <- pipeline.SeqDat(3, "three")
	b <- pipeline.SeqEnd(4)
	close(b)

	s := New(9, 2, false)
	s.Run(context.Background(), []<-chan pipeline.Envelope{a, b}, out)

	var seqs []int
	for e := range out {
		if e.Tag == pipeline.TagSeqDat {
			seqs = append(seqs, e.Seq)
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3}, seqs)
}

func TestSorterThroughModeForwardsImmediately(t *testing.T) {
	a := make(chan pipeline.Envelope, 4)
	out := make(chan pipeline.Envelope, 16)

	a <- pipeline.SeqBeg(0)
	a <- pipeline.SeqDat(5, "five")
	a <- pipeline.SeqDat(1, "one")
	a <- pipeline.SeqEnd(2)
	close(a)

	s := New(9, 1, true)
	s.Run(context.Background(), []<-chan pipeline.Envelope{a}, out)

	var seqs []int
	for e := range out {
		if e.Tag == pipeline.TagSeqDat {
			seqs = append(seqs, e.Seq)
		}
	}
	assert.Equal(t, []int{5, 1}, seqs, "through mode preserves arrival order, not sequence order")
}

func TestSorterTerminatesOnlyAfterAllInputsSeqEnd(t *testing.T) {
	a := make(chan pipeline.Envelope, 4)
	b := make(chan pipeline.Envelope, 4)
	out := make(chan pipeline.Envelope, 16)

	a <- pipeline.SeqBeg(0)
	a <- pipeline.SeqDat(0, "a")
	a <- pipeline.SeqEnd(2)
	close(a)

	b <- pipeline.SeqBeg(0)
	b <- pipeline.SeqDat(1, "b")
	b <- pipeline.SeqEnd(2)
	close(b)

	s := New(9, 2, false)
	s.Run(context.Background(), []<-chan pipeline.Envelope{a, b}, out)

	var endCount int
	for e := range out {
		if e.Tag == pipeline.TagSeqEnd {
			endCount++
		}
	}
	require.Equal(t, 1, endCount)
}
