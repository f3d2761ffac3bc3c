package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageRunForwardsAndDoublesPayload(t *testing.T) {
	in := make(chan Envelope, 8)
	outCh := make(chan Envelope, 8)
	outs := []chan<- Envelope{outCh}

	in <- SeqBeg(0)
	in <- SeqDat(0, 3)
	in <- SeqDat(1, 4)
	in <- SeqEnd(2)
	close(in)

	s := &Stage{ID: 1, Name: "double"}
	s.Run(context.Background(), in, outs, func(ctx context.Context, e Envelope, send func(Envelope)) {
		send(SeqDat(e.Seq, e.Payload.(int)*2))
	})

	var got []Envelope
	for e := range outCh {
		got = append(got, e)
	}

	require.Len(t, got, 5)
	assert.Equal(t, TagSeqBeg, got[0].Tag)
	assert.Equal(t, 6, got[1].Payload)
	assert.Equal(t, 8, got[2].Payload)
	assert.Equal(t, TagMsgTime, got[3].Tag)
	assert.Equal(t, TagSeqEnd, got[4].Tag)
}

func TestStageRunSendsSeqEndLast(t *testing.T) {
	in := make(chan Envelope, 8)
	outCh := make(chan Envelope, 8)
	outs := []chan<- Envelope{outCh}

	in <- SeqBeg(0)
	in <- SeqEnd(0)
	close(in)

	s := &Stage{ID: 1, Name: "noop"}
	s.Run(context.Background(), in, outs, func(ctx context.Context, e Envelope, send func(Envelope)) {})

	var tags []Tag
	for e := range outCh {
		tags = append(tags, e.Tag)
	}
	require.Len(t, tags, 3)
	assert.Equal(t, []Tag{TagSeqBeg, TagMsgTime, TagSeqEnd}, tags)
}

func TestRoundRobinCycles(t *testing.T) {
	rr := NewRoundRobin(3)
	assert.Equal(t, 0, rr.Next())
	assert.Equal(t, 1, rr.Next())
	assert.Equal(t, 2, rr.Next())
	assert.Equal(t, 0, rr.Next())
}

func TestJoinStageWaitsForAllInputsSeqEnd(t *testing.T) {
	a := make(chan Envelope, 4)
	b := make(chan Envelope, 4)
	out := make(chan Envelope, 16)

	a <- SeqBeg(0)
	a <- SeqDat(0, "a0")
	a <- SeqEnd(2)
	close(a)

	b <- SeqBeg(0)
	b <- SeqDat(1, "b1")
	b <- SeqEnd(2)
	close(b)

	j := &JoinStage{ID: 7, Name: "join", N: 2}
	var received []string
	j.Run(context.Background(),
		[]<-chan Envelope{a, b},
		out,
		nil,
		func(ctx context.Context, e Envelope, send func(Envelope)) {
			received = append(received, e.Payload.(string))
			send(e)
		},
		func(send func(Envelope)) {},
	)

	var sawEnd, sawBeg int
	for e := range out {
		if e.Tag == TagSeqEnd {
			sawEnd++
		}
		if e.Tag == TagSeqBeg {
			sawBeg++
		}
	}
	assert.Equal(t, 1, sawEnd, "exactly one SeqEnd should be forwarded after both inputs finish")
	assert.Equal(t, 1, sawBeg, "exactly one SeqBeg should be forwarded despite two inputs")
	assert.ElementsMatch(t, []string{"a0", "b1"}, received)
}
