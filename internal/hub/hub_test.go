package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/logsift/internal/model"
)

func snapshotOf(texts ...string) model.Snapshot {
	lines := make([]model.RawLine, len(texts))
	for i, t := range texts {
		lines[i] = model.RawLine{Text: t, Source: "test.log", Number: i + 1}
	}
	return model.Snapshot{Sources: []string{"test.log"}, Lines: lines, LoadedAt: time.Now()}
}

func TestHubBroadcast(t *testing.T) {
	input := make(chan model.Snapshot, 10)
	h := New(input)

	sub1, cancel1 := h.Subscribe()
	defer cancel1()
	sub2, cancel2 := h.Subscribe()
	defer cancel2()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Start(ctx)

	input <- snapshotOf("1.1.1.1 GET 200 ok")

	for i, sub := range []<-chan model.Snapshot{sub1, sub2} {
		select {
		case snap := <-sub:
			assert.Equal(t, "1.1.1.1 GET 200 ok", snap.Lines[0].Text, "sub%d", i+1)
		case <-time.After(time.Second):
			t.Fatalf("sub%d: timed out", i+1)
		}
	}
}

func TestHubLateSubscriberGetsLatest(t *testing.T) {
	input := make(chan model.Snapshot, 1)
	h := New(input)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Start(ctx)

	input <- snapshotOf("a", "b")
	require.Eventually(t, func() bool {
		_, ok := h.Latest()
		return ok
	}, time.Second, 10*time.Millisecond)

	sub, unsubscribe := h.Subscribe()
	defer unsubscribe()

	select {
	case snap := <-sub:
		assert.Len(t, snap.Lines, 2)
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestHubSlowConsumer(t *testing.T) {
	input := make(chan model.Snapshot, 10)
	h := New(input)

	// Subscribe but never read.
	_, unsubscribe := h.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Start(ctx)

	for i := 0; i < subscriberBuffer+3; i++ {
		input <- snapshotOf("line")
	}

	require.Eventually(t, func() bool { return h.Dropped() > 0 }, time.Second, 10*time.Millisecond)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := New(make(chan model.Snapshot))
	sub, unsubscribe := h.Subscribe()
	unsubscribe()
	unsubscribe()

	_, open := <-sub
	assert.False(t, open)
}
