package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageQueue_FIFO(t *testing.T) {
	q := newMessageQueue()

	for i := 1; i <= 3; i++ {
		require.True(t, q.Enqueue(Progress{Seq: int64(i)}))
	}

	for i := 1; i <= 3; i++ {
		m, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, int64(i), m.Sequence())
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestMessageQueue_EnqueueAfterClose(t *testing.T) {
	q := newMessageQueue()
	q.Close()
	q.Close() // idempotent

	assert.False(t, q.Enqueue(Progress{Seq: 1}))
}

func TestMessageQueue_DequeueBlocksUntilAvailable(t *testing.T) {
	q := newMessageQueue()

	got := make(chan Message, 1)
	go func() {
		m, _ := q.Dequeue()
		got <- m
	}()

	select {
	case <-got:
		t.Fatal("Dequeue returned before anything was enqueued")
	case <-time.After(20 * time.Millisecond):
	}

	q.Enqueue(Completed{Seq: 7})
	select {
	case m := <-got:
		assert.Equal(t, int64(7), m.Sequence())
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not wake up")
	}
}

func TestMessageQueue_PumpDeliversInOrderThenCloses(t *testing.T) {
	q := newMessageQueue()
	out := make(chan Message)
	go q.pump(out)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 100; i++ {
			q.Enqueue(Progress{Seq: int64(i)})
		}
		q.Close()
	}()

	var seqs []int64
	for m := range out {
		seqs = append(seqs, m.Sequence())
	}
	wg.Wait()

	require.Len(t, seqs, 100)
	for i, s := range seqs {
		assert.Equal(t, int64(i+1), s)
	}
}
