package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/optgridgo/internal/experiment"
)

func TestQueuePopsInSubmissionOrder(t *testing.T) {
	q := newQueue()
	q.push(def("a"))
	q.push(def("b"))

	first, ok, done := q.pop()
	require.True(t, ok)
	require.False(t, done)
	assert.Equal(t, "a", first.NodeID)

	second, ok, _ := q.pop()
	require.True(t, ok)
	assert.Equal(t, "b", second.NodeID)

	_, ok, done = q.pop()
	assert.False(t, ok, "empty queue has nothing to pop")
	assert.False(t, done, "an open queue is never done")
}

func TestQueueCloseDrainsBeforeDone(t *testing.T) {
	q := newQueue()
	q.push(def("a"))
	q.close()

	got, ok, done := q.pop()
	require.True(t, ok)
	require.False(t, done)
	assert.Equal(t, "a", got.NodeID)

	_, ok, done = q.pop()
	assert.False(t, ok)
	assert.True(t, done, "closed and drained")
}

func TestQueuePushWakesParkedDispatcher(t *testing.T) {
	q := newQueue()
	popped := make(chan experiment.Definition, 1)
	go func() {
		for {
			d, ok, done := q.pop()
			if done {
				return
			}
			if !ok {
				<-q.signal
				continue
			}
			popped <- d
		}
	}()

	q.push(def("a"))
	select {
	case d := <-popped:
		assert.Equal(t, "a", d.NodeID)
	case <-time.After(5 * time.Second):
		t.Fatal("parked consumer was not woken by push")
	}
	q.close()
}
