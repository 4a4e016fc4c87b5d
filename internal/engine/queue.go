package engine

import (
	"sync"

	"github.com/vk/optgridgo/internal/experiment"
)

// queue is the unbounded buffer between Submit and the dispatcher. The
// coordinator both produces definitions and consumes results, so push must
// never block; the dispatcher parks on signal while the buffer is empty.
type queue struct {
	mu     sync.Mutex
	items  []experiment.Definition
	closed bool

	// signal carries at most one pending wakeup for the dispatcher.
	signal chan struct{}
}

func newQueue() *queue {
	return &queue{signal: make(chan struct{}, 1)}
}

// push appends a definition and wakes the dispatcher.
func (q *queue) push(def experiment.Definition) {
	q.mu.Lock()
	q.items = append(q.items, def)
	q.mu.Unlock()
	q.wake()
}

// pop removes the oldest definition. ok is false when the buffer is empty;
// done is true once the queue is closed and fully drained.
func (q *queue) pop() (def experiment.Definition, ok, done bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return experiment.Definition{}, false, q.closed
	}
	def = q.items[0]
	q.items = q.items[1:]
	return def, true, false
}

// close marks the queue closed and wakes the dispatcher so it can drain the
// remaining items and exit.
func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

func (q *queue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
