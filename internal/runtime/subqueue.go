package runtime

import (
	"sync"
)

// SubQueue is an unbounded per-subscriber FIFO. Producers never block on it;
// a dedicated dispatcher goroutine hands queued values to the sink in order.
type SubQueue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	closed bool
	paused bool // gate dispatch until snapshot sent

	outCh chan T // consumer reads from this (channel mode only)
	sink  func(T)
	done  chan struct{}
	once  sync.Once
}

// NewSubQueue creates a paused queue whose values are delivered on Chan().
func NewSubQueue[T any](outBuf int) *SubQueue[T] {
	sq := newSubQueue[T]()
	sq.outCh = make(chan T, outBuf)
	sq.sink = sq.sendChan
	go sq.dispatch()
	return sq
}

// NewSubQueueFunc creates a paused queue whose values are passed to fn, one at
// a time, on the dispatcher goroutine.
func NewSubQueueFunc[T any](fn func(T)) *SubQueue[T] {
	sq := newSubQueue[T]()
	sq.sink = fn
	go sq.dispatch()
	return sq
}

func newSubQueue[T any]() *SubQueue[T] {
	sq := &SubQueue[T]{
		paused: true,
		done:   make(chan struct{}),
	}
	sq.cond = sync.NewCond(&sq.mu)
	return sq
}

// Chan is the channel exposed to the subscriber. Nil for func queues.
func (sq *SubQueue[T]) Chan() <-chan T { return sq.outCh }

// Enqueue appends to the in-memory queue and wakes dispatcher.
func (sq *SubQueue[T]) Enqueue(ev T) {
	sq.mu.Lock()
	if !sq.closed {
		sq.queue = append(sq.queue, ev)
		sq.cond.Signal()
	}
	sq.mu.Unlock()
}

// Len reports how many values are waiting for dispatch.
func (sq *SubQueue[T]) Len() int {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return len(sq.queue)
}

// Pause/Resume gates dispatching (used to hold back live events during snapshot).
func (sq *SubQueue[T]) SetPaused(v bool) {
	sq.mu.Lock()
	sq.paused = v
	sq.cond.Broadcast()
	sq.mu.Unlock()
}

// Close stops the dispatcher. Values still queued are dropped. In channel
// mode the out channel is closed once the dispatcher exits.
func (sq *SubQueue[T]) Close() {
	sq.mu.Lock()
	sq.closed = true
	sq.queue = nil
	sq.cond.Broadcast()
	sq.mu.Unlock()
	sq.once.Do(func() { close(sq.done) })
}

func (sq *SubQueue[T]) sendChan(ev T) {
	// Blocks only on the channel buffer / reader, or until closed.
	select {
	case sq.outCh <- ev:
	case <-sq.done:
	}
}

func (sq *SubQueue[T]) dispatch() {
	for {
		sq.mu.Lock()
		for !sq.closed && (sq.paused || len(sq.queue) == 0) {
			sq.cond.Wait()
		}
		if sq.closed {
			sq.mu.Unlock()
			if sq.outCh != nil {
				close(sq.outCh)
			}
			return
		}
		ev := sq.queue[0]
		var zero T
		sq.queue[0] = zero
		sq.queue = sq.queue[1:]
		sq.mu.Unlock()

		sq.sink(ev)
	}
}
