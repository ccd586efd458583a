package runtime

// SerialQueue runs submitted functions one at a time, in submission order, on
// a single goroutine it owns. It is the Go stand-in for a "main queue": work
// handed to it never runs on the submitter's goroutine.
type SerialQueue struct {
	q *SubQueue[func()]
}

func NewSerialQueue() *SerialQueue {
	q := NewSubQueueFunc(func(f func()) { f() })
	q.SetPaused(false)
	return &SerialQueue{q: q}
}

// Execute schedules f. It never blocks; after Close it is a no-op.
func (s *SerialQueue) Execute(f func()) {
	s.q.Enqueue(f)
}

// Close stops the queue. Functions not yet started are dropped.
func (s *SerialQueue) Close() {
	s.q.Close()
}
