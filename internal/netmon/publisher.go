package netmon

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/pathmond/internal/metrics"
	"github.com/dmdmdm-nz/pathmond/internal/runtime"
)

// Executor runs a delivery on the subscriber's chosen context.
type Executor interface {
	Execute(func())
}

type inlineExecutor struct{}

func (inlineExecutor) Execute(f func()) { f() }

// Inline delivers on the subscription's own dispatcher goroutine.
var Inline Executor = inlineExecutor{}

// Subscription is one consumer's registration for status snapshots. The
// publisher holds only the deliver function it was handed, never the consumer.
type Subscription struct {
	id        uuid.UUID
	q         *runtime.SubQueue[NetworkStatus]
	pub       *publisher
	cancelled atomic.Bool
	once      sync.Once
}

// Cancel stops deliveries. It is idempotent; no delivery starts after it
// returns, though one already running on the executor may finish.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.cancelled.Store(true)
		s.pub.remove(s.id)
	})
}

// Cancelled reports whether Cancel was called or the monitor was closed.
func (s *Subscription) Cancelled() bool {
	return s.cancelled.Load()
}

func newChanSubscription(pub *publisher, buf int) *Subscription {
	return &Subscription{
		id:  uuid.New(),
		q:   runtime.NewSubQueue[NetworkStatus](buf),
		pub: pub,
	}
}

func newFuncSubscription(pub *publisher, exec Executor, deliver func(NetworkStatus)) *Subscription {
	if exec == nil {
		exec = Inline
	}
	sub := &Subscription{id: uuid.New(), pub: pub}
	sub.q = runtime.NewSubQueueFunc(func(st NetworkStatus) {
		exec.Execute(func() {
			if sub.cancelled.Load() {
				return
			}
			deliver(st)
		})
	})
	return sub
}

// publisher fans snapshots out to subscription queues. Enqueueing never
// blocks, so publish is safe to call while holding the monitor lock.
type publisher struct {
	mu      sync.Mutex
	subs    map[uuid.UUID]*Subscription
	closed  bool
	metrics *metrics.Collector
}

func newPublisher(m *metrics.Collector) *publisher {
	return &publisher{
		subs:    make(map[uuid.UUID]*Subscription),
		metrics: m,
	}
}

// add registers sub with initial as its first value and lets it go live.
func (p *publisher) add(sub *Subscription, initial NetworkStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		sub.cancelled.Store(true)
		sub.q.Close()
		return
	}
	sub.q.Enqueue(initial)
	p.subs[sub.id] = sub
	sub.q.SetPaused(false)
	p.metrics.SetSubscribers(len(p.subs))

	log.WithFields(log.Fields{
		"subscription": sub.id,
		"subscribers":  len(p.subs),
	}).Debug("Status subscriber added")
}

func (p *publisher) remove(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sub, ok := p.subs[id]; ok {
		delete(p.subs, id)
		sub.q.Close()
		p.metrics.SetSubscribers(len(p.subs))

		log.WithFields(log.Fields{
			"subscription": id,
			"subscribers":  len(p.subs),
		}).Debug("Status subscriber removed")
	}
}

func (p *publisher) publish(st NetworkStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	backlog := 0
	for _, sub := range p.subs {
		sub.q.Enqueue(st)
		backlog = max(backlog, sub.q.Len())
	}
	p.metrics.IncPublished()
	p.metrics.SetMaxBacklog(backlog)
}

func (p *publisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

func (p *publisher) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for id, sub := range p.subs {
		sub.cancelled.Store(true)
		sub.q.Close()
		delete(p.subs, id)
	}
	p.metrics.SetSubscribers(0)
}
