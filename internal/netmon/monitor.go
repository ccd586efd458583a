package netmon

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/pathmond/internal/metrics"
)

const defaultSubscriberBuffer = 8

// Monitor keeps the classified network status current while started and
// fans every new snapshot out to its subscribers.
//
// Status, running state and the watcher handle are guarded by mu. The
// publisher has its own lock, always taken after mu.
type Monitor struct {
	watcher   Watcher
	dedup     bool
	subBuffer int
	metrics   *metrics.Collector
	pub       *publisher

	mu        sync.Mutex
	status    NetworkStatus
	hasStatus bool
	running   bool
	closed    bool
	gen       uint64
	cancel    context.CancelFunc
	done      chan struct{}
}

type Option func(*Monitor)

// WithDedup suppresses publishing a snapshot equal to the previous one.
func WithDedup(v bool) Option {
	return func(m *Monitor) { m.dedup = v }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(m *Monitor) { m.metrics = c }
}

// WithSubscriberBuffer sets the channel buffer of Subscribe channels.
func WithSubscriberBuffer(n int) Option {
	return func(m *Monitor) {
		if n >= 0 {
			m.subBuffer = n
		}
	}
}

// NewMonitor creates a stopped monitor. Observation begins with Start.
func NewMonitor(w Watcher, opts ...Option) *Monitor {
	m := &Monitor{
		watcher:   w,
		subBuffer: defaultSubscriberBuffer,
		status:    NetworkStatus{InterfaceType: InterfaceNone},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.pub = newPublisher(m.metrics)
	return m
}

// Start begins observation on a background goroutine. Calling it while
// running, or after Close, does nothing.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running || m.closed {
		return
	}

	m.gen++
	gen := m.gen
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.running = true

	log.WithField("run", gen).Info("Starting network path monitoring")

	go func() {
		defer close(done)
		err := m.watcher.Start(ctx, func(p RawPath) {
			m.handlePath(gen, p)
		})
		if err != nil && ctx.Err() == nil {
			log.WithError(err).WithField("run", gen).Error("Network path watcher failed")
		}
	}()
}

// Stop cancels observation and waits for the watcher to release its OS
// handle. The last status stays readable. Stop before Start is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.cancel()
	done := m.done
	m.cancel = nil
	m.done = nil
	gen := m.gen
	m.mu.Unlock()

	<-done
	log.WithField("run", gen).Info("Stopped network path monitoring")
}

// Run starts the monitor and blocks until ctx is cancelled, then stops it.
func (m *Monitor) Run(ctx context.Context) error {
	m.Start()
	<-ctx.Done()
	m.Stop()
	return nil
}

// Close stops observation and ends every subscription. The monitor cannot
// be restarted afterwards.
func (m *Monitor) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.Stop()
	m.pub.close()
	return nil
}

// Current returns the last published snapshot.
func (m *Monitor) Current() NetworkStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Subscribers reports the number of active subscriptions.
func (m *Monitor) Subscribers() int {
	return m.pub.count()
}

// Subscribe returns a channel that receives the current snapshot followed by
// every later one, and a func that cancels the subscription and closes the
// channel.
func (m *Monitor) Subscribe() (<-chan NetworkStatus, func()) {
	sub := newChanSubscription(m.pub, m.subBuffer)
	m.attach(sub)
	return sub.q.Chan(), sub.Cancel
}

// SubscribeFunc calls deliver on exec with the current snapshot and then
// with every later one, in publish order. A nil exec means Inline.
func (m *Monitor) SubscribeFunc(exec Executor, deliver func(NetworkStatus)) *Subscription {
	sub := newFuncSubscription(m.pub, exec, deliver)
	m.attach(sub)
	return sub
}

func (m *Monitor) attach(sub *Subscription) {
	// Holding mu orders the initial snapshot against concurrent publishes.
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pub.add(sub, m.status)
}

func (m *Monitor) handlePath(gen uint64, p RawPath) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running || gen != m.gen {
		log.WithFields(log.Fields{
			"run":    gen,
			"status": p.Status,
		}).Trace("Dropping path update from stopped watcher")
		return
	}

	st := Classify(p)
	prev, had := m.status, m.hasStatus
	m.status = st
	m.hasStatus = true

	m.metrics.IncPathEvents()
	m.metrics.ObserveStatus(st.Connected, prev.Connected, st.Expensive, string(st.InterfaceType))

	if m.dedup && had && prev == st {
		log.WithField("status", st).Trace("Network status unchanged")
		return
	}

	log.WithFields(log.Fields{
		"connected":  st.Connected,
		"expensive":  st.Expensive,
		"interface":  st.InterfaceType,
		"pathStatus": p.Status,
	}).Info("Network status changed")

	m.pub.publish(st)
}
