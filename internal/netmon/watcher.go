package netmon

import (
	"context"
	"sync"
)

// Watcher observes the OS network path using platform-specific event
// mechanisms (netlink on Linux, route sockets on macOS, polling elsewhere).
type Watcher interface {
	// Start begins watching for path changes.
	// Calls callback with the initial path and then for each change.
	// Blocks until ctx is cancelled or an error occurs.
	Start(ctx context.Context, callback func(RawPath)) error
}

// changeFilter forwards a path only when it differs from the last one seen.
type changeFilter struct {
	mu   sync.Mutex
	last *RawPath
}

func (f *changeFilter) changed(p RawPath) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last != nil && f.last.Equal(p) {
		return false
	}
	f.last = &p
	return true
}

// ManualWatcher is a Watcher driven by its owner instead of the OS. Embedders
// that already receive path updates elsewhere feed them in with Send.
type ManualWatcher struct {
	mu      sync.Mutex
	run     *manualRun
	started chan struct{}
	once    sync.Once
}

// manualRun identifies one Start call, so a run that ends late cannot
// clear the callback of the run that replaced it.
type manualRun struct {
	callback func(RawPath)
}

func NewManualWatcher() *ManualWatcher {
	return &ManualWatcher{started: make(chan struct{})}
}

func (m *ManualWatcher) Start(ctx context.Context, callback func(RawPath)) error {
	run := &manualRun{callback: callback}
	m.mu.Lock()
	m.run = run
	m.mu.Unlock()
	m.once.Do(func() { close(m.started) })

	<-ctx.Done()

	m.mu.Lock()
	if m.run == run {
		m.run = nil
	}
	m.mu.Unlock()
	return nil
}

// Started is closed the first time Start installs a callback.
func (m *ManualWatcher) Started() <-chan struct{} {
	return m.started
}

// Send delivers p to the running monitor. It reports false when no Start is
// in progress.
func (m *ManualWatcher) Send(p RawPath) bool {
	m.mu.Lock()
	run := m.run
	m.mu.Unlock()
	if run == nil {
		return false
	}
	run.callback(p)
	return true
}
