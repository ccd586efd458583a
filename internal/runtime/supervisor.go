package runtime

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

type worker struct {
	name   string
	run    func(context.Context) error
	closeF func() error
}

// Supervisor runs named workers side by side and tears them down in reverse
// registration order. The first worker error is kept and ends the wait early.
type Supervisor struct {
	mu      sync.Mutex
	workers []worker
	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
	failed  chan struct{}
	cancel  context.CancelFunc
}

func NewSupervisor() *Supervisor {
	return &Supervisor{failed: make(chan struct{})}
}

func (s *Supervisor) Add(name string, run func(context.Context) error, closeF func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker{name: name, run: run, closeF: closeF})
}

func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, s.cancel = context.WithCancel(ctx)
	for _, w := range s.workers {
		w := w
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			log.WithField("worker", w.name).Debug("Worker started")
			if err := w.run(ctx); err != nil {
				log.WithField("worker", w.name).WithError(err).Error("Worker failed")
				s.errOnce.Do(func() {
					s.err = fmt.Errorf("%s: %w", w.name, err)
					close(s.failed)
				})
				return
			}
			log.WithField("worker", w.name).Debug("Worker exited")
		}()
	}
	return nil
}

// Wait blocks until ctx is cancelled or a worker fails, closes every worker
// in reverse order and waits for all run functions to return.
func (s *Supervisor) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
	case <-s.failed:
	}

	s.mu.Lock()
	workers := append([]worker(nil), s.workers...)
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	for i := len(workers) - 1; i >= 0; i-- {
		if workers[i].closeF == nil {
			continue
		}
		if err := workers[i].closeF(); err != nil {
			log.WithField("worker", workers[i].name).WithError(err).Warn("Worker close failed")
		}
	}
	s.wg.Wait()
	return s.err
}
