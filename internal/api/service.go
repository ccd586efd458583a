package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"howett.net/plist"

	"github.com/dmdmdm-nz/pathmond/pkg/version"
)

const shutdownTimeout = 5 * time.Second

// Service represents the HTTP server for the API
type Service struct {
	address string
	port    int

	monitor StatusSource
	metrics http.Handler

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	done     chan struct{}
	closed   bool
}

func NewService(host string, port int) *Service {
	return &Service{
		address: host,
		port:    port,
		done:    make(chan struct{}),
	}
}

// AttachMonitor wires the status source (must be called before Start).
func (s *Service) AttachMonitor(m StatusSource) {
	s.monitor = m
}

// AttachMetrics mounts h on /metrics.
func (s *Service) AttachMetrics(h http.Handler) {
	s.metrics = h
}

// Addr returns the bound listen address, or "" before Start.
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start serves the API until ctx is cancelled or Close is called.
func (s *Service) Start(ctx context.Context) error {
	if s.monitor == nil {
		return errors.New("AttachMonitor was not called before Start")
	}

	addr := net.JoinHostPort(s.address, fmt.Sprint(s.port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	log.Infof("Starting pathmond API service at %s", ln.Addr())
	defer log.Info("Stopping pathmond API service")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		return s.Close()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown API server: %w", err)
	}
	return nil
}

// Handler returns the API routes.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", getOnly(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	mux.HandleFunc("/ready", getOnly(func(w http.ResponseWriter, r *http.Request) {
		if s.monitor == nil || !s.monitor.Running() {
			http.Error(w, "monitor not running", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	mux.HandleFunc("/status", getOnly(s.handleStatus))
	mux.HandleFunc("/version", getOnly(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, version.Get())
	}))
	mux.HandleFunc("/ws/status", func(w http.ResponseWriter, r *http.Request) {
		StreamStatus(s, w, r)
	})
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.monitor == nil {
		http.Error(w, "monitor not attached", http.StatusServiceUnavailable)
		return
	}
	st := s.monitor.Current()

	if strings.Contains(r.Header.Get("Accept"), plistContentType) {
		b, err := plist.Marshal(st, plist.XMLFormat)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to encode status: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", plistContentType)
		_, _ = w.Write(b)
		return
	}
	writeJSON(w, st)
}

func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Add("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
