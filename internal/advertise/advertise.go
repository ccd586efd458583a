package advertise

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/dmdmdm-nz/zeroconf"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/pathmond/pkg/version"
)

const (
	ServiceType = "_pathmond._tcp"
	Domain      = "local."
)

type registration interface {
	Shutdown()
}

type registerFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (registration, error)

func zeroconfRegister(instance, service, domain string, port int, text []string, ifaces []net.Interface) (registration, error) {
	return zeroconf.Register(instance, service, domain, port, text, ifaces)
}

// Service advertises the status API over mDNS while running.
type Service struct {
	instance string
	port     int
	register registerFunc

	mu     sync.Mutex
	server registration
	closed bool
}

// NewService advertises port under instance. An empty instance uses the
// host name.
func NewService(instance string, port int) *Service {
	if instance == "" {
		instance, _ = os.Hostname()
	}
	if instance == "" {
		instance = "pathmond"
	}
	return &Service{
		instance: instance,
		port:     port,
		register: zeroconfRegister,
	}
}

// TXT returns the TXT records published with the service.
func TXT() []string {
	txt := []string{"path=/status", "stream=/ws/status", "version=" + version.Version}
	if v, err := version.Semver(); err == nil {
		txt = append(txt, fmt.Sprintf("api=%d", v.Major()))
	}
	return txt
}

func (s *Service) Start(ctx context.Context) error {
	if s.port <= 0 {
		return errors.New("mDNS advertisement needs a fixed API port")
	}

	server, err := s.register(s.instance, ServiceType, Domain, s.port, TXT(), nil)
	if err != nil {
		return fmt.Errorf("register mDNS service: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		server.Shutdown()
		return nil
	}
	s.server = server
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"instance": s.instance,
		"service":  ServiceType,
		"port":     s.port,
	}).Info("Advertising status API over mDNS")

	<-ctx.Done()
	return nil
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.server != nil {
		s.server.Shutdown()
		s.server = nil
		log.WithField("instance", s.instance).Info("Stopped mDNS advertisement")
	}
	return nil
}
