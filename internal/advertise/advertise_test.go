package advertise

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmdmdm-nz/pathmond/pkg/version"
)

type fakeRegistration struct {
	shutdowns atomic.Int32
}

func (f *fakeRegistration) Shutdown() { f.shutdowns.Add(1) }

type registerCall struct {
	instance, service, domain string
	port                      int
	text                      []string
}

func fakeRegister(reg *fakeRegistration, calls chan<- registerCall, err error) registerFunc {
	return func(instance, service, domain string, port int, text []string, _ []net.Interface) (registration, error) {
		calls <- registerCall{instance, service, domain, port, text}
		if err != nil {
			return nil, err
		}
		return reg, nil
	}
}

func TestService_RegistersAndShutsDown(t *testing.T) {
	reg := &fakeRegistration{}
	calls := make(chan registerCall, 1)

	s := NewService("office-mac", 60106)
	s.register = fakeRegister(reg, calls, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	select {
	case call := <-calls:
		assert.Equal(t, "office-mac", call.instance)
		assert.Equal(t, ServiceType, call.service)
		assert.Equal(t, Domain, call.domain)
		assert.Equal(t, 60106, call.port)
		assert.Contains(t, call.text, "path=/status")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for registration")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for Start to return")
	}

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, int32(1), reg.shutdowns.Load())
}

func TestService_RegisterError(t *testing.T) {
	calls := make(chan registerCall, 1)
	s := NewService("x", 60106)
	s.register = fakeRegister(nil, calls, errors.New("no multicast"))

	err := s.Start(context.Background())
	assert.ErrorContains(t, err, "no multicast")
}

func TestService_NeedsPort(t *testing.T) {
	s := NewService("x", 0)
	err := s.Start(context.Background())
	assert.Error(t, err)
}

func TestService_DefaultInstance(t *testing.T) {
	s := NewService("", 1)
	assert.NotEmpty(t, s.instance)
}

func TestTXT(t *testing.T) {
	old := version.Version
	defer func() { version.Version = old }()

	version.Version = "3.1.0"
	assert.Equal(t, []string{"path=/status", "stream=/ws/status", "version=3.1.0", "api=3"}, TXT())

	version.Version = "dev"
	assert.Equal(t, []string{"path=/status", "stream=/ws/status", "version=dev"}, TXT())
}
