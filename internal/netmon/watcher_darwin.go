//go:build darwin

package netmon

import (
	"context"
	"fmt"
	"net"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/route"
	"golang.org/x/sys/unix"
)

const nativeWatcherKind = WatcherRoute

type darwinWatcher struct{}

// NewWatcher creates a macOS-specific watcher using AF_ROUTE sockets.
func NewWatcher() Watcher {
	return &darwinWatcher{}
}

func (w *darwinWatcher) Start(ctx context.Context, callback func(RawPath)) error {
	fd, err := unix.Socket(unix.AF_ROUTE, unix.SOCK_RAW, unix.AF_UNSPEC)
	if err != nil {
		return fmt.Errorf("open route socket: %w", err)
	}

	// Close socket when context is cancelled
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		unix.Close(fd)
	}()

	filter := &changeFilter{}
	w.evaluate(filter, callback)
	log.Debug("Darwin watcher initialized")

	buf := make([]byte, 4096)

	for {
		n, err := unix.Read(fd, buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("read route socket: %w", err)
		}

		msgs, err := route.ParseRIB(route.RIBTypeRoute, buf[:n])
		if err != nil {
			log.WithError(err).Trace("Skipping unparsable routing message")
			continue
		}
		if !pathRelevant(msgs) {
			continue
		}
		w.evaluate(filter, callback)
	}
}

// pathRelevant reports whether any message can change the path: interface
// state, address changes, or default route changes.
func pathRelevant(msgs []route.Message) bool {
	for _, m := range msgs {
		switch m := m.(type) {
		case *route.InterfaceMessage, *route.InterfaceAddrMessage:
			return true
		case *route.RouteMessage:
			if isDefaultRouteMessage(m) {
				return true
			}
		}
	}
	return false
}

func (w *darwinWatcher) evaluate(filter *changeFilter, callback func(RawPath)) {
	links, err := listInterfaces()
	if err != nil {
		log.WithError(err).Warn("Failed to list interfaces")
		return
	}
	defaults, err := defaultRoutes()
	if err != nil {
		log.WithError(err).Warn("Failed to read routing table")
		return
	}

	p := buildPath(links, defaults, true)
	if filter.changed(p) {
		callback(p)
	}
}

func defaultRoutes() ([]routeInfo, error) {
	rib, err := route.FetchRIB(unix.AF_UNSPEC, route.RIBTypeRoute, 0)
	if err != nil {
		return nil, err
	}
	msgs, err := route.ParseRIB(route.RIBTypeRoute, rib)
	if err != nil {
		return nil, err
	}
	return unscopedDefaults(msgs), nil
}

// unscopedDefaults keeps the default routes the system would actually use.
// Interface-scoped (RTF_IFSCOPE) defaults exist for every configured service
// and are skipped. The RIB carries no preference, so all defaults share one
// metric and buildPath orders them by interface index.
func unscopedDefaults(msgs []route.Message) []routeInfo {
	var defaults []routeInfo
	for _, m := range msgs {
		rm, ok := m.(*route.RouteMessage)
		if !ok || rm.Flags&unix.RTF_UP == 0 || rm.Flags&unix.RTF_IFSCOPE != 0 {
			continue
		}
		if !isDefaultRouteMessage(rm) {
			continue
		}
		defaults = append(defaults, routeInfo{LinkIndex: rm.Index})
	}
	return defaults
}

func isDefaultRouteMessage(m *route.RouteMessage) bool {
	if len(m.Addrs) <= unix.RTAX_DST {
		return false
	}
	if len(m.Addrs) > unix.RTAX_NETMASK && m.Addrs[unix.RTAX_NETMASK] != nil {
		if !zeroAddr(m.Addrs[unix.RTAX_NETMASK]) {
			return false
		}
	}
	return zeroAddr(m.Addrs[unix.RTAX_DST])
}

func zeroAddr(a route.Addr) bool {
	switch a := a.(type) {
	case *route.Inet4Addr:
		return net.IP(a.IP[:]).IsUnspecified()
	case *route.Inet6Addr:
		return net.IP(a.IP[:]).IsUnspecified()
	}
	return false
}
