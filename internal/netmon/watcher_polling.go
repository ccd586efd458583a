package netmon

import (
	"context"
	"net"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
)

const DefaultPollInterval = 5 * time.Second

type pollingWatcher struct {
	interval   time.Duration
	clock      clock.Clock
	interfaces func() ([]linkInfo, error)
}

// NewPollingWatcher creates a watcher that samples the interface table on a
// fixed interval. It works everywhere but carries no route information.
func NewPollingWatcher(interval time.Duration) Watcher {
	return newPollingWatcher(interval, clock.New())
}

func newPollingWatcher(interval time.Duration, clk clock.Clock) *pollingWatcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &pollingWatcher{
		interval:   interval,
		clock:      clk,
		interfaces: listInterfaces,
	}
}

func (w *pollingWatcher) Start(ctx context.Context, callback func(RawPath)) error {
	log.WithField("interval", w.interval).Debug("Polling watcher started")

	filter := &changeFilter{}

	// Initial interface check
	w.check(filter, callback)

	ticker := w.clock.Ticker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.check(filter, callback)
		}
	}
}

func (w *pollingWatcher) check(filter *changeFilter, callback func(RawPath)) {
	links, err := w.interfaces()
	if err != nil {
		log.Errorf("Error getting network interfaces: %v", err)
		return
	}

	p := buildPath(links, nil, false)
	if filter.changed(p) {
		callback(p)
	}
}

func listInterfaces() ([]linkInfo, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	links := make([]linkInfo, 0, len(interfaces))
	for _, iface := range interfaces {
		l := linkInfo{
			Name:     iface.Name,
			Index:    iface.Index,
			Up:       iface.Flags&net.FlagUp != 0,
			Loopback: iface.Flags&net.FlagLoopback != 0,
			Carrier:  iface.Flags&net.FlagRunning != 0,
			Type:     interfaceTypeOf(iface.Name),
		}
		if l.Up && !l.Loopback {
			l.HasAddr = hasGlobalUnicast(&iface)
		} else {
			log.WithFields(log.Fields{
				"interface": iface.Name,
			}).Trace("Skipping down or loopback interface")
		}
		links = append(links, l)
	}
	return links, nil
}

func hasGlobalUnicast(iface *net.Interface) bool {
	addrs, err := iface.Addrs()
	if err != nil {
		log.Errorf("Error getting addresses for interface %s: %v", iface.Name, err)
		return false
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && ipNet.IP.IsGlobalUnicast() {
			return true
		}
	}
	return false
}
