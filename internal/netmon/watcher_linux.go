//go:build linux

package netmon

import (
	"context"
	"errors"
	"fmt"
	"net"

	log "github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
)

const nativeWatcherKind = WatcherNetlink

type linuxWatcher struct{}

// NewWatcher creates a Linux-specific watcher using netlink.
func NewWatcher() Watcher {
	return &linuxWatcher{}
}

func (w *linuxWatcher) Start(ctx context.Context, callback func(RawPath)) error {
	linkCh := make(chan netlink.LinkUpdate)
	linkDone := make(chan struct{})

	addrCh := make(chan netlink.AddrUpdate)
	addrDone := make(chan struct{})

	routeCh := make(chan netlink.RouteUpdate)
	routeDone := make(chan struct{})

	if err := netlink.LinkSubscribe(linkCh, linkDone); err != nil {
		return fmt.Errorf("subscribe to link updates: %w", err)
	}
	defer close(linkDone)

	if err := netlink.AddrSubscribe(addrCh, addrDone); err != nil {
		return fmt.Errorf("subscribe to address updates: %w", err)
	}
	defer close(addrDone)

	if err := netlink.RouteSubscribe(routeCh, routeDone); err != nil {
		return fmt.Errorf("subscribe to route updates: %w", err)
	}
	defer close(routeDone)

	filter := &changeFilter{}
	w.evaluate(filter, callback)
	log.Debug("Linux watcher initialized")

	for {
		select {
		case <-ctx.Done():
			return nil

		case update, ok := <-linkCh:
			if !ok {
				return errors.New("netlink link subscription closed")
			}
			log.WithFields(log.Fields{
				"interface": update.Link.Attrs().Name,
				"flags":     update.Link.Attrs().Flags,
			}).Trace("Received link update")
			w.evaluate(filter, callback)

		case update, ok := <-addrCh:
			if !ok {
				return errors.New("netlink address subscription closed")
			}
			log.WithFields(log.Fields{
				"ifIndex": update.LinkIndex,
				"addr":    update.LinkAddress.String(),
				"new":     update.NewAddr,
			}).Trace("Received address update")
			w.evaluate(filter, callback)

		case update, ok := <-routeCh:
			if !ok {
				return errors.New("netlink route subscription closed")
			}
			if !isDefaultRoute(update.Route) {
				continue
			}
			log.WithFields(log.Fields{
				"ifIndex": update.Route.LinkIndex,
				"type":    update.Type,
			}).Trace("Received default route update")
			w.evaluate(filter, callback)
		}
	}
}

func (w *linuxWatcher) evaluate(filter *changeFilter, callback func(RawPath)) {
	links, defaults, err := snapshotLinks()
	if err != nil {
		log.WithError(err).Warn("Failed to read link state")
		return
	}

	p := buildPath(links, defaults, true)
	if filter.changed(p) {
		callback(p)
	}
}

func snapshotLinks() ([]linkInfo, []routeInfo, error) {
	nlLinks, err := netlink.LinkList()
	if err != nil && !errors.Is(err, netlink.ErrDumpInterrupted) {
		return nil, nil, fmt.Errorf("list links: %w", err)
	}

	links := make([]linkInfo, 0, len(nlLinks))
	for _, link := range nlLinks {
		attrs := link.Attrs()
		l := linkInfo{
			Name:     attrs.Name,
			Index:    attrs.Index,
			Up:       attrs.Flags&net.FlagUp != 0,
			Loopback: attrs.Flags&net.FlagLoopback != 0,
			Carrier:  attrs.OperState == netlink.OperUp,
			Type:     interfaceTypeOf(attrs.Name),
		}
		if l.Up && !l.Loopback {
			l.HasAddr = linkHasGlobalUnicast(link)
		}
		links = append(links, l)
	}

	routes, err := netlink.RouteList(nil, netlink.FAMILY_ALL)
	if err != nil && !errors.Is(err, netlink.ErrDumpInterrupted) {
		return nil, nil, fmt.Errorf("list routes: %w", err)
	}

	var defaults []routeInfo
	for _, r := range routes {
		if !isDefaultRoute(r) {
			continue
		}
		if r.LinkIndex > 0 {
			defaults = append(defaults, routeInfo{LinkIndex: r.LinkIndex, Metric: r.Priority})
		}
		for _, nh := range r.MultiPath {
			defaults = append(defaults, routeInfo{LinkIndex: nh.LinkIndex, Metric: r.Priority})
		}
	}
	return links, defaults, nil
}

func linkHasGlobalUnicast(link netlink.Link) bool {
	addrs, err := netlink.AddrList(link, netlink.FAMILY_ALL)
	if err != nil {
		log.WithError(err).WithField("interface", link.Attrs().Name).Trace("Failed to list addresses")
		return false
	}
	for _, addr := range addrs {
		if addr.IP.IsGlobalUnicast() {
			return true
		}
	}
	return false
}

// isDefaultRoute matches both a nil destination and an explicit 0/0 or ::/0.
func isDefaultRoute(r netlink.Route) bool {
	if r.Dst == nil {
		return true
	}
	ones, _ := r.Dst.Mask.Size()
	return ones == 0 && r.Dst.IP.IsUnspecified()
}
