package netmon

import (
	"fmt"
	"time"
)

// Watcher kinds accepted by SelectWatcher.
const (
	WatcherAuto    = "auto"
	WatcherNetlink = "netlink"
	WatcherRoute   = "route"
	WatcherPoll    = "poll"
)

// SelectWatcher maps a configured watcher kind to an implementation.
// "netlink" and "route" are only valid on their own platforms.
func SelectWatcher(kind string, pollInterval time.Duration) (Watcher, error) {
	switch kind {
	case "", WatcherAuto:
		return NewWatcher(), nil
	case WatcherPoll:
		return NewPollingWatcher(pollInterval), nil
	case WatcherNetlink, WatcherRoute:
		if kind != nativeWatcherKind {
			return nil, fmt.Errorf("watcher %q is not available on this platform", kind)
		}
		return NewWatcher(), nil
	default:
		return nil, fmt.Errorf("unknown watcher %q", kind)
	}
}
