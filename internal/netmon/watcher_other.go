//go:build !linux && !darwin

package netmon

const nativeWatcherKind = WatcherPoll

// NewWatcher falls back to polling where no event source is wired up.
func NewWatcher() Watcher {
	return NewPollingWatcher(DefaultPollInterval)
}
