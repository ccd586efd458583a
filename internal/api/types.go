package api

import "github.com/dmdmdm-nz/pathmond/internal/netmon"

// StatusSource is what the API needs from the monitor.
type StatusSource interface {
	Current() netmon.NetworkStatus
	Running() bool
	Subscribe() (<-chan netmon.NetworkStatus, func())
}

const plistContentType = "application/x-plist"
