//go:build darwin

package netmon

import (
	"unsafe"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Functional types from <net/if.h>.
const (
	ifrTypeFunctionalUnknown   = 0
	ifrTypeFunctionalLoopback  = 1
	ifrTypeFunctionalWired     = 2
	ifrTypeFunctionalWifiInfra = 3
	ifrTypeFunctionalWifiAWDL  = 4
	ifrTypeFunctionalCellular  = 5
)

// Media word masks from <net/if_media.h>.
const (
	ifmNetworkMask = 0x000000e0
	ifmEther       = 0x00000020
	ifmIEEE80211   = 0x00000080
)

// ifreqFunctionalType mirrors struct ifreq with ifru_functional_type set.
type ifreqFunctionalType struct {
	Name           [unix.IFNAMSIZ]byte
	FunctionalType uint32
	_              [12]byte
}

// ifmediareq mirrors the 4-byte packed struct ifmediareq (44 bytes). The
// media list pointer stays zero so the kernel only reports the active word.
type ifmediareq struct {
	Name    [unix.IFNAMSIZ]byte
	Current int32
	Mask    int32
	Status  int32
	Active  int32
	Count   int32
	Ulist   [2]uint32
}

// platformInterfaceType asks the kernel for the interface's functional type,
// then its media type. Wi-Fi and Ethernet both use en* names on macOS.
func platformInterfaceType(name string) (InterfaceType, bool) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		log.WithError(err).Trace("Failed to open ioctl socket")
		return "", false
	}
	defer unix.Close(fd)

	if ft, err := ioctlFunctionalType(fd, name); err == nil {
		if t, ok := functionalInterfaceType(ft); ok {
			return t, true
		}
	}
	if active, err := ioctlMediaActive(fd, name); err == nil {
		if t, ok := mediaInterfaceType(active); ok {
			return t, true
		}
	} else {
		log.WithError(err).WithField("interface", name).Trace("SIOCGIFMEDIA failed")
	}
	return "", false
}

func ioctlFunctionalType(fd int, name string) (uint32, error) {
	var req ifreqFunctionalType
	copy(req.Name[:unix.IFNAMSIZ-1], name)
	if err := ioctlPtr(fd, unix.SIOCGIFFUNCTIONALTYPE, unsafe.Pointer(&req)); err != nil {
		return 0, err
	}
	return req.FunctionalType, nil
}

func ioctlMediaActive(fd int, name string) (int32, error) {
	var req ifmediareq
	copy(req.Name[:unix.IFNAMSIZ-1], name)
	if err := ioctlPtr(fd, unix.SIOCGIFMEDIA, unsafe.Pointer(&req)); err != nil {
		return 0, err
	}
	return req.Active, nil
}

func ioctlPtr(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func functionalInterfaceType(ft uint32) (InterfaceType, bool) {
	switch ft {
	case ifrTypeFunctionalWifiInfra, ifrTypeFunctionalWifiAWDL:
		return InterfaceWifi, true
	case ifrTypeFunctionalCellular:
		return InterfaceCellular, true
	case ifrTypeFunctionalWired:
		return InterfaceWired, true
	case ifrTypeFunctionalLoopback:
		return InterfaceOther, true
	}
	return "", false
}

func mediaInterfaceType(active int32) (InterfaceType, bool) {
	switch active & ifmNetworkMask {
	case ifmIEEE80211:
		return InterfaceWifi, true
	case ifmEther:
		return InterfaceWired, true
	}
	return "", false
}
