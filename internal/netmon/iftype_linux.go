//go:build linux

package netmon

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

var sysClassNet = "/sys/class/net"

// platformInterfaceType reads the kernel's device type from sysfs.
func platformInterfaceType(name string) (InterfaceType, bool) {
	dir := filepath.Join(sysClassNet, name)
	if _, err := os.Stat(filepath.Join(dir, "wireless")); err == nil {
		return InterfaceWifi, true
	}

	f, err := os.Open(filepath.Join(dir, "uevent"))
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		devType, ok := strings.CutPrefix(scanner.Text(), "DEVTYPE=")
		if !ok {
			continue
		}
		switch devType {
		case "wlan":
			return InterfaceWifi, true
		case "wwan":
			return InterfaceCellular, true
		}
	}
	return "", false
}
