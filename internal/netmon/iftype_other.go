//go:build !linux && !darwin

package netmon

func platformInterfaceType(string) (InterfaceType, bool) {
	return "", false
}
