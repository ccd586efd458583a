package netmon

import (
	"fmt"
	"slices"
)

// PathStatus is the raw reachability verdict reported by the OS for the
// current network path.
type PathStatus int

const (
	PathUnsatisfied PathStatus = iota
	PathSatisfied
	PathRequiresConnection
)

func (s PathStatus) String() string {
	switch s {
	case PathSatisfied:
		return "satisfied"
	case PathUnsatisfied:
		return "unsatisfied"
	case PathRequiresConnection:
		return "requiresConnection"
	default:
		return fmt.Sprintf("PathStatus(%d)", int(s))
	}
}

type InterfaceType string

const (
	InterfaceNone     InterfaceType = "none"
	InterfaceWifi     InterfaceType = "wifi"
	InterfaceCellular InterfaceType = "cellular"
	InterfaceWired    InterfaceType = "wired"
	InterfaceOther    InterfaceType = "other"
)

// Interface is one active interface on the path.
type Interface struct {
	Name  string
	Index int
	Type  InterfaceType
}

// RawPath is what a Watcher reports for every path change. Interfaces are
// ordered by preference, most preferred route first.
type RawPath struct {
	Status     PathStatus
	Expensive  bool
	Interfaces []Interface
}

// Equal reports whether two paths describe the same state.
func (p RawPath) Equal(o RawPath) bool {
	return p.Status == o.Status &&
		p.Expensive == o.Expensive &&
		slices.Equal(p.Interfaces, o.Interfaces)
}

// UsesInterfaceType reports whether any active interface has type t.
func (p RawPath) UsesInterfaceType(t InterfaceType) bool {
	for _, iface := range p.Interfaces {
		if iface.Type == t {
			return true
		}
	}
	return false
}
