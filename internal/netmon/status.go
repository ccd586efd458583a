package netmon

import "fmt"

// NetworkStatus is an immutable snapshot of the classified path.
type NetworkStatus struct {
	Connected     bool          `json:"connected" plist:"connected"`
	Expensive     bool          `json:"expensive" plist:"expensive"`
	InterfaceType InterfaceType `json:"interfaceType" plist:"interfaceType"`
}

func (s NetworkStatus) String() string {
	return fmt.Sprintf("connected=%t expensive=%t type=%s", s.Connected, s.Expensive, s.InterfaceType)
}

// preferredTypes is the order in which interface types are surfaced. Only
// wifi and cellular are distinguished; anything else reports InterfaceNone.
var preferredTypes = []InterfaceType{InterfaceWifi, InterfaceCellular}

// Classify reduces a raw path to a NetworkStatus.
func Classify(p RawPath) NetworkStatus {
	st := NetworkStatus{
		Connected:     p.Status != PathUnsatisfied && p.Status != PathRequiresConnection,
		Expensive:     p.Expensive,
		InterfaceType: InterfaceNone,
	}
	for _, t := range preferredTypes {
		if p.UsesInterfaceType(t) {
			st.InterfaceType = t
			break
		}
	}
	return st
}
