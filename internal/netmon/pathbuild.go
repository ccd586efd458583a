package netmon

import (
	"sort"
	"strings"
)

// linkInfo is the platform-neutral view of one interface.
type linkInfo struct {
	Name     string
	Index    int
	Up       bool
	Loopback bool
	Carrier  bool
	HasAddr  bool // at least one global unicast address
	Type     InterfaceType
}

// routeInfo is one default route.
type routeInfo struct {
	LinkIndex int
	Metric    int
}

// buildPath derives a RawPath from the interface table and, when the
// platform provides them, the default routes. Without route information
// every configured interface is treated as carrying a default route.
func buildPath(links []linkInfo, defaults []routeInfo, haveRoutes bool) RawPath {
	metric := make(map[int]int)
	if haveRoutes {
		for _, r := range defaults {
			if m, ok := metric[r.LinkIndex]; !ok || r.Metric < m {
				metric[r.LinkIndex] = r.Metric
			}
		}
	}

	var usable []linkInfo
	var routedWithoutAddr, carrierOnly bool
	for _, l := range links {
		if !l.Up || l.Loopback {
			continue
		}
		if !haveRoutes {
			metric[l.Index] = l.Index
		}
		_, routed := metric[l.Index]
		switch {
		case routed && l.HasAddr:
			usable = append(usable, l)
		case routed:
			routedWithoutAddr = true
		case l.Carrier || l.HasAddr:
			carrierOnly = true
		}
	}

	if len(usable) == 0 {
		if routedWithoutAddr || carrierOnly {
			return RawPath{Status: PathRequiresConnection}
		}
		return RawPath{Status: PathUnsatisfied}
	}

	sort.SliceStable(usable, func(i, j int) bool {
		mi, mj := metric[usable[i].Index], metric[usable[j].Index]
		if mi != mj {
			return mi < mj
		}
		return usable[i].Index < usable[j].Index
	})

	p := RawPath{
		Status:     PathSatisfied,
		Interfaces: make([]Interface, 0, len(usable)),
	}
	for _, l := range usable {
		p.Interfaces = append(p.Interfaces, Interface{Name: l.Name, Index: l.Index, Type: l.Type})
	}
	p.Expensive = p.Interfaces[0].Type == InterfaceCellular
	return p
}

var namePrefixes = []struct {
	prefix string
	typ    InterfaceType
}{
	{"wl", InterfaceWifi},
	{"wwan", InterfaceCellular},
	{"rmnet", InterfaceCellular},
	{"ccmni", InterfaceCellular},
	{"pdp_ip", InterfaceCellular},
	{"eth", InterfaceWired},
	{"en", InterfaceWired},
}

// interfaceTypeOf classifies an interface, preferring what the platform can
// tell us and falling back to well-known name prefixes.
func interfaceTypeOf(name string) InterfaceType {
	if t, ok := platformInterfaceType(name); ok {
		return t
	}
	return interfaceTypeByName(name)
}

func interfaceTypeByName(name string) InterfaceType {
	for _, p := range namePrefixes {
		if strings.HasPrefix(name, p.prefix) {
			return p.typ
		}
	}
	return InterfaceOther
}
