package netmon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	loLink   = linkInfo{Name: "lo", Index: 1, Up: true, Loopback: true, Carrier: true, HasAddr: true, Type: InterfaceOther}
	ethLink  = linkInfo{Name: "eth0", Index: 2, Up: true, Carrier: true, HasAddr: true, Type: InterfaceWired}
	wifiLink = linkInfo{Name: "wlan0", Index: 3, Up: true, Carrier: true, HasAddr: true, Type: InterfaceWifi}
	wwanLink = linkInfo{Name: "wwan0", Index: 4, Up: true, Carrier: true, HasAddr: true, Type: InterfaceCellular}
)

func TestBuildPath_NoLinks(t *testing.T) {
	p := buildPath([]linkInfo{loLink}, nil, true)
	assert.Equal(t, PathUnsatisfied, p.Status)
	assert.Empty(t, p.Interfaces)
}

func TestBuildPath_DownLinksIgnored(t *testing.T) {
	down := wifiLink
	down.Up = false
	p := buildPath([]linkInfo{loLink, down}, []routeInfo{{LinkIndex: down.Index}}, true)
	assert.Equal(t, PathUnsatisfied, p.Status)
}

func TestBuildPath_OrderedByMetric(t *testing.T) {
	p := buildPath(
		[]linkInfo{loLink, ethLink, wifiLink, wwanLink},
		[]routeInfo{
			{LinkIndex: wwanLink.Index, Metric: 700},
			{LinkIndex: wifiLink.Index, Metric: 600},
			{LinkIndex: ethLink.Index, Metric: 100},
		},
		true,
	)

	assert.Equal(t, PathSatisfied, p.Status)
	assert.False(t, p.Expensive)
	assert.Equal(t, []Interface{
		{Name: "eth0", Index: 2, Type: InterfaceWired},
		{Name: "wlan0", Index: 3, Type: InterfaceWifi},
		{Name: "wwan0", Index: 4, Type: InterfaceCellular},
	}, p.Interfaces)
}

func TestBuildPath_LowestMetricPerLink(t *testing.T) {
	p := buildPath(
		[]linkInfo{wifiLink, wwanLink},
		[]routeInfo{
			{LinkIndex: wifiLink.Index, Metric: 900},
			{LinkIndex: wwanLink.Index, Metric: 500},
			{LinkIndex: wifiLink.Index, Metric: 100},
		},
		true,
	)
	assert.Equal(t, "wlan0", p.Interfaces[0].Name)
}

func TestBuildPath_CellularPrimaryIsExpensive(t *testing.T) {
	p := buildPath([]linkInfo{wifiLink, wwanLink}, []routeInfo{{LinkIndex: wwanLink.Index}}, true)
	assert.Equal(t, PathSatisfied, p.Status)
	assert.True(t, p.Expensive)
	assert.Len(t, p.Interfaces, 1)
}

func TestBuildPath_RequiresConnection(t *testing.T) {
	t.Run("default route without address", func(t *testing.T) {
		l := wifiLink
		l.HasAddr = false
		p := buildPath([]linkInfo{l}, []routeInfo{{LinkIndex: l.Index}}, true)
		assert.Equal(t, PathRequiresConnection, p.Status)
	})

	t.Run("carrier without default route", func(t *testing.T) {
		p := buildPath([]linkInfo{ethLink}, nil, true)
		assert.Equal(t, PathRequiresConnection, p.Status)
	})
}

func TestBuildPath_WithoutRoutes(t *testing.T) {
	noAddr := wwanLink
	noAddr.HasAddr = false
	p := buildPath([]linkInfo{loLink, wifiLink, ethLink, noAddr}, nil, false)

	assert.Equal(t, PathSatisfied, p.Status)
	assert.Equal(t, []Interface{
		{Name: "eth0", Index: 2, Type: InterfaceWired},
		{Name: "wlan0", Index: 3, Type: InterfaceWifi},
	}, p.Interfaces)
}

func TestInterfaceTypeByName(t *testing.T) {
	tests := map[string]InterfaceType{
		"wlan0":       InterfaceWifi,
		"wlp2s0":      InterfaceWifi,
		"wwan0":       InterfaceCellular,
		"rmnet_data0": InterfaceCellular,
		"pdp_ip0":     InterfaceCellular,
		"eth0":        InterfaceWired,
		"enp0s31f6":   InterfaceWired,
		"en0":         InterfaceWired,
		"utun3":       InterfaceOther,
		"docker0":     InterfaceOther,
	}
	for name, want := range tests {
		assert.Equal(t, want, interfaceTypeByName(name), name)
	}
}
