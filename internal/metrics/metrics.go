package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pathmond"

// Collector holds the monitor's Prometheus collectors on a private registry.
// All methods are safe on a nil receiver so callers can leave metrics off.
type Collector struct {
	reg *prometheus.Registry

	pathEvents  prometheus.Counter
	published   prometheus.Counter
	transitions *prometheus.CounterVec
	subscribers prometheus.Gauge
	backlog     prometheus.Gauge
	connected   prometheus.Gauge
	expensive   prometheus.Gauge
	ifaceType   *prometheus.GaugeVec
}

func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		pathEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "path_events_total",
			Help:      "Raw path updates received from the OS watcher.",
		}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Status snapshots fanned out to subscribers.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connectivity_transitions_total",
			Help:      "Changes of the connected flag, by new value.",
		}, []string{"connected"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Active status subscriptions.",
		}),
		backlog: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscriber_backlog_max",
			Help:      "Most snapshots waiting for any one subscriber at the last publish.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 when the current path is usable.",
		}),
		expensive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "expensive",
			Help:      "1 when the current path is metered.",
		}),
		ifaceType: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "interface_type",
			Help:      "1 for the interface type currently surfaced.",
		}, []string{"type"}),
	}
	c.reg.MustRegister(
		c.pathEvents,
		c.published,
		c.transitions,
		c.subscribers,
		c.backlog,
		c.connected,
		c.expensive,
		c.ifaceType,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}

func (c *Collector) IncPathEvents() {
	if c == nil {
		return
	}
	c.pathEvents.Inc()
}

func (c *Collector) IncPublished() {
	if c == nil {
		return
	}
	c.published.Inc()
}

// ObserveStatus records the current snapshot. prevConnected is compared with
// connected to count transitions.
func (c *Collector) ObserveStatus(connected, prevConnected, expensive bool, ifaceType string) {
	if c == nil {
		return
	}
	if connected != prevConnected {
		c.transitions.WithLabelValues(boolLabel(connected)).Inc()
	}
	c.connected.Set(boolGauge(connected))
	c.expensive.Set(boolGauge(expensive))
	c.ifaceType.Reset()
	c.ifaceType.WithLabelValues(ifaceType).Set(1)
}

func (c *Collector) SetSubscribers(n int) {
	if c == nil {
		return
	}
	c.subscribers.Set(float64(n))
}

// SetMaxBacklog records the deepest subscriber queue. A value that keeps
// growing points at a subscriber that stopped reading.
func (c *Collector) SetMaxBacklog(n int) {
	if c == nil {
		return
	}
	c.backlog.Set(float64(n))
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
