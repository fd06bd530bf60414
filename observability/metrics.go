// Package observability exposes the Prometheus instrumentation of the
// live layer.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder counts what the live layer does. Implementations must be safe
// for concurrent use.
type Recorder interface {
	ConnectionOpened()
	ConnectionClosed()
	MessagePersisted()
	EventsDelivered(n int)
	EventsDropped(n int)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	liveConnections   prometheus.Gauge
	messagesPersisted prometheus.Counter
	eventsDelivered   prometheus.Counter
	eventsDropped     prometheus.Counter
}

// NewCollector registers the chat metrics on the given registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		liveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roomchat_live_connections",
			Help: "Number of currently open live connections.",
		}),
		messagesPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_messages_persisted_total",
			Help: "Number of messages written to storage.",
		}),
		eventsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_events_delivered_total",
			Help: "Number of events handed to a session sink.",
		}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_events_dropped_total",
			Help: "Number of events a session could not accept.",
		}),
	}
	reg.MustRegister(c.liveConnections, c.messagesPersisted, c.eventsDelivered, c.eventsDropped)
	return c
}

func (c *Collector) ConnectionOpened()     { c.liveConnections.Inc() }
func (c *Collector) ConnectionClosed()     { c.liveConnections.Dec() }
func (c *Collector) MessagePersisted()     { c.messagesPersisted.Inc() }
func (c *Collector) EventsDelivered(n int) { c.eventsDelivered.Add(float64(n)) }
func (c *Collector) EventsDropped(n int)   { c.eventsDropped.Add(float64(n)) }

// NopRecorder discards every observation. Useful in tests.
type NopRecorder struct{}

func (NopRecorder) ConnectionOpened()   {}
func (NopRecorder) ConnectionClosed()   {}
func (NopRecorder) MessagePersisted()   {}
func (NopRecorder) EventsDelivered(int) {}
func (NopRecorder) EventsDropped(int)   {}
