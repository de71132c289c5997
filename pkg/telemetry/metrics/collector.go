// Package metrics provides the Prometheus collector and exposition
// endpoint for the proxy.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"keybridge-hq/keybridge/pkg/config"
)

// Collector owns all Prometheus metrics for the proxy. All recording
// methods are safe to call on a disabled collector; they become no-ops.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	// Chat request count by provider, model, status
	requestsTotal *prometheus.CounterVec

	// Chat request duration histogram by provider, model
	requestDuration *prometheus.HistogramVec

	// Stream content events relayed, by provider
	streamEventsTotal *prometheus.CounterVec

	// Key liveness probe count by provider, outcome
	keyChecksTotal *prometheus.CounterVec

	// Key save count by provider, outcome
	keySavesTotal *prometheus.CounterVec
}

// NewCollector creates a metrics collector registered on the given
// registry. If registry is nil, a new registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "keybridge"
	}

	c := &Collector{
		enabled:  cfg.Enabled,
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_requests_total",
				Help:      "Total number of chat requests processed",
			},
			[]string{"provider", "model", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "chat_request_duration_seconds",
				Help:      "Duration of chat requests in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"provider", "model"},
		),

		streamEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_events_total",
				Help:      "Total number of stream content events relayed",
			},
			[]string{"provider"},
		),

		keyChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "key_checks_total",
				Help:      "Total number of API key liveness probes",
			},
			[]string{"provider", "outcome"},
		),

		keySavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "key_saves_total",
				Help:      "Total number of API key save attempts",
			},
			[]string{"provider", "outcome"},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.streamEventsTotal,
		c.keyChecksTotal,
		c.keySavesTotal,
	)

	return c
}

// RecordRequest records a completed chat request.
func (c *Collector) RecordRequest(provider, model, status string, duration time.Duration) {
	if c == nil || !c.enabled {
		return
	}
	c.requestsTotal.WithLabelValues(provider, model, status).Inc()
	c.requestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// RecordStreamEvents records the number of content events relayed for one
// streaming request.
func (c *Collector) RecordStreamEvents(provider string, count int) {
	if c == nil || !c.enabled || count <= 0 {
		return
	}
	c.streamEventsTotal.WithLabelValues(provider).Add(float64(count))
}

// RecordKeyCheck records one key liveness probe.
func (c *Collector) RecordKeyCheck(provider string, valid bool) {
	if c == nil || !c.enabled {
		return
	}
	c.keyChecksTotal.WithLabelValues(provider, outcome(valid)).Inc()
}

// RecordKeySave records one key save attempt.
func (c *Collector) RecordKeySave(provider string, ok bool) {
	if c == nil || !c.enabled {
		return
	}
	c.keySavesTotal.WithLabelValues(provider, outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
