// Package metrics exposes Prometheus instrumentation for the Rojifi client.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Prometheus metric names.
const (
	MetricRequestsTotal          = "rojifi_client_requests_total"
	MetricRequestDurationSeconds = "rojifi_client_request_duration_seconds"
	MetricEnvelopeFailuresTotal  = "rojifi_client_envelope_failures_total"
)

// Request outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeProtocol     = "protocol_error"
	OutcomeDecode       = "decode_error"
	OutcomeNetwork      = "network_error"
	OutcomeAPI          = "api_error"
	OutcomeUnauthorized = "unauthorized"
	OutcomeOther        = "other"
)

// Envelope failure kinds.
const (
	KindProtocol = "protocol"
	KindDecrypt  = "decrypt"
	KindDecode   = "decode"
)

// Collector records client request metrics.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Collector struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	envelopes *prometheus.CounterVec
}

// NewCollector registers the client metrics on reg. A nil reg gets a private
// registry, retrievable through Registry.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRequestsTotal,
				Help: "Total number of API requests by method and outcome.",
			},
			[]string{"method", "outcome"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRequestDurationSeconds,
				Help:    "API request duration in seconds, including envelope opening.",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
		envelopes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricEnvelopeFailuresTotal,
				Help: "Envelopes that could not be opened, by failure kind.",
			},
			[]string{"kind"},
		),
	}

	if reg == nil {
		c.registry = prometheus.NewRegistry()
		reg = c.registry
	}

	for _, col := range []prometheus.Collector{c.requests, c.durations, c.envelopes} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

// ObserveRequest records one completed request.
func (c *Collector) ObserveRequest(method, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(method, outcome).Inc()
	c.durations.WithLabelValues(method).Observe(d.Seconds())
}

// EnvelopeFailure records an envelope that was rejected or unreadable.
func (c *Collector) EnvelopeFailure(kind string) {
	if c == nil {
		return
	}
	c.envelopes.WithLabelValues(kind).Inc()
}

// Registry returns the private registry, or nil when an external registerer was supplied.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteText writes every metric family gathered from g in the Prometheus
// text format, sorted by name.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
