// Package metrics records engine activity for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is the metrics surface the services depend on.
type Collector interface {
	RecordTransition(from, to string)
	RecordComplianceVerdict(checkType, status string)
	RecordRateLookup(hit bool)
	RecordRateRefreshFailure(pair string)
	RecordDispatch(partnerID, outcome string, duration time.Duration)
	RecordReportGenerated(cached bool)
}

// PrometheusCollector is a Collector backed by its own registry.
type PrometheusCollector struct {
	registry          *prometheus.Registry
	transitions       *prometheus.CounterVec
	complianceResults *prometheus.CounterVec
	rateLookups       *prometheus.CounterVec
	rateFailures      *prometheus.CounterVec
	dispatchDuration  *prometheus.HistogramVec
	reports           *prometheus.CounterVec
}

func NewPrometheusCollector() *PrometheusCollector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &PrometheusCollector{
		registry: registry,
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "remit_transfer_transitions_total",
			Help: "Transfer state transitions by source and target status",
		}, []string{"from", "to"}),
		complianceResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "remit_compliance_checks_total",
			Help: "Compliance check outcomes by check type",
		}, []string{"type", "status"}),
		rateLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "remit_rate_lookups_total",
			Help: "Exchange rate cache lookups",
		}, []string{"result"}),
		rateFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "remit_rate_refresh_failures_total",
			Help: "Provider failures while refreshing a currency pair",
		}, []string{"pair"}),
		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "remit_partner_dispatch_duration_seconds",
			Help:    "Time taken to hand a transfer to a partner",
			Buckets: prometheus.DefBuckets,
		}, []string{"partner", "outcome"}),
		reports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "remit_reports_generated_total",
			Help: "Remittance reports served",
		}, []string{"source"}),
	}
}

func (m *PrometheusCollector) RecordTransition(from, to string) {
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *PrometheusCollector) RecordComplianceVerdict(checkType, status string) {
	m.complianceResults.WithLabelValues(checkType, status).Inc()
}

func (m *PrometheusCollector) RecordRateLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.rateLookups.WithLabelValues(result).Inc()
}

func (m *PrometheusCollector) RecordRateRefreshFailure(pair string) {
	m.rateFailures.WithLabelValues(pair).Inc()
}

func (m *PrometheusCollector) RecordDispatch(partnerID, outcome string, duration time.Duration) {
	m.dispatchDuration.WithLabelValues(partnerID, outcome).Observe(duration.Seconds())
}

func (m *PrometheusCollector) RecordReportGenerated(cached bool) {
	source := "computed"
	if cached {
		source = "cache"
	}
	m.reports.WithLabelValues(source).Inc()
}

// Registry exposes the underlying registry for tests.
func (m *PrometheusCollector) Registry() *prometheus.Registry {
	return m.registry
}

func (m *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Noop is a no-op implementation of Collector
type Noop struct{}

func (Noop) RecordTransition(string, string)              {}
func (Noop) RecordComplianceVerdict(string, string)       {}
func (Noop) RecordRateLookup(bool)                        {}
func (Noop) RecordRateRefreshFailure(string)              {}
func (Noop) RecordDispatch(string, string, time.Duration) {}
func (Noop) RecordReportGenerated(bool)                   {}
