// Package metrics exports Prometheus collectors for the evidence pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
)

const namespace = "evidence"

// Metrics holds the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FetchesTotal       *prometheus.CounterVec
	FetchDuration      *prometheus.HistogramVec
	VerdictsTotal      *prometheus.CounterVec
	DatesTotal         *prometheus.CounterVec
	FailuresTotal      *prometheus.CounterVec
	CompaniesProcessed prometheus.Counter
	CompaniesInFlight  prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry registers the collectors on reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Resources fetched, by transfer path and content kind",
		}, []string{"via", "kind"}),

		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time to fetch and decode one resource",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"via"}),

		VerdictsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Relevance verdicts produced",
		}, []string{"verdict", "tier"}),

		DatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dates_total",
			Help:      "Date estimates by provenance",
		}, []string{"provenance"}),

		FailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Failures by kind",
		}, []string{"kind"}),

		CompaniesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "companies_processed_total",
			Help:      "Companies fully investigated",
		}),

		CompaniesInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "companies_in_flight",
			Help:      "Companies currently being investigated",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveFetch records one fetch. Its signature matches fetcher.Observer.
func (m *Metrics) ObserveFetch(res *domain.Resource, elapsed time.Duration) {
	if m == nil || res == nil {
		return
	}
	via := string(res.Via)
	if via == "" {
		via = string(domain.ViaHTTP)
	}
	m.FetchesTotal.WithLabelValues(via, string(res.Kind)).Inc()
	m.FetchDuration.WithLabelValues(via).Observe(elapsed.Seconds())
	if res.Failure != nil {
		m.FailuresTotal.WithLabelValues(string(res.Failure.Kind)).Inc()
	}
}

// RecordEvidence counts the verdict and date of e.
func (m *Metrics) RecordEvidence(e domain.Evidence) {
	if m == nil {
		return
	}
	m.VerdictsTotal.WithLabelValues(string(e.Verdict.Verdict), string(e.Verdict.Tier)).Inc()

	provenance := e.Date.Provenance
	if provenance == "" {
		provenance = domain.ProvenanceNone
	}
	m.DatesTotal.WithLabelValues(string(provenance)).Inc()
}

// RecordFailure counts a failure outside the fetch path.
func (m *Metrics) RecordFailure(kind domain.FailureKind) {
	if m == nil {
		return
	}
	m.FailuresTotal.WithLabelValues(string(kind)).Inc()
}

// CompanyStarted marks a company as in flight.
func (m *Metrics) CompanyStarted() {
	if m == nil {
		return
	}
	m.CompaniesInFlight.Inc()
}

// CompanyDone marks a company as finished.
func (m *Metrics) CompanyDone() {
	if m == nil {
		return
	}
	m.CompaniesInFlight.Dec()
	m.CompaniesProcessed.Inc()
}

// CompanyAbandoned marks an interrupted company as no longer in flight.
func (m *Metrics) CompanyAbandoned() {
	if m == nil {
		return
	}
	m.CompaniesInFlight.Dec()
}
