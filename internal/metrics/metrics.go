// Package metrics exposes discovery counters and schema gauges on a private prometheus
// registry, written out in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dbsmedya/ontoforge/internal/schema"
)

const namespace = "ontoforge"

// Metrics holds the collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	documents    prometheus.Counter
	observations *prometheus.CounterVec
	promotions   *prometheus.CounterVec
	proposals    *prometheus.CounterVec
	evictions    prometheus.Counter
	scanSeconds  prometheus.Histogram
	schemaTypes  *prometheus.GaugeVec
	discovered   *prometheus.GaugeVec
	candidates   prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_scanned_total",
			Help:      "Documents passed through discovery.",
		}),
		observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_total",
			Help:      "Candidate observations extracted, by kind.",
		}, []string{"kind"}),
		promotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotions_total",
			Help:      "Candidates committed to the schema, by kind.",
		}, []string{"kind"}),
		proposals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposals_total",
			Help:      "Proposals raised in guided mode, by kind.",
		}, []string{"kind"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_evicted_total",
			Help:      "Stale low-frequency candidates dropped from the tracker.",
		}),
		scanSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_scan_seconds",
			Help:      "Time spent extracting observations from one document.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		schemaTypes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "schema_types",
			Help:      "Types currently in the schema, by kind.",
		}, []string{"kind"}),
		discovered: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "schema_discovered_types",
			Help:      "Discovered types currently in the schema, by kind.",
		}, []string{"kind"}),
		candidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "candidates_tracked",
			Help:      "Candidates currently held by the tracker.",
		}),
	}

	m.registry.MustRegister(
		m.documents,
		m.observations,
		m.promotions,
		m.proposals,
		m.evictions,
		m.scanSeconds,
		m.schemaTypes,
		m.discovered,
		m.candidates,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// CandidatePromoted counts one committed promotion.
func (m *Metrics) CandidatePromoted(kind string) {
	m.promotions.WithLabelValues(kind).Inc()
}

// ProposalRaised counts one guided-mode proposal.
func (m *Metrics) ProposalRaised(kind string) {
	m.proposals.WithLabelValues(kind).Inc()
}

// DocumentScanned records one scanned document and how long extraction took.
func (m *Metrics) DocumentScanned(elapsed time.Duration) {
	m.documents.Inc()
	m.scanSeconds.Observe(elapsed.Seconds())
}

// ObservationsRecorded adds extracted observation counts.
func (m *Metrics) ObservationsRecorded(entities, relationships, attributes int) {
	m.observations.WithLabelValues("entity").Add(float64(entities))
	m.observations.WithLabelValues("relationship").Add(float64(relationships))
	m.observations.WithLabelValues("attribute").Add(float64(attributes))
}

// CandidatesEvicted adds evicted candidates.
func (m *Metrics) CandidatesEvicted(n int) {
	m.evictions.Add(float64(n))
}

// SetCandidates sets the number of tracked candidates.
func (m *Metrics) SetCandidates(n int) {
	m.candidates.Set(float64(n))
}

// SetSchema sets the schema gauges from store counts.
func (m *Metrics) SetSchema(c schema.Counts) {
	m.schemaTypes.WithLabelValues("entity").Set(float64(c.Entities))
	m.schemaTypes.WithLabelValues("relationship").Set(float64(c.Relationships))
	m.discovered.WithLabelValues("entity").Set(float64(c.DiscoveredEntities))
	m.discovered.WithLabelValues("relationship").Set(float64(c.DiscoveredRelationships))
}

// WriteTextfile writes every collector to path for the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
