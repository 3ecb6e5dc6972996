// Package metrics records ledger build results as Prometheus metrics.
//
// shipledger runs as a short-lived command, so nothing is served over HTTP:
// the registry is written to a node_exporter textfile after each build.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/shipledger/internal/engine"
)

const namespace = "shipledger"

// Metrics holds the build metrics and their private registry.
type Metrics struct {
	LastBuildResult   *prometheus.GaugeVec
	BuildDuration     prometheus.Histogram
	EntriesTotal      prometheus.Gauge
	MatchedTotal      *prometheus.GaugeVec
	EntriesWritten    *prometheus.GaugeVec
	SourceRecords     *prometheus.GaugeVec
	LastSuccessSecond prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a Metrics with every collector registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		LastBuildResult: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_build_result",
				Help:      "Result of the last build: 1 for the result it ended with",
			},
			[]string{"result"}, // "completed", "STORE_NOT_FOUND", "RUNTIME_FAILURE"
		),
		BuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "build_duration_seconds",
				Help:      "Duration of completed builds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),
		EntriesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ledger_entries",
				Help:      "Ledger rows after the last completed build",
			},
		),
		MatchedTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ledger_matched_entries",
				Help:      "Ledger rows carrying a match, by source",
			},
			[]string{"source"}, // "operation", "departure"
		),
		EntriesWritten: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "build_entries_written",
				Help:      "Rows written by the last completed build",
			},
			[]string{"kind"}, // "new", "rematched"
		),
		SourceRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "source_records",
				Help:      "Source records read by the last completed build",
			},
			[]string{"source"}, // "transactions", "operation_logs", "departures"
		),
		LastSuccessSecond: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last completed build",
			},
		),
	}

	m.registry.MustRegister(
		m.LastBuildResult,
		m.BuildDuration,
		m.EntriesTotal,
		m.MatchedTotal,
		m.EntriesWritten,
		m.SourceRecords,
		m.LastSuccessSecond,
	)
	return m
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCompleted records a completed build finishing at unixSeconds.
func (m *Metrics) ObserveCompleted(s engine.Summary, unixSeconds float64) {
	m.setResult("completed")
	m.BuildDuration.Observe(s.Duration.Seconds())
	m.EntriesTotal.Set(float64(s.TotalEntries))
	m.MatchedTotal.WithLabelValues("operation").Set(float64(s.MatchedOperationCount))
	m.MatchedTotal.WithLabelValues("departure").Set(float64(s.MatchedDepartureCount))
	m.EntriesWritten.WithLabelValues("new").Set(float64(s.NewEntries))
	m.EntriesWritten.WithLabelValues("rematched").Set(float64(s.RematchedEntries))
	m.SourceRecords.WithLabelValues("transactions").Set(float64(s.TransactionCount))
	m.SourceRecords.WithLabelValues("operation_logs").Set(float64(s.OperationLogCount))
	m.SourceRecords.WithLabelValues("departures").Set(float64(s.DepartureCount))
	m.LastSuccessSecond.Set(unixSeconds)
}

// ObserveFailed records a failed build.
func (m *Metrics) ObserveFailed(kind engine.FailureKind) {
	m.setResult(string(kind))
}

// setResult leaves exactly one result series, set to 1.
func (m *Metrics) setResult(result string) {
	m.LastBuildResult.Reset()
	m.LastBuildResult.WithLabelValues(result).Set(1)
}

// WriteTextfile writes every metric to path in the Prometheus text format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
