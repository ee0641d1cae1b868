// Package metrics exposes Prometheus counters for table parsing and record
// materialization.
//
// # Basic Usage
//
//	metrics.TablesParsed.Inc()
//	metrics.CellDiagnostics.WithLabelValues(metrics.ReasonEnumParse).Inc()
//
//	timer := metrics.NewTimer()
//	loadAndStore(ctx, slot)
//	metrics.StageLatency.WithLabelValues("store", "json").Observe(timer.Stop().Seconds())
//
// All collectors are registered with the default Prometheus registry on
// package initialization.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Diagnostic reasons used as the "reason" label of CellDiagnostics.
const (
	ReasonEnumParse     = "enum_parse"
	ReasonUnknownField  = "unknown_field"
	ReasonUnsupported   = "unsupported_type"
	ReasonAssign        = "assign"
	ReasonDuplicateName = "duplicate_header"
)

var (
	// TablesParsed counts tables successfully parsed from text.
	TablesParsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "csvconf_tables_parsed_total",
			Help: "Total number of tables parsed",
		},
	)

	// MalformedTables counts inputs rejected for having too few rows.
	MalformedTables = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "csvconf_tables_malformed_total",
			Help: "Total number of inputs rejected as malformed tables",
		},
	)

	// RecordsMaterialized counts typed records produced from table rows.
	// Labels: mode (struct/column/dynamic)
	RecordsMaterialized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csvconf_records_materialized_total",
			Help: "Total number of records materialized",
		},
		[]string{"mode"},
	)

	// CellDiagnostics counts recovered per-cell or per-column problems.
	// Labels: reason
	CellDiagnostics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csvconf_cell_diagnostics_total",
			Help: "Total number of recovered cell diagnostics",
		},
		[]string{"reason"},
	)

	// ColumnsSkipped counts columns ignored during materialization.
	ColumnsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "csvconf_columns_skipped_total",
			Help: "Total number of table columns skipped",
		},
	)

	// StageLatency tracks pipeline stage durations in seconds.
	// Labels: stage (load/parse/materialize/store), backend
	StageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "csvconf_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"stage", "backend"},
	)
)

// Timer measures the elapsed time of an operation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the time elapsed since NewTimer. It may be called repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ObserveStage records the elapsed time of t for a pipeline stage.
func ObserveStage(stage, backend string, t *Timer) time.Duration {
	d := t.Stop()
	StageLatency.WithLabelValues(stage, backend).Observe(d.Seconds())
	return d
}
