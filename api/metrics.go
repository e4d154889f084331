package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Engine Metrics ─────────────────────────────────────────────────────────

// ReportsComputed counts reconciled employee reports by profile.
var ReportsComputed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "utilization",
	Subsystem: "engine",
	Name:      "reports_computed_total",
	Help:      "Total employee reports reconciled.",
}, []string{"profile"})

// RowsRejected counts source rows dropped during normalization, by table.
var RowsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "utilization",
	Subsystem: "engine",
	Name:      "rows_rejected_total",
	Help:      "Total source rows rejected by the normalizers.",
}, []string{"table"})

// ComputeDuration tracks how long preparing a dataset and reconciling takes.
var ComputeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "utilization",
	Subsystem: "engine",
	Name:      "compute_duration_seconds",
	Help:      "Time spent normalizing tables and reconciling reports.",
	Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
}, []string{"operation"})

// ─── Import Metrics ─────────────────────────────────────────────────────────

// TablesImported counts successful table uploads.
var TablesImported = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "utilization",
	Subsystem: "store",
	Name:      "tables_imported_total",
	Help:      "Total table uploads stored as import runs.",
}, []string{"table"})

// RowsImported counts rows stored by uploads.
var RowsImported = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "utilization",
	Subsystem: "store",
	Name:      "rows_imported_total",
	Help:      "Total rows stored by table uploads.",
}, []string{"table"})
