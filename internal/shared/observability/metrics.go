package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "umlc_stage_seconds",
		Help:    "Time spent in one compiler stage (lex, parse, analyze).",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	CompilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "umlc_compiles_total",
		Help: "Total number of compiled sources, by validity.",
	}, []string{"valid"})

	DiagnosticsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "umlc_diagnostics_total",
		Help: "Total number of diagnostics reported by the parser.",
	})

	DiagramEntities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "umlc_diagram_entities",
		Help: "Number of entities in the most recently compiled diagram.",
	})

	DiagramRelationships = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "umlc_diagram_relationships",
		Help: "Number of relationships in the most recently compiled diagram.",
	})

	OutputsWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "umlc_outputs_written_total",
		Help: "Total number of rendered diagram files written, by format.",
	}, []string{"format"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "umlc_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RebuildsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "umlc_rebuilds_throttled_total",
		Help: "Total number of watch rebuilds delayed by the rebuild limiter.",
	})
)

// History writer metrics
var (
	HistoryQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "umlc_history_queue_depth",
		Help: "Compile runs waiting for the history writer.",
	})

	HistoryRunsSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "umlc_history_runs_saved_total",
		Help: "Total number of compile runs persisted to the history store.",
	})

	HistoryRunsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "umlc_history_runs_dropped_total",
		Help: "Total number of compile runs not persisted because the queue was full or the write failed.",
	})
)
