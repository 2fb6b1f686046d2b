package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ConversionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loadscript_conversion_seconds",
		Help:    "Time spent converting one test document.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	PassDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loadscript_pass_seconds",
		Help:    "Time spent running the pass pipeline over one test document.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pipeline"})

	DocumentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loadscript_documents_total",
		Help: "Total number of test documents processed, by outcome.",
	}, []string{"outcome"})

	IssuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loadscript_issues_total",
		Help: "Total number of analysis issues reported, by kind.",
	}, []string{"kind"})

	RewritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loadscript_rewrites_total",
		Help: "Total number of tree edits applied by the passes.",
	})

	DeclarationsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loadscript_declarations",
		Help: "Number of declarations in the most recently converted document.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loadscript_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	HistoryWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loadscript_history_write_errors_total",
		Help: "Total number of failed run history writes.",
	})
)
