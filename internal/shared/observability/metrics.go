package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Command outcomes recorded by CommandsTotal.
const (
	OutcomeSuccess   = "success"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

// Metrics definitions
var (
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nsresolver_commands_total",
		Help: "Total number of resolver commands by command and outcome.",
	}, []string{"command", "outcome"})

	CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nsresolver_command_seconds",
		Help:    "Time spent executing a resolver command.",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})

	CandidatesFound = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nsresolver_namespace_candidates",
		Help:    "Number of candidate FQCNs produced per namespace search.",
		Buckets: []float64{1, 2, 3, 5, 8, 13},
	})

	FilesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nsresolver_files_scanned_total",
		Help: "Total number of candidate PHP files opened for namespace scanning.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nsresolver_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatchSortsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nsresolver_watch_sorts_throttled_total",
		Help: "Total number of watch-mode sorts skipped by the per-file rate limiter.",
	})
)
