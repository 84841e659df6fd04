package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AlertsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soar_alerts_enqueued_total",
		Help: "Total number of alerts placed on the processing queue.",
	})

	AlertsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soar_alerts_processed_total",
		Help: "Total number of alerts fully evaluated by the engine.",
	})

	AlertsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soar_alerts_dropped_total",
		Help: "Total number of alerts rejected due to a full queue.",
	})

	RulesMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "soar_rules_matched_total",
		Help: "Total number of rule matches, labelled by rule name.",
	}, []string{"rule"})

	ActionsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "soar_actions_executed_total",
		Help: "Total number of response actions dispatched, labelled by action and status.",
	}, []string{"action", "status"})

	DryRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "soar_dryruns_total",
		Help: "Total number of playbook dry-runs, labelled by branch taken.",
	}, []string{"branch"})

	PlaybookReloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soar_playbook_reloads_total",
		Help: "Total number of playbook reloads from disk.",
	})

	AlertProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "soar_alert_processing_duration_ms",
		Help:    "End-to-end alert evaluation latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "soar_queue_utilization_ratio",
		Help: "Current alert queue utilization (0-1).",
	})
)
