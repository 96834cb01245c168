package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockwatch_events_enqueued_total",
		Help: "Total number of events placed on the processing queue.",
	})

	EventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockwatch_events_processed_total",
		Help: "Total number of events fully processed by the engine.",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockwatch_events_dropped_total",
		Help: "Total number of events rejected due to a full queue.",
	})

	AlertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockwatch_alerts_raised_total",
		Help: "Total number of misuse alerts raised, labelled by rule and severity.",
	}, []string{"rule_id", "severity"})

	DetectorFaults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockwatch_detector_faults_total",
		Help: "Total number of detector faults skipped by the processor, labelled by rule.",
	}, []string{"rule_id"})

	AlertsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockwatch_alerts_delivered_total",
		Help: "Total number of alert deliveries, labelled by sink and status.",
	}, []string{"sink", "status"})

	EventProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stockwatch_event_processing_duration_ms",
		Help:    "Per-event processing latency in milliseconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockwatch_queue_utilization_ratio",
		Help: "Current event queue utilization (0–1).",
	})
)
