package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	tasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchcore",
			Name:      "propagation_tasks_total",
			Help:      "Propagation tasks processed, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchcore",
			Name:      "propagation_task_duration_seconds",
			Help:      "Propagation task handling duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"kind"},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "searchcore",
			Name:      "propagation_queue_depth",
			Help:      "Tasks currently waiting in the propagation queue",
		},
	)

	indexedDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "searchcore",
			Name:      "indexed_documents",
			Help:      "Documents currently held in the search index",
		},
	)
)

// RegisterTaskMetrics registers propagation metrics explicitly (no init()).
func RegisterTaskMetrics() {
	prometheus.MustRegister(tasksTotal)
	prometheus.MustRegister(taskDuration)
	prometheus.MustRegister(queueDepth)
	prometheus.MustRegister(indexedDocuments)
}

// ObserveTask records one handled task.
func ObserveTask(kind string, ok bool, took time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	tasksTotal.WithLabelValues(kind, outcome).Inc()
	taskDuration.WithLabelValues(kind).Observe(took.Seconds())
}

// SetQueueDepth updates the queue depth gauge.
func SetQueueDepth(n int64) {
	queueDepth.Set(float64(n))
}

// SetIndexedDocuments updates the indexed document count gauge.
func SetIndexedDocuments(n int) {
	indexedDocuments.Set(float64(n))
}
