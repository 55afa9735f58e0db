package service

import "github.com/prometheus/client_golang/prometheus"

var (
	generateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "colorizerd",
			Subsystem: "model",
			Name:      "generate_total",
			Help:      "Generate requests by variant and outcome",
		},
		[]string{"variant", "outcome"},
	)

	generateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "colorizerd",
			Subsystem: "model",
			Name:      "generate_duration_seconds",
			Help:      "Duration of successful generations, including queueing",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"variant"},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "colorizerd",
			Subsystem: "model",
			Name:      "queue_depth",
			Help:      "Admitted requests waiting for or holding the model",
		},
	)
)

func init() {
	prometheus.MustRegister(generateTotal, generateDuration, queueDepth)
}

// Outcome labels for generateTotal.
const (
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeBusy     = "busy"
	outcomeCanceled = "canceled"
	outcomeError    = "error"
)
