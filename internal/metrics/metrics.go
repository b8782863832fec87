package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels analyses and forecasts that produced a result.
	OutcomeSuccess = "success"
	// OutcomeError labels failed analyses and forecasts (validation or dependency issues).
	OutcomeError = "error"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "utilization_insight",
			Name:      "analyses_total",
			Help:      "Total number of deviation analyses handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "utilization_insight",
			Name:      "analysis_seconds",
			Help:      "Deviation analysis latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 10},
		},
	)

	forecastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "utilization_insight",
			Name:      "forecasts_total",
			Help:      "Total number of forecast requests handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	alertsGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "utilization_insight",
			Name:      "alerts_generated_total",
			Help:      "Total number of alerts produced, partitioned by level.",
		},
		[]string{"level"},
	)
)

// Register attaches the insight collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		forecastsTotal,
		alertsGeneratedTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records an analysis duration and outcome label.
func ObserveAnalysis(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	analysesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

// ObserveForecast records a forecast outcome label.
func ObserveForecast(outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	forecastsTotal.WithLabelValues(label).Inc()
}

// ObserveAlerts records the levels of a generated alert batch.
func ObserveAlerts(levels []string) {
	for _, level := range levels {
		alertsGeneratedTotal.WithLabelValues(level).Inc()
	}
}
