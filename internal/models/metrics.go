package models

import (
	"fmt"
	"math"
	"time"
)

// Metric names every full analysis requires.
const (
	MetricUtilization       = "utilization"
	MetricChargedHours      = "charged_hours"
	MetricCapacityHours     = "capacity_hours"
	MetricTargetUtilization = "target_utilization"
)

// RequiredMetrics returns the metric names a full analysis needs, in a fixed order.
func RequiredMetrics() []string {
	return []string{MetricUtilization, MetricChargedHours, MetricCapacityHours, MetricTargetUtilization}
}

// MetricPoint is a single timestamped sample of a metric.
type MetricPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// MetricSeries holds the ordered samples of one named metric for one resource.
type MetricSeries struct {
	Name   string        `json:"name"`
	Points []MetricPoint `json:"points"`
}

// NewMetricSeries pairs aligned timestamp and value slices into a series.
// Mismatched lengths are a caller bug and return an error.
func NewMetricSeries(name string, timestamps []time.Time, values []float64) (MetricSeries, error) {
	if len(values) != len(timestamps) {
		return MetricSeries{}, fmt.Errorf("series %q: values and timestamps must have the same length: %d != %d",
			name, len(values), len(timestamps))
	}
	points := make([]MetricPoint, len(values))
	for i := range values {
		points[i] = MetricPoint{Timestamp: timestamps[i], Value: values[i]}
	}
	return MetricSeries{Name: name, Points: points}, nil
}

// Validate checks the series invariants: strictly increasing timestamps and
// finite sample values.
func (s MetricSeries) Validate() error {
	for i, p := range s.Points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return fmt.Errorf("series %q: non-finite value at index %d", s.Name, i)
		}
		if i > 0 && !p.Timestamp.After(s.Points[i-1].Timestamp) {
			return fmt.Errorf("series %q: timestamps must be in chronological order at index %d", s.Name, i)
		}
	}
	return nil
}

// Values returns the sample values in series order.
func (s MetricSeries) Values() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Value
	}
	return values
}

// Timestamps returns the sample timestamps in series order.
func (s MetricSeries) Timestamps() []time.Time {
	timestamps := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		timestamps[i] = p.Timestamp
	}
	return timestamps
}

// MetricSnapshot carries the current reading of the required metrics for one
// resource. TargetUtilization is nil when no target is configured, which stays
// distinguishable from a configured target of zero.
type MetricSnapshot struct {
	Utilization       float64  `json:"utilization"`
	ChargedHours      float64  `json:"charged_hours"`
	CapacityHours     float64  `json:"capacity_hours"`
	TargetUtilization *float64 `json:"target_utilization"`
}

// Value returns the snapshot reading for a required metric name. The second
// return is false when the metric is absent (an unset target).
func (s MetricSnapshot) Value(name string) (float64, bool) {
	switch name {
	case MetricUtilization:
		return s.Utilization, true
	case MetricChargedHours:
		return s.ChargedHours, true
	case MetricCapacityHours:
		return s.CapacityHours, true
	case MetricTargetUtilization:
		if s.TargetUtilization == nil {
			return 0, false
		}
		return *s.TargetUtilization, true
	}
	return 0, false
}
