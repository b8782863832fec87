package models

import (
	"math"
	"strings"
	"testing"
	"time"
)

func seriesTimestamps(n int) []time.Time {
	origin := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = origin.AddDate(0, 0, i)
	}
	return out
}

func TestNewMetricSeries(t *testing.T) {
	timestamps := seriesTimestamps(3)
	series, err := NewMetricSeries(MetricUtilization, timestamps, []float64{80, 82, 78})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := series.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	values := series.Values()
	if len(values) != 3 || values[1] != 82 {
		t.Fatalf("unexpected values: %v", values)
	}
	back := series.Timestamps()
	if len(back) != 3 || !back[2].Equal(timestamps[2]) {
		t.Fatalf("unexpected timestamps: %v", back)
	}
}

func TestNewMetricSeriesLengthMismatch(t *testing.T) {
	_, err := NewMetricSeries(MetricUtilization, seriesTimestamps(3), []float64{80, 82})
	if err == nil {
		t.Fatalf("expected error for mismatched lengths")
	}
	if !strings.Contains(err.Error(), "same length") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMetricSeriesValidateRejectsNonFinite(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		series, err := NewMetricSeries(MetricUtilization, seriesTimestamps(3), []float64{80, bad, 78})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		err = series.Validate()
		if err == nil {
			t.Fatalf("expected validation error for value %v", bad)
		}
		if !strings.Contains(err.Error(), "non-finite value at index 1") {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestMetricSeriesValidateRejectsUnorderedTimestamps(t *testing.T) {
	timestamps := seriesTimestamps(3)
	timestamps[1], timestamps[2] = timestamps[2], timestamps[1]

	series, err := NewMetricSeries(MetricUtilization, timestamps, []float64{80, 82, 78})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := series.Validate(); err == nil || !strings.Contains(err.Error(), "chronological order") {
		t.Fatalf("unexpected error: %v", err)
	}
}
