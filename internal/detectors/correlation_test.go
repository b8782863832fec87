package detectors

import (
	"math"
	"strings"
	"testing"
)

func TestCorrelationDetectorStrongPositive(t *testing.T) {
	det := NewCorrelationDetector(0.7)

	data := map[string][]float64{
		"utilization":   {60, 65, 70, 75, 80},
		"charged_hours": {120, 130, 140, 150, 160},
	}
	results, err := det.Detect(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 correlation, got %d", len(results))
	}

	c := results[0]
	if c.Strength != "strong positive" {
		t.Fatalf("expected strong positive, got %q", c.Strength)
	}
	if math.Abs(c.Correlation-1.0) > 1e-9 {
		t.Fatalf("expected coefficient 1.0, got %f", c.Correlation)
	}
	if math.Abs(c.Score-10.0) > 1e-9 {
		t.Fatalf("expected score 10, got %f", c.Score)
	}
	if c.Metrics[0] != "charged_hours" || c.Metrics[1] != "utilization" {
		t.Fatalf("expected sorted metric pair, got %v", c.Metrics)
	}
}

func TestCorrelationDetectorStrongNegative(t *testing.T) {
	det := NewCorrelationDetector(0.7)

	data := map[string][]float64{
		"utilization":    {80, 75, 70, 65, 60},
		"capacity_hours": {160, 165, 170, 175, 180},
	}
	results, err := det.Detect(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 correlation, got %d", len(results))
	}
	if results[0].Strength != "strong negative" {
		t.Fatalf("expected strong negative, got %q", results[0].Strength)
	}
	if results[0].Correlation >= 0 {
		t.Fatalf("expected negative coefficient, got %f", results[0].Correlation)
	}
}

func TestCorrelationDetectorWeakPairSkipped(t *testing.T) {
	det := NewCorrelationDetector(0.7)

	data := map[string][]float64{
		"utilization":   {60, 80, 55, 78, 62},
		"charged_hours": {150, 140, 155, 138, 160},
		"other":         {5, 50, 8, 47, 4},
	}
	results, err := det.Detect(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range results {
		if math.Abs(c.Correlation) < 0.7 {
			t.Fatalf("weak pair %v leaked through: r=%f", c.Metrics, c.Correlation)
		}
	}
}

func TestCorrelationDetectorConstantSeriesSkipped(t *testing.T) {
	det := NewCorrelationDetector(0.7)

	data := map[string][]float64{
		"utilization":    {60, 65, 70, 75},
		"capacity_hours": {160, 160, 160, 160},
	}
	results, err := det.Detect(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected constant series to be skipped, got %v", results)
	}
}

func TestCorrelationDetectorLengthMismatch(t *testing.T) {
	det := NewCorrelationDetector(0.7)

	data := map[string][]float64{
		"utilization":   {60, 65, 70},
		"charged_hours": {120, 130},
	}
	_, err := det.Detect(data)
	if err == nil {
		t.Fatalf("expected error for unequal series lengths")
	}
	if !strings.Contains(err.Error(), "same number of values") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCorrelationDetectorDegenerateInputs(t *testing.T) {
	det := NewCorrelationDetector(0.7)

	if results, err := det.Detect(nil); err != nil || len(results) != 0 {
		t.Fatalf("expected empty result for nil input, got %v, %v", results, err)
	}

	single := map[string][]float64{"utilization": {60}, "charged_hours": {120}}
	if results, err := det.Detect(single); err != nil || len(results) != 0 {
		t.Fatalf("expected empty result for single-point series, got %v, %v", results, err)
	}
}

func TestCorrelationDetectorDefaultThreshold(t *testing.T) {
	for _, bad := range []float64{0, -0.3, 1.5} {
		det := NewCorrelationDetector(bad)
		if det.threshold != DefaultCorrelationThreshold {
			t.Fatalf("threshold %v: expected default %f, got %f", bad, DefaultCorrelationThreshold, det.threshold)
		}
	}
}
