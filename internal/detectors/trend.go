package detectors

import (
	"fmt"
	"math"
	"time"

	"github.com/resourcestack/utilization-insight/internal/models"
	"github.com/resourcestack/utilization-insight/internal/utils"
)

// Trend directions reported by the detector.
const (
	DirectionIncreasing = "increasing"
	DirectionDecreasing = "decreasing"
)

// SlopeSignificanceLevel is the p-value cutoff applied by both trend detection
// and forecast trend labeling.
const SlopeSignificanceLevel = 0.05

// TrendDetector fits a least-squares line over a time-ordered series and flags
// trends that are simultaneously large, well-fit, and statistically significant.
type TrendDetector struct {
	threshold float64
}

// NewTrendDetector creates a trend detector with the given minimum slope
// magnitude (units per day). Non-positive thresholds fall back to the default.
func NewTrendDetector(slopeThreshold float64) *TrendDetector {
	if slopeThreshold <= 0 {
		slopeThreshold = DefaultTrendThreshold
	}
	return &TrendDetector{threshold: slopeThreshold}
}

// Detect regresses values against days elapsed since the first timestamp.
// Mismatched lengths and non-chronological timestamps are caller bugs and
// return an error; fewer than 3 points yields a not-detected result.
func (d *TrendDetector) Detect(values []float64, timestamps []time.Time) (models.TrendResult, error) {
	if len(values) != len(timestamps) {
		return models.TrendResult{}, fmt.Errorf("values and timestamps must have the same length: %d != %d", len(values), len(timestamps))
	}
	for i := 1; i < len(timestamps); i++ {
		if !timestamps[i].After(timestamps[i-1]) {
			return models.TrendResult{}, fmt.Errorf("timestamps must be in chronological order")
		}
	}

	if len(values) < 3 {
		return models.TrendResult{Reason: "insufficient data points for trend analysis"}, nil
	}

	fit := FitLine(utils.DaysSince(timestamps), values)

	// Weight slope magnitude by fit quality: a large but noisy slope scores
	// below a moderate, clean one.
	score := math.Min(10.0, math.Abs(fit.Slope)*100*fit.RSquared)

	detected := math.Abs(fit.Slope) > d.threshold &&
		fit.PValue < SlopeSignificanceLevel &&
		fit.RSquared > 0.6

	direction := DirectionDecreasing
	if fit.Slope > 0 {
		direction = DirectionIncreasing
	}

	reason := fmt.Sprintf("No significant trend detected (slope %.3f/day, p %.3f)", fit.Slope, fit.PValue)
	if detected {
		reason = fmt.Sprintf("Significant trend detected: %s (slope %.3f/day, r2 %.2f)", direction, fit.Slope, fit.RSquared)
	}

	return models.TrendResult{
		Detected:  detected,
		Slope:     fit.Slope,
		RSquared:  fit.RSquared,
		PValue:    fit.PValue,
		Score:     score,
		Direction: direction,
		Reason:    reason,
	}, nil
}
