package detectors

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/resourcestack/utilization-insight/internal/models"
)

// Default detection thresholds. Configured values are validated at config
// load time; the constructors below only guard direct construction, falling
// back to these defaults on out-of-range input.
const (
	DefaultZScoreThreshold      = 2.0
	DefaultTrendThreshold       = 0.1
	DefaultCorrelationThreshold = 0.7
)

// StatisticalDetector flags current readings whose z-score against the
// historical distribution exceeds the configured magnitude.
type StatisticalDetector struct {
	threshold float64
}

// NewStatisticalDetector creates a z-score deviation detector. Non-positive
// thresholds fall back to the default.
func NewStatisticalDetector(zThreshold float64) *StatisticalDetector {
	if zThreshold <= 0 {
		zThreshold = DefaultZScoreThreshold
	}
	return &StatisticalDetector{threshold: zThreshold}
}

// Detect tests the current value against the mean and population standard
// deviation of the history. Degenerate inputs (empty or constant history)
// yield a not-detected result rather than an error.
func (d *StatisticalDetector) Detect(current float64, historical []float64) models.DeviationResult {
	if len(historical) == 0 {
		return models.DeviationResult{Reason: "insufficient historical data"}
	}

	mean, _ := stats.Mean(historical)
	std, _ := stats.StandardDeviationPopulation(historical)
	if std == 0 {
		return models.DeviationResult{Mean: mean, Reason: "no variation in historical data"}
	}

	z := (current - mean) / std
	detected := math.Abs(z) > d.threshold

	// Rescale the threshold crossing onto a 0-10 severity scale so scores stay
	// comparable across detectors and threshold settings.
	score := math.Min(10.0, math.Abs(z)*(10.0/d.threshold))

	reason := fmt.Sprintf("z-score %.2f within threshold %.2f", z, d.threshold)
	if detected {
		reason = fmt.Sprintf("z-score %.2f exceeds threshold %.2f", z, d.threshold)
	}

	return models.DeviationResult{
		Detected: detected,
		ZScore:   z,
		Score:    score,
		Mean:     mean,
		Std:      std,
		Reason:   reason,
	}
}
