package detectors

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/resourcestack/utilization-insight/internal/models"
)

// CorrelationDetector scans metric pairs for strong Pearson correlation.
type CorrelationDetector struct {
	threshold float64
}

// NewCorrelationDetector creates a correlation detector with the given
// coefficient magnitude cutoff. Out-of-range thresholds fall back to the default.
func NewCorrelationDetector(threshold float64) *CorrelationDetector {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultCorrelationThreshold
	}
	return &CorrelationDetector{threshold: threshold}
}

// Detect computes the Pearson coefficient for every unordered metric pair.
// Names are iterated in sorted order so repeated runs over identical input
// produce identical output ordering. Unequal series lengths are a
// data-integrity error. Pairs whose coefficient is undefined (constant series)
// are skipped.
func (d *CorrelationDetector) Detect(metricData map[string][]float64) ([]models.CorrelationResult, error) {
	if len(metricData) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(metricData))
	for name := range metricData {
		names = append(names, name)
	}
	sort.Strings(names)

	length := len(metricData[names[0]])
	for _, name := range names[1:] {
		if len(metricData[name]) != length {
			return nil, fmt.Errorf("all metrics must have the same number of values: %q has %d, %q has %d",
				names[0], length, name, len(metricData[name]))
		}
	}
	if length < 2 {
		return nil, nil
	}

	var results []models.CorrelationResult
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			r := stat.Correlation(metricData[names[i]], metricData[names[j]], nil)
			if math.IsNaN(r) || math.Abs(r) < d.threshold {
				continue
			}

			strength := "strong negative"
			if r > 0 {
				strength = "strong positive"
			}
			results = append(results, models.CorrelationResult{
				Metrics:     [2]string{names[i], names[j]},
				Correlation: r,
				Strength:    strength,
				Score:       math.Abs(r) * 10,
			})
		}
	}
	return results, nil
}
