package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/resourcestack/utilization-insight/internal/detectors"
	"github.com/resourcestack/utilization-insight/internal/models"
)

// DefaultForecastWindow is the minimum history length required when the
// request does not set one.
const DefaultForecastWindow = 3

// zCritical95 is the normal quantile behind the 95% confidence interval.
const zCritical95 = 1.96

// ForecastEngine projects the next-period utilization with a linear fit over
// the full history.
type ForecastEngine struct {
	trendThreshold float64
	defaultWindow  int
}

// NewForecastEngine builds a forecast engine. Non-positive arguments fall back
// to the defaults.
func NewForecastEngine(trendThreshold float64, defaultWindow int) *ForecastEngine {
	if trendThreshold <= 0 {
		trendThreshold = detectors.DefaultTrendThreshold
	}
	if defaultWindow <= 0 {
		defaultWindow = DefaultForecastWindow
	}
	return &ForecastEngine{trendThreshold: trendThreshold, defaultWindow: defaultWindow}
}

// Forecast fits an OLS line over the history indexed 0..n-1 and projects the
// value at index n. Bounds are clamped to the 0-100 utilization range.
//
// Mismatched value/timestamp lengths are a data-integrity error. Empty or
// too-short history comes back as a structured result with Status "error".
func (e *ForecastEngine) Forecast(resourceID string, values []float64, timestamps []time.Time, window int) (models.ForecastResult, error) {
	if len(values) != len(timestamps) {
		return models.ForecastResult{}, fmt.Errorf("values and timestamps must have the same length: %d != %d", len(values), len(timestamps))
	}
	if window <= 0 {
		window = e.defaultWindow
	}

	fail := func(msg string) models.ForecastResult {
		return models.ForecastResult{
			Status:               models.StatusError,
			Error:                msg,
			ResourceID:           resourceID,
			HistoricalDataPoints: len(values),
		}
	}
	if len(values) == 0 {
		return fail("No historical data available for forecasting"), nil
	}
	if len(values) < window {
		return fail(fmt.Sprintf("Insufficient data for forecasting: need at least %d points, got %d", window, len(values))), nil
	}

	x := make([]float64, len(values))
	for i := range x {
		x[i] = float64(i)
	}
	fit := detectors.FitLine(x, values)

	value := fit.Intercept + fit.Slope*float64(len(values))
	ci := zCritical95 * fit.StdErr

	reliability := models.ReliabilityLow
	switch {
	case fit.RSquared > 0.7:
		reliability = models.ReliabilityHigh
	case fit.RSquared > 0.5:
		reliability = models.ReliabilityMedium
	}

	direction := detectors.DirectionDecreasing
	if fit.Slope > 0 {
		direction = detectors.DirectionIncreasing
	}
	significance := models.TrendNotSignificant
	if math.Abs(fit.Slope) > e.trendThreshold && fit.PValue < detectors.SlopeSignificanceLevel {
		significance = models.TrendSignificant
	}

	return models.ForecastResult{
		Status:     models.StatusSuccess,
		ResourceID: resourceID,
		Forecast: models.ForecastPoint{
			Value:              value,
			ConfidenceInterval: ci,
			LowerBound:         math.Max(0, value-ci),
			UpperBound:         math.Min(100, value+ci),
		},
		Reliability: models.ForecastReliability{
			Level:    reliability,
			RSquared: fit.RSquared,
			StdError: fit.StdErr,
		},
		Trend: models.ForecastTrend{
			Slope:        fit.Slope,
			Direction:    direction,
			Significance: significance,
		},
		HistoricalDataPoints: len(values),
	}, nil
}
