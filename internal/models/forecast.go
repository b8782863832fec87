package models

// Forecast reliability tiers derived from the regression fit quality.
const (
	ReliabilityHigh   = "high"
	ReliabilityMedium = "medium"
	ReliabilityLow    = "low"
)

// Trend significance labels for forecasts.
const (
	TrendSignificant    = "significant"
	TrendNotSignificant = "not significant"
)

// ForecastPoint is the projected next-period value with its confidence band.
// Bounds are clamped to the valid 0-100 utilization range.
type ForecastPoint struct {
	Value              float64 `json:"value"`
	ConfidenceInterval float64 `json:"confidence_interval"`
	LowerBound         float64 `json:"lower_bound"`
	UpperBound         float64 `json:"upper_bound"`
}

// ForecastReliability labels how much the projection can be trusted.
type ForecastReliability struct {
	Level    string  `json:"level"`
	RSquared float64 `json:"r_squared"`
	StdError float64 `json:"std_error"`
}

// ForecastTrend summarises the fitted slope behind the projection.
type ForecastTrend struct {
	Slope        float64 `json:"slope"`
	Direction    string  `json:"direction"`
	Significance string  `json:"significance"`
}

// ForecastResult is the short-horizon linear projection for one resource.
type ForecastResult struct {
	Status               string              `json:"status"`
	Error                string              `json:"error,omitempty"`
	ResourceID           string              `json:"resource_id"`
	Forecast             ForecastPoint       `json:"forecast"`
	Reliability          ForecastReliability `json:"reliability"`
	Trend                ForecastTrend       `json:"trend"`
	HistoricalDataPoints int                 `json:"historical_data_points"`
}
