package engine

import (
	"math"

	"github.com/resourcestack/utilization-insight/internal/models"
)

// Default severity thresholds on the 0-10 detector score scale.
const (
	DefaultCriticalThreshold = 10.0
	DefaultWarningThreshold  = 5.0
)

// AlertLevelResolver maps detector scores onto severity tiers. Thresholds are
// validated at configuration load time, never here.
type AlertLevelResolver struct {
	critical float64
	warning  float64
}

// NewAlertLevelResolver creates a resolver. Non-positive thresholds fall back
// to the defaults.
func NewAlertLevelResolver(critical, warning float64) *AlertLevelResolver {
	if critical <= 0 {
		critical = DefaultCriticalThreshold
	}
	if warning <= 0 {
		warning = DefaultWarningThreshold
	}
	return &AlertLevelResolver{critical: critical, warning: warning}
}

// Resolve returns the severity tier for one metric from the larger of its
// statistical and trend scores.
func (r *AlertLevelResolver) Resolve(statistical models.DeviationResult, trend models.TrendResult) models.AlertLevel {
	score := math.Max(statistical.Score, trend.Score)
	switch {
	case score >= r.critical:
		return models.AlertCritical
	case score >= r.warning:
		return models.AlertWarning
	}
	return models.AlertNone
}

// ResolveResource maps the maximum per-metric score onto the resource-level
// alert state.
func (r *AlertLevelResolver) ResolveResource(maxScore float64) string {
	switch {
	case maxScore >= r.critical:
		return models.ResourceCritical
	case maxScore >= r.warning:
		return models.ResourceWarning
	}
	return models.ResourceNormal
}
