package engine

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/resourcestack/utilization-insight/internal/models"
)

// Correlations scoring at or above this emit an informational alert.
const correlationAlertScore = 7.0

// AlertGenerator turns an analysis result into prioritized alerts. Alerts are
// rebuilt on every call and never persisted.
type AlertGenerator struct{}

// NewAlertGenerator creates an alert generator.
func NewAlertGenerator() *AlertGenerator {
	return &AlertGenerator{}
}

// Generate produces one alert per CRITICAL or WARNING metric and one INFO
// alert per strong correlation. Metrics are visited in sorted-name order and
// the final list is stably sorted by severity, so identical analyses yield
// identical alert lists. Failed analyses yield no alerts.
func (g *AlertGenerator) Generate(analysis models.AnalysisResult) []models.Alert {
	if analysis.Status != models.StatusSuccess {
		return nil
	}

	names := make([]string, 0, len(analysis.MetricAnalyses))
	for name := range analysis.MetricAnalyses {
		names = append(names, name)
	}
	sort.Strings(names)

	var alerts []models.Alert
	for _, name := range names {
		ma := analysis.MetricAnalyses[name]
		if ma.AlertLevel != models.AlertCritical && ma.AlertLevel != models.AlertWarning {
			continue
		}
		alerts = append(alerts, models.Alert{
			ID:      uuid.NewString(),
			Level:   ma.AlertLevel,
			Metric:  name,
			Message: fmt.Sprintf("[%s] %s: %s", ma.AlertLevel, name, ma.Statistical.Reason),
			Details: map[string]any{
				"z_score":         ma.Statistical.ZScore,
				"score":           ma.Statistical.Score,
				"trend_detected":  ma.Trend.Detected,
				"trend_direction": ma.Trend.Direction,
			},
		})
	}

	for _, c := range analysis.Correlations {
		if c.Score < correlationAlertScore {
			continue
		}
		alerts = append(alerts, models.Alert{
			ID:      uuid.NewString(),
			Level:   models.AlertInfo,
			Metric:  c.Metrics[0] + "," + c.Metrics[1],
			Message: fmt.Sprintf("Strong correlation between %s and %s (r=%.2f)", c.Metrics[0], c.Metrics[1], c.Correlation),
			Details: map[string]any{
				"correlation": c.Correlation,
				"strength":    c.Strength,
			},
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return levelRank(alerts[i].Level) < levelRank(alerts[j].Level)
	})
	return alerts
}

func levelRank(level models.AlertLevel) int {
	switch level {
	case models.AlertCritical:
		return 0
	case models.AlertWarning:
		return 1
	case models.AlertInfo:
		return 2
	}
	return 3
}
