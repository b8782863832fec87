package models

import "time"

// AlertLevel is the severity tier attached to a metric or correlation finding.
type AlertLevel string

const (
	AlertCritical AlertLevel = "CRITICAL"
	AlertWarning  AlertLevel = "WARNING"
	AlertInfo     AlertLevel = "INFO"
	// AlertNone marks a metric whose scores stayed below the warning threshold.
	AlertNone AlertLevel = ""
)

// Analysis outcome statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Resource-level alert states derived from the maximum per-metric score.
const (
	ResourceCritical = "critical"
	ResourceWarning  = "warning"
	ResourceNormal   = "normal"
)

// DeviationResult is the outcome of the z-score deviation test for one metric.
type DeviationResult struct {
	Detected bool    `json:"deviation_detected"`
	ZScore   float64 `json:"z_score"`
	Score    float64 `json:"score"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Reason   string  `json:"reason"`
}

// TrendResult is the outcome of the linear-regression trend test for one metric.
type TrendResult struct {
	Detected  bool    `json:"trend_detected"`
	Slope     float64 `json:"slope"`
	RSquared  float64 `json:"r_squared"`
	PValue    float64 `json:"p_value"`
	Score     float64 `json:"score"`
	Direction string  `json:"direction"`
	Reason    string  `json:"reason"`
}

// CorrelationResult reports a strong pairwise correlation between two metrics.
type CorrelationResult struct {
	Metrics     [2]string `json:"metrics"`
	Correlation float64   `json:"correlation"`
	Strength    string    `json:"strength"`
	Score       float64   `json:"score"`
}

// MetricAnalysis groups the detector outcomes for a single metric.
type MetricAnalysis struct {
	Statistical DeviationResult `json:"statistical"`
	Trend       TrendResult     `json:"trend"`
	AlertLevel  AlertLevel      `json:"alert_level,omitempty"`
}

// TargetAssessment compares current utilization against the configured target.
type TargetAssessment struct {
	Target    float64 `json:"target"`
	Deviation float64 `json:"deviation"`
	Status    string  `json:"status"`
}

// AnalysisResult is the per-resource aggregate of all detector runs.
type AnalysisResult struct {
	Status           string                    `json:"status"`
	Message          string                    `json:"message,omitempty"`
	ResourceID       string                    `json:"resource_id"`
	MetricAnalyses   map[string]MetricAnalysis `json:"metric_analyses,omitempty"`
	Correlations     []CorrelationResult       `json:"correlations,omitempty"`
	AlertLevel       string                    `json:"alert_level,omitempty"`
	TargetAssessment *TargetAssessment         `json:"target_assessment,omitempty"`
	AnalyzedAt       time.Time                 `json:"analyzed_at"`
}

// Alert is one prioritized finding derived from an analysis result. Alerts are
// rebuilt on every call and never persisted by the engine.
type Alert struct {
	ID      string         `json:"id"`
	Level   AlertLevel     `json:"level"`
	Metric  string         `json:"metric"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
