package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/resourcestack/utilization-insight/internal/detectors"
	"github.com/resourcestack/utilization-insight/internal/models"
)

// Target-assessment statuses.
const (
	TargetMet                = "met"
	TargetSlightlyBelow      = "slightly below"
	TargetSignificantlyBelow = "significantly below"
)

// Utilization below target by more than this many percentage points is a
// significant shortfall.
const significantTargetShortfall = 5.0

// Thresholds collects the detection and severity cutoffs the analyzer is
// built with. Zero values fall back to the component defaults.
type Thresholds struct {
	Critical    float64
	Warning     float64
	ZScore      float64
	Trend       float64
	Correlation float64
}

// Analyzer orchestrates the detectors over one resource's metrics and folds
// their findings into a single result. It is stateless beyond its thresholds
// and safe for concurrent use.
type Analyzer struct {
	statistical *detectors.StatisticalDetector
	trend       *detectors.TrendDetector
	correlation *detectors.CorrelationDetector
	levels      *AlertLevelResolver

	nowFn func() time.Time
}

// NewAnalyzer builds an analyzer with the given thresholds.
func NewAnalyzer(t Thresholds) *Analyzer {
	return &Analyzer{
		statistical: detectors.NewStatisticalDetector(t.ZScore),
		trend:       detectors.NewTrendDetector(t.Trend),
		correlation: detectors.NewCorrelationDetector(t.Correlation),
		levels:      NewAlertLevelResolver(t.Critical, t.Warning),
		nowFn:       time.Now,
	}
}

// Analyze runs deviation, trend, and correlation detection for one resource.
//
// Request-level problems (missing resource ID, missing required metrics, no
// usable history) come back as a structured result with Status "error". The
// error return is reserved for data-integrity violations, such as
// non-chronological timestamps or non-finite sample values.
//
// historical maps metric name to its past values; timestamps carries the
// shared sample times for those values. The current snapshot reading is
// appended to each series before trend fitting so the newest point
// participates in the fit.
func (a *Analyzer) Analyze(resourceID string, current models.MetricSnapshot, historical map[string][]float64, timestamps []time.Time) (models.AnalysisResult, error) {
	now := a.nowFn()
	fail := func(msg string) models.AnalysisResult {
		return models.AnalysisResult{
			Status:     models.StatusError,
			Message:    msg,
			ResourceID: resourceID,
			AnalyzedAt: now,
		}
	}

	if resourceID == "" {
		return fail("Missing required metrics or resource ID"), nil
	}

	var missing []string
	for _, name := range models.RequiredMetrics() {
		if _, ok := current.Value(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fail("Missing required metrics or resource ID: " + strings.Join(missing, ", ")), nil
	}

	missing = missing[:0]
	for _, name := range models.RequiredMetrics() {
		if _, ok := historical[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fail("Missing required metrics: " + strings.Join(missing, ", ")), nil
	}

	empty := true
	for _, name := range models.RequiredMetrics() {
		if len(historical[name]) > 0 {
			empty = false
			break
		}
	}
	if empty {
		return fail("insufficient historical data for analysis"), nil
	}

	analyses := make(map[string]models.MetricAnalysis)
	var maxScore float64
	for _, name := range models.RequiredMetrics() {
		history := historical[name]
		// Two past points is the minimum for a meaningful distribution.
		if len(history) < 2 {
			continue
		}
		currentValue, _ := current.Value(name)

		stat := a.statistical.Detect(currentValue, history)

		values := append(append(make([]float64, 0, len(history)+1), history...), currentValue)
		times := append(append(make([]time.Time, 0, len(timestamps)+1), timestamps...), now)
		series, err := models.NewMetricSeries(name, times, values)
		if err != nil {
			return models.AnalysisResult{}, err
		}
		if err := series.Validate(); err != nil {
			return models.AnalysisResult{}, err
		}

		trend, err := a.trend.Detect(series.Values(), series.Timestamps())
		if err != nil {
			return models.AnalysisResult{}, fmt.Errorf("trend detection for %s: %w", name, err)
		}

		analyses[name] = models.MetricAnalysis{
			Statistical: stat,
			Trend:       trend,
			AlertLevel:  a.levels.Resolve(stat, trend),
		}
		maxScore = math.Max(maxScore, math.Max(stat.Score, trend.Score))
	}

	var correlations []models.CorrelationResult
	if len(timestamps) >= 5 {
		data := make(map[string][]float64, len(analyses))
		for _, name := range models.RequiredMetrics() {
			if len(historical[name]) != len(timestamps) {
				continue
			}
			v, _ := current.Value(name)
			data[name] = append(append(make([]float64, 0, len(timestamps)+1), historical[name]...), v)
		}
		var err error
		correlations, err = a.correlation.Detect(data)
		if err != nil {
			return models.AnalysisResult{}, fmt.Errorf("correlation scan: %w", err)
		}
	}

	return models.AnalysisResult{
		Status:           models.StatusSuccess,
		ResourceID:       resourceID,
		MetricAnalyses:   analyses,
		Correlations:     correlations,
		AlertLevel:       a.levels.ResolveResource(maxScore),
		TargetAssessment: assessTarget(current),
		AnalyzedAt:       now,
	}, nil
}

// assessTarget compares current utilization against the configured target.
// The assessment is informational and never feeds alert levels.
func assessTarget(current models.MetricSnapshot) *models.TargetAssessment {
	if current.TargetUtilization == nil {
		return nil
	}
	target := *current.TargetUtilization
	deviation := current.Utilization - target

	status := TargetMet
	switch {
	case deviation >= 0:
	case math.Abs(deviation) <= significantTargetShortfall:
		status = TargetSlightlyBelow
	default:
		status = TargetSignificantlyBelow
	}

	return &models.TargetAssessment{Target: target, Deviation: deviation, Status: status}
}
