package engine

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/resourcestack/utilization-insight/internal/models"
)

func testTimestamps(n int) []time.Time {
	origin := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = origin.AddDate(0, 0, i)
	}
	return out
}

func testSnapshot(utilization float64) models.MetricSnapshot {
	target := 85.0
	return models.MetricSnapshot{
		Utilization:       utilization,
		ChargedHours:      150,
		CapacityHours:     160,
		TargetUtilization: &target,
	}
}

func testHistory() map[string][]float64 {
	return map[string][]float64{
		models.MetricUtilization:       {80, 82, 78, 81, 79},
		models.MetricChargedHours:      {150, 152, 148, 151, 149},
		models.MetricCapacityHours:     {160, 160.5, 159.5, 160.2, 159.8},
		models.MetricTargetUtilization: {85, 85.1, 84.9, 85.05, 84.95},
	}
}

func newTestAnalyzer(now time.Time) *Analyzer {
	a := NewAnalyzer(Thresholds{Critical: 10, Warning: 5, ZScore: 2, Trend: 0.1, Correlation: 0.7})
	a.nowFn = func() time.Time { return now }
	return a
}

func TestAnalyzerCriticalDeviation(t *testing.T) {
	timestamps := testTimestamps(5)
	now := timestamps[4].AddDate(0, 0, 1)
	analyzer := newTestAnalyzer(now)

	result, err := analyzer.Analyze("res-1", testSnapshot(95), testHistory(), timestamps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != models.StatusSuccess {
		t.Fatalf("expected success, got %+v", result)
	}
	if !result.AnalyzedAt.Equal(now) {
		t.Fatalf("expected analyzed_at %v, got %v", now, result.AnalyzedAt)
	}

	util, ok := result.MetricAnalyses[models.MetricUtilization]
	if !ok {
		t.Fatalf("expected utilization analysis, got %v", result.MetricAnalyses)
	}
	if !util.Statistical.Detected {
		t.Fatalf("expected utilization deviation detected: %+v", util.Statistical)
	}
	if util.Statistical.Score != 10 {
		t.Fatalf("expected utilization score 10, got %f", util.Statistical.Score)
	}
	if util.AlertLevel != models.AlertCritical {
		t.Fatalf("expected CRITICAL utilization, got %q", util.AlertLevel)
	}
	if result.AlertLevel != models.ResourceCritical {
		t.Fatalf("expected critical resource level, got %q", result.AlertLevel)
	}

	if result.TargetAssessment == nil {
		t.Fatalf("expected target assessment")
	}
	if result.TargetAssessment.Status != TargetMet {
		t.Fatalf("expected target met (95 vs 85), got %q", result.TargetAssessment.Status)
	}
}

func TestAnalyzerNormalResource(t *testing.T) {
	timestamps := testTimestamps(5)
	analyzer := newTestAnalyzer(timestamps[4].AddDate(0, 0, 1))

	result, err := analyzer.Analyze("res-1", testSnapshot(81), testHistory(), timestamps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != models.StatusSuccess {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.AlertLevel != models.ResourceNormal {
		t.Fatalf("expected normal resource level, got %q", result.AlertLevel)
	}
	if len(result.MetricAnalyses) != 4 {
		t.Fatalf("expected analyses for all 4 metrics, got %d", len(result.MetricAnalyses))
	}
}

func TestAnalyzerMissingResourceID(t *testing.T) {
	timestamps := testTimestamps(5)
	analyzer := newTestAnalyzer(timestamps[4].AddDate(0, 0, 1))

	result, err := analyzer.Analyze("", testSnapshot(81), testHistory(), timestamps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != models.StatusError {
		t.Fatalf("expected error status, got %+v", result)
	}
	if !strings.Contains(result.Message, "Missing required metrics or resource ID") {
		t.Fatalf("unexpected message: %q", result.Message)
	}
}

func TestAnalyzerMissingTarget(t *testing.T) {
	timestamps := testTimestamps(5)
	analyzer := newTestAnalyzer(timestamps[4].AddDate(0, 0, 1))

	snapshot := testSnapshot(81)
	snapshot.TargetUtilization = nil

	result, err := analyzer.Analyze("res-1", snapshot, testHistory(), timestamps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != models.StatusError {
		t.Fatalf("expected error status for unset target, got %+v", result)
	}
	if !strings.Contains(result.Message, models.MetricTargetUtilization) {
		t.Fatalf("expected message to name the missing metric: %q", result.Message)
	}
}

func TestAnalyzerMissingHistoryMetric(t *testing.T) {
	timestamps := testTimestamps(5)
	analyzer := newTestAnalyzer(timestamps[4].AddDate(0, 0, 1))

	history := testHistory()
	delete(history, models.MetricChargedHours)

	result, err := analyzer.Analyze("res-1", testSnapshot(81), history, timestamps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != models.StatusError {
		t.Fatalf("expected error status, got %+v", result)
	}
	if !strings.Contains(result.Message, "Missing required metrics") || !strings.Contains(result.Message, models.MetricChargedHours) {
		t.Fatalf("unexpected message: %q", result.Message)
	}
}

func TestAnalyzerEmptyHistory(t *testing.T) {
	analyzer := newTestAnalyzer(time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC))

	history := map[string][]float64{
		models.MetricUtilization:       {},
		models.MetricChargedHours:      {},
		models.MetricCapacityHours:     {},
		models.MetricTargetUtilization: {},
	}
	result, err := analyzer.Analyze("res-1", testSnapshot(81), history, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != models.StatusError {
		t.Fatalf("expected error status, got %+v", result)
	}
	if !strings.Contains(result.Message, "insufficient historical data") {
		t.Fatalf("unexpected message: %q", result.Message)
	}
}

func TestAnalyzerSkipsShortSeries(t *testing.T) {
	timestamps := testTimestamps(5)
	analyzer := newTestAnalyzer(timestamps[4].AddDate(0, 0, 1))

	history := testHistory()
	history[models.MetricChargedHours] = []float64{150}

	result, err := analyzer.Analyze("res-1", testSnapshot(81), history, timestamps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != models.StatusSuccess {
		t.Fatalf("expected success, got %+v", result)
	}
	if _, ok := result.MetricAnalyses[models.MetricChargedHours]; ok {
		t.Fatalf("expected charged_hours to be skipped with a single point")
	}
	if len(result.MetricAnalyses) != 3 {
		t.Fatalf("expected 3 analyzed metrics, got %d", len(result.MetricAnalyses))
	}
}

func TestAnalyzerNonChronologicalTimestamps(t *testing.T) {
	timestamps := testTimestamps(5)
	timestamps[2], timestamps[3] = timestamps[3], timestamps[2]
	analyzer := newTestAnalyzer(timestamps[4].AddDate(0, 0, 1))

	_, err := analyzer.Analyze("res-1", testSnapshot(81), testHistory(), timestamps)
	if err == nil {
		t.Fatalf("expected integrity error for non-chronological timestamps")
	}
	if !strings.Contains(err.Error(), "chronological order") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAnalyzerRejectsNonFiniteHistory(t *testing.T) {
	timestamps := testTimestamps(5)
	analyzer := newTestAnalyzer(timestamps[4].AddDate(0, 0, 1))

	history := testHistory()
	history[models.MetricUtilization] = []float64{80, math.NaN(), 78, 81, 79}

	_, err := analyzer.Analyze("res-1", testSnapshot(81), history, timestamps)
	if err == nil {
		t.Fatalf("expected integrity error for NaN in history")
	}
	if !strings.Contains(err.Error(), "non-finite") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAnalyzerRejectsNonFiniteSnapshot(t *testing.T) {
	timestamps := testTimestamps(5)
	analyzer := newTestAnalyzer(timestamps[4].AddDate(0, 0, 1))

	snapshot := testSnapshot(math.Inf(1))

	_, err := analyzer.Analyze("res-1", snapshot, testHistory(), timestamps)
	if err == nil {
		t.Fatalf("expected integrity error for non-finite snapshot value")
	}
	if !strings.Contains(err.Error(), "non-finite") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAnalyzerCorrelationScan(t *testing.T) {
	timestamps := testTimestamps(5)
	analyzer := newTestAnalyzer(timestamps[4].AddDate(0, 0, 1))

	// charged_hours mirrors utilization exactly, so the pair must correlate.
	history := testHistory()
	history[models.MetricUtilization] = []float64{60, 65, 70, 75, 80}
	history[models.MetricChargedHours] = []float64{120, 130, 140, 150, 160}

	snapshot := testSnapshot(85)
	snapshot.ChargedHours = 170

	result, err := analyzer.Analyze("res-1", snapshot, history, timestamps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, c := range result.Correlations {
		if c.Metrics == [2]string{models.MetricChargedHours, models.MetricUtilization} {
			found = true
			if c.Strength != "strong positive" {
				t.Fatalf("expected strong positive, got %q", c.Strength)
			}
		}
	}
	if !found {
		t.Fatalf("expected charged_hours/utilization correlation, got %v", result.Correlations)
	}
}

func TestAnalyzerSkipsCorrelationOnShortWindow(t *testing.T) {
	timestamps := testTimestamps(4)
	analyzer := newTestAnalyzer(timestamps[3].AddDate(0, 0, 1))

	history := map[string][]float64{
		models.MetricUtilization:       {60, 65, 70, 75},
		models.MetricChargedHours:      {120, 130, 140, 150},
		models.MetricCapacityHours:     {160, 160.5, 159.5, 160.2},
		models.MetricTargetUtilization: {85, 85.1, 84.9, 85.05},
	}
	result, err := analyzer.Analyze("res-1", testSnapshot(80), history, timestamps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Correlations) != 0 {
		t.Fatalf("expected no correlation scan below 5 timestamps, got %v", result.Correlations)
	}
}

func TestAssessTarget(t *testing.T) {
	target := 85.0

	cases := []struct {
		utilization float64
		want        string
	}{
		{90, TargetMet},
		{85, TargetMet},
		{82, TargetSlightlyBelow},
		{80, TargetSlightlyBelow},
		{79.9, TargetSignificantlyBelow},
		{60, TargetSignificantlyBelow},
	}
	for _, tc := range cases {
		snapshot := models.MetricSnapshot{Utilization: tc.utilization, TargetUtilization: &target}
		got := assessTarget(snapshot)
		if got == nil {
			t.Fatalf("utilization %.1f: expected assessment", tc.utilization)
		}
		if got.Status != tc.want {
			t.Fatalf("utilization %.1f: expected %q, got %q", tc.utilization, tc.want, got.Status)
		}
	}

	if got := assessTarget(models.MetricSnapshot{Utilization: 80}); got != nil {
		t.Fatalf("expected nil assessment without a target, got %+v", got)
	}
}
