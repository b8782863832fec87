package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/resourcestack/utilization-insight/internal/engine"
	"github.com/resourcestack/utilization-insight/internal/metrics"
	"github.com/resourcestack/utilization-insight/internal/models"
	"github.com/resourcestack/utilization-insight/internal/utils"
)

// Service-level error classes the transport layer maps onto status codes.
var (
	// ErrProviderUnavailable wraps upstream metrics-provider failures.
	ErrProviderUnavailable = errors.New("metrics provider unavailable")
	// ErrInvalidData wraps data-integrity violations surfaced by the engine.
	ErrInvalidData = errors.New("invalid metric data")
)

// MetricsProvider is the collaborator contract for fetching resource metrics.
type MetricsProvider interface {
	FetchSnapshot(ctx context.Context, resourceID string, at time.Time) (models.MetricSnapshot, error)
	FetchHistory(ctx context.Context, resourceID string, start, end time.Time) (map[string][]float64, []time.Time, error)
}

// AnalysisService wires the metrics provider into the analysis and forecast
// engines and records operational metrics around them.
type AnalysisService struct {
	logger    *slog.Logger
	provider  MetricsProvider
	analyzer  *engine.Analyzer
	alertGen  *engine.AlertGenerator
	forecasts *engine.ForecastEngine
	latencies *utils.LatencyTracker
}

// NewAnalysisService constructs the service facade.
func NewAnalysisService(logger *slog.Logger, provider MetricsProvider, analyzer *engine.Analyzer, alertGen *engine.AlertGenerator, forecasts *engine.ForecastEngine) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		logger:    logger,
		provider:  provider,
		analyzer:  analyzer,
		alertGen:  alertGen,
		forecasts: forecasts,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Analyze fetches the resource's snapshot and history and runs the full
// deviation analysis, returning the result together with generated alerts.
func (s *AnalysisService) Analyze(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, []models.Alert, error) {
	s.logger.Debug("analysis requested",
		slog.String("resource_id", req.ResourceID),
		slog.Time("start", req.Start),
		slog.Time("end", req.End))

	began := time.Now()

	snapshot, err := s.provider.FetchSnapshot(ctx, req.ResourceID, req.End)
	if err != nil {
		metrics.ObserveAnalysis(time.Since(began), metrics.OutcomeError)
		s.logger.Error("snapshot fetch failed", slog.Any("error", err))
		return models.AnalysisResult{}, nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	history, timestamps, err := s.provider.FetchHistory(ctx, req.ResourceID, req.Start, req.End)
	if err != nil {
		metrics.ObserveAnalysis(time.Since(began), metrics.OutcomeError)
		s.logger.Error("history fetch failed", slog.Any("error", err))
		return models.AnalysisResult{}, nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	result, err := s.analyzer.Analyze(req.ResourceID, snapshot, history, timestamps)
	duration := time.Since(began)
	if err != nil {
		metrics.ObserveAnalysis(duration, metrics.OutcomeError)
		s.logger.Error("analysis failed", slog.Any("error", err))
		return models.AnalysisResult{}, nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	var alerts []models.Alert
	if result.Status == models.StatusSuccess {
		alerts = s.alertGen.Generate(result)
	}

	metrics.ObserveAnalysis(duration, result.Status)
	levels := make([]string, len(alerts))
	for i, a := range alerts {
		levels[i] = string(a.Level)
	}
	metrics.ObserveAlerts(levels)

	s.latencies.Observe(duration)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("analysis latency",
			slog.Duration("p95", s.latencies.Percentile(95)),
			slog.Int("samples", count))
	}

	return result, alerts, nil
}

// Forecast fetches the resource's utilization history and projects the next
// period's value.
func (s *AnalysisService) Forecast(ctx context.Context, req models.ForecastRequest) (models.ForecastResult, error) {
	s.logger.Debug("forecast requested",
		slog.String("resource_id", req.ResourceID),
		slog.Int("window", req.Window))

	history, timestamps, err := s.provider.FetchHistory(ctx, req.ResourceID, req.Start, req.End)
	if err != nil {
		metrics.ObserveForecast(metrics.OutcomeError)
		s.logger.Error("history fetch failed", slog.Any("error", err))
		return models.ForecastResult{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	result, err := s.forecasts.Forecast(req.ResourceID, history[models.MetricUtilization], timestamps, req.Window)
	if err != nil {
		metrics.ObserveForecast(metrics.OutcomeError)
		s.logger.Error("forecast failed", slog.Any("error", err))
		return models.ForecastResult{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	metrics.ObserveForecast(result.Status)
	return result, nil
}
