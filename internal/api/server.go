package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/resourcestack/utilization-insight/internal/models"
)

// AnalysisBackend is the service contract the HTTP layer fronts.
type AnalysisBackend interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, []models.Alert, error)
	Forecast(ctx context.Context, req models.ForecastRequest) (models.ForecastResult, error)
}

// Server exposes the analysis service over HTTP/JSON.
type Server struct {
	logger  *slog.Logger
	backend AnalysisBackend
	http    *http.Server
}

// NewServer builds the gin router and wires the handlers.
func NewServer(addr string, logger *slog.Logger, backend AnalysisBackend) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{logger: logger, backend: backend}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealth)
	v1 := router.Group("/api/v1")
	{
		v1.POST("/analysis", s.handleAnalysis)
		v1.POST("/forecast", s.handleForecast)
	}

	s.http = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", slog.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
