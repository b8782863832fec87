package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/resourcestack/utilization-insight/internal/models"
	"github.com/resourcestack/utilization-insight/internal/services"
)

type analysisRequest struct {
	ResourceID string    `json:"resource_id" binding:"required"`
	Start      time.Time `json:"start" binding:"required"`
	End        time.Time `json:"end" binding:"required"`
}

type analysisResponse struct {
	Analysis models.AnalysisResult `json:"analysis"`
	Alerts   []models.Alert        `json:"alerts"`
}

type forecastRequest struct {
	ResourceID string    `json:"resource_id" binding:"required"`
	Start      time.Time `json:"start" binding:"required"`
	End        time.Time `json:"end" binding:"required"`
	Window     int       `json:"forecast_window"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleAnalysis runs the full deviation analysis. Request-level analysis
// failures stay HTTP 200 with a status "error" payload; only malformed bodies,
// integrity violations, and provider outages map to failure codes.
func (s *Server) handleAnalysis(c *gin.Context) {
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	result, alerts, err := s.backend.Analyze(c.Request.Context(), models.AnalysisRequest{
		ResourceID: req.ResourceID,
		Start:      req.Start,
		End:        req.End,
	})
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysisResponse{Analysis: result, Alerts: alerts})
}

func (s *Server) handleForecast(c *gin.Context) {
	var req forecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	result, err := s.backend.Forecast(c.Request.Context(), models.ForecastRequest{
		ResourceID: req.ResourceID,
		Start:      req.Start,
		End:        req.End,
		Window:     req.Window,
	})
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProviderUnavailable):
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrInvalidData):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
