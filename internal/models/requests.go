package models

import "time"

// AnalysisRequest asks for a full deviation analysis of one resource over a
// historical window ending at End.
type AnalysisRequest struct {
	ResourceID string    `json:"resource_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// ForecastRequest asks for a next-period utilization projection. Window is the
// minimum number of historical points required; zero selects the default.
type ForecastRequest struct {
	ResourceID string    `json:"resource_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Window     int       `json:"forecast_window"`
}
