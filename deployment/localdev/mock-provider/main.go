package main

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"time"
)

// Synthetic baseline the mock drifts around.
const (
	baseUtilization  = 78.0
	baseCapacity     = 160.0
	targetUtil       = 85.0
	historyMonths    = 6
	utilizationDrift = 1.5 // per month
)

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/v1/metrics/snapshot", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		utilization := baseUtilization + utilizationDrift*historyMonths
		target := targetUtil
		writeJSON(w, map[string]any{
			"utilization":        round1(utilization),
			"charged_hours":      round1(baseCapacity * utilization / 100),
			"capacity_hours":     baseCapacity,
			"target_utilization": target,
		})
	})

	mux.HandleFunc("/api/v1/metrics/history", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}

		timestamps := make([]time.Time, historyMonths)
		utilization := make([]float64, historyMonths)
		charged := make([]float64, historyMonths)
		capacity := make([]float64, historyMonths)
		targets := make([]float64, historyMonths)

		now := time.Now().UTC().Truncate(24 * time.Hour)
		for i := 0; i < historyMonths; i++ {
			monthsAgo := historyMonths - i
			timestamps[i] = now.AddDate(0, -monthsAgo, 0)

			// Steady drift with a small seasonal wobble.
			u := baseUtilization + utilizationDrift*float64(i) + 1.2*math.Sin(float64(i))
			utilization[i] = round1(u)
			charged[i] = round1(baseCapacity * u / 100)
			capacity[i] = baseCapacity
			targets[i] = targetUtil
		}

		writeJSON(w, map[string]any{
			"timestamps": timestamps,
			"metrics": map[string][]float64{
				"utilization":        utilization,
				"charged_hours":      charged,
				"capacity_hours":     capacity,
				"target_utilization": targets,
			},
		})
	})

	logger := log.New(log.Writer(), "provider-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":8085",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :8085")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func enforcePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Printf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
