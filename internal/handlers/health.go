package handlers

import (
	"context"
	"net/http"
	"time"
)

const version = "1.0.0"

// Check represents the status of a health check.
type Check struct {
	Status  string `json:"status"`            // "pass" or "fail"
	Latency string `json:"latency,omitempty"` // e.g., "2ms"
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string           `json:"status"` // "healthy" or "degraded"
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Timestamp string           `json:"timestamp"`
}

// Health handles the health check endpoint. Redis is optional; when not
// configured it is reported but does not degrade the service.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]Check)
	allHealthy := true

	if h.db != nil {
		start := time.Now()
		if err := h.db.Ping(ctx); err != nil {
			checks["mongo"] = Check{Status: "fail", Message: "connection failed"}
			allHealthy = false
		} else {
			checks["mongo"] = Check{Status: "pass", Latency: time.Since(start).String()}
		}
	} else {
		checks["mongo"] = Check{Status: "fail", Message: "not configured"}
		allHealthy = false
	}

	if h.cache != nil {
		start := time.Now()
		if err := h.cache.Ping(ctx); err != nil {
			checks["redis"] = Check{Status: "fail", Message: "connection failed"}
			allHealthy = false
		} else {
			checks["redis"] = Check{Status: "pass", Latency: time.Since(start).String()}
		}
	} else {
		checks["redis"] = Check{Status: "pass", Message: "not configured"}
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	h.JSON(w, statusCode, HealthResponse{
		Status:    status,
		Version:   version,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
