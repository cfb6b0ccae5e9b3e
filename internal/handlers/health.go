package handlers

import (
	"net/http"
	"time"

	"github.com/karsa-studio/api/internal/services"
)

// HealthHandlers serves liveness and readiness endpoints.
type HealthHandlers struct {
	system services.SystemService
}

// NewHealthHandlers constructs health handlers. A nil system service degrades
// readiness to a plain liveness response.
func NewHealthHandlers(system services.SystemService) *HealthHandlers {
	return &HealthHandlers{system: system}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readyz checks downstream dependencies and reports aggregate readiness.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.system == nil {
		writeJSONResponse(w, http.StatusOK, map[string]any{"status": "ok"})
		return
	}

	report, err := h.system.HealthReport(r.Context())
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]any{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	status := http.StatusOK
	if report.Status == "error" {
		status = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, status, buildHealthPayload(report))
}

type healthCheckPayload struct {
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	CheckedAt string `json:"checked_at,omitempty"`
}

func buildHealthPayload(report services.SystemHealthReport) map[string]any {
	checks := make(map[string]healthCheckPayload, len(report.Checks))
	for name, check := range report.Checks {
		checks[name] = healthCheckPayload{
			Status:    check.Status,
			Detail:    check.Detail,
			Error:     check.Error,
			LatencyMS: check.Latency.Milliseconds(),
			CheckedAt: formatTime(check.CheckedAt),
		}
	}

	payload := map[string]any{
		"status": report.Status,
		"checks": checks,
	}
	if report.Version != "" {
		payload["version"] = report.Version
	}
	if report.CommitSHA != "" {
		payload["commit"] = report.CommitSHA
	}
	if report.Environment != "" {
		payload["environment"] = report.Environment
	}
	if report.Uptime > 0 {
		payload["uptime"] = report.Uptime.String()
	}
	return payload
}
