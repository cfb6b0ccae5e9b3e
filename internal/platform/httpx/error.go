package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/karsa-studio/api/internal/platform/requestctx"
)

const (
	maxCodeLen    = 80
	maxMessageLen = 512
	maxIDLen      = 80
)

// Error is the JSON error envelope every handler returns: a stable machine
// code, a human message, and the HTTP status.
type Error struct {
	Code    string
	Message string
	Status  int
}

// NewError builds an Error, clamping code and message to sane lengths.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    clamp(code, maxCodeLen),
		Message: clamp(message, maxMessageLen),
		Status:  status,
	}
}

// WriteError writes the envelope as JSON. The request ID and trace ID are
// pulled from the context so clients can quote them in support requests.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	payload := map[string]any{
		"error":   err.Code,
		"message": err.Message,
		"status":  status,
	}
	if requestID := clamp(middleware.GetReqID(ctx), maxIDLen); requestID != "" {
		payload["request_id"] = requestID
	}
	if traceID := clamp(requestctx.TraceID(ctx), maxIDLen); traceID != "" {
		payload["trace_id"] = traceID
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// clamp strips newlines and truncates, keeping log injection and oversized
// values out of the envelope.
func clamp(value string, limit int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if limit > 0 && len(value) > limit {
		value = value[:limit]
	}
	return value
}
