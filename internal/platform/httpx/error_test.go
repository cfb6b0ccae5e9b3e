package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestWriteError(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-123")

	rr := httptest.NewRecorder()
	WriteError(ctx, rr, NewError("order_not_found", "order not found", http.StatusNotFound))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}

	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["error"] != "order_not_found" || payload["message"] != "order not found" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if payload["request_id"] != "req-123" {
		t.Fatalf("expected request id in payload, got %v", payload)
	}
}

func TestWriteErrorDefaultsStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(context.Background(), rr, Error{Code: "internal", Message: "boom"})

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestNewErrorClampsValues(t *testing.T) {
	err := NewError("code\nwith\rnewlines", "message", 0)
	if err.Code != "code with newlines" {
		t.Fatalf("unexpected code %q", err.Code)
	}
	if err.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", err.Status)
	}
}
