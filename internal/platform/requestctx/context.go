// Package requestctx carries the per-request logger and Cloud Trace
// metadata through context so handlers and repositories share them
// without threading extra parameters.
package requestctx

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	loggerContextKey contextKey = "github.com/karsa-studio/api/internal/platform/requestctx/logger"
	traceContextKey  contextKey = "github.com/karsa-studio/api/internal/platform/requestctx/trace"
)

var noopLogger = zap.NewNop()

// TraceInfo is the Cloud Trace context attached to a request.
type TraceInfo struct {
	TraceID   string
	SpanID    string
	Sampled   bool
	ProjectID string
}

// WithLogger attaches logger to ctx. A nil logger falls back to the noop one.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = noopLogger
	}
	return context.WithValue(ctx, loggerContextKey, logger)
}

// Logger returns the request logger, or a noop logger outside a request.
func Logger(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return noopLogger
	}
	if logger, ok := ctx.Value(loggerContextKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return noopLogger
}

// NoopLogger returns the shared noop logger.
func NoopLogger() *zap.Logger { return noopLogger }

// WithTrace attaches trace metadata to ctx.
func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, traceContextKey, info)
}

// Trace returns the trace metadata attached by the tracing middleware.
func Trace(ctx context.Context) (TraceInfo, bool) {
	if ctx == nil {
		return TraceInfo{}, false
	}
	info, ok := ctx.Value(traceContextKey).(TraceInfo)
	return info, ok
}

// TraceID is a shortcut for the trace identifier, empty when absent.
func TraceID(ctx context.Context) string {
	info, _ := Trace(ctx)
	return info.TraceID
}
