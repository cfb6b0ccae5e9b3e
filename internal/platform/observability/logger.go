package observability

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/karsa-studio/api/internal/platform/requestctx"
)

const defaultLogLevel = "info"

// NewLogger builds the JSON logger used across the API. Field names
// follow Cloud Logging conventions so severity filtering works in the
// console, and LOG_LEVEL tunes verbosity per environment.
func NewLogger() (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		_ = level.UnmarshalText([]byte(defaultLogLevel))
	}

	cfg := zap.Config{
		Level:    level,
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "message",
			TimeKey:    "timestamp",
			LevelKey:   "severity",
			EncodeTime: zapcore.RFC3339NanoTimeEncoder,
			EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
				enc.AppendString(strings.ToUpper(l.String()))
			},
			CallerKey:     "caller",
			StacktraceKey: "stacktrace",
		},
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}

	return cfg.Build()
}

// WithLogger injects logger into ctx.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return requestctx.WithLogger(ctx, logger)
}

// FromContext returns the request logger, or a noop logger outside a request.
func FromContext(ctx context.Context) *zap.Logger {
	return requestctx.Logger(ctx)
}

// PrintfAdapter bridges zap to libraries that want a printf-style logger.
type PrintfAdapter struct {
	logger *zap.SugaredLogger
}

// NewPrintfAdapter wraps logger; nil falls back to a noop logger.
func NewPrintfAdapter(logger *zap.Logger) PrintfAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return PrintfAdapter{logger: logger.Sugar()}
}

// Printf logs at info level.
func (a PrintfAdapter) Printf(format string, args ...any) {
	a.logger.Infof(format, args...)
}

// WithRequestFields attaches request-scoped fields to logger.
func WithRequestFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(fields...)
}
