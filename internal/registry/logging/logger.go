package logging

import (
	"context"

	"go.uber.org/zap"
)

type requestIDKeyType struct{}

var requestIDKey = requestIDKeyType{}

// level is shared by every logger created through NewLogger.
var level = zap.NewAtomicLevelAt(zap.InfoLevel)

// SetLevel changes the level of all loggers created by NewLogger.
func SetLevel(name string) error {
	return level.UnmarshalText([]byte(name))
}

// NewLogger creates a named zap production logger.
func NewLogger(name string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger.Named(name)
}

// WithRequestID returns a logger with request_id from context.
func WithRequestID(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if reqID, ok := ctx.Value(requestIDKey).(string); ok && reqID != "" {
		return logger.With(zap.String("request_id", reqID))
	}
	return logger
}

// L is shorthand for WithRequestID.
func L(ctx context.Context, logger *zap.Logger) *zap.Logger {
	return WithRequestID(ctx, logger)
}

// SetRequestID stores request_id in context (call once in middleware).
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves request_id from context.
func GetRequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey).(string); ok {
		return reqID
	}
	return ""
}
