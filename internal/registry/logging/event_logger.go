package logging

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventLoggingConfig holds sampling and filtering configuration.
type EventLoggingConfig struct {
	SuccessSampleRate float64 `env:"LOG_SUCCESS_SAMPLE_RATE" envDefault:"0.1"`
	ExcludePaths      string  `env:"LOG_EXCLUDE_PATHS" envDefault:"/metrics,/v0/ping"`
	ErrorOnlyPaths    string  `env:"LOG_ERROR_ONLY_PATHS" envDefault:"/v0/health"`
	RedactPatterns    string  `env:"LOG_REDACT_PATTERNS" envDefault:"password,token,secret,authorization,credential,bearer,api_key,apikey,private"`
}

// ParsedEventLoggingConfig is the parsed version of EventLoggingConfig for efficient use.
type ParsedEventLoggingConfig struct {
	SuccessSampleRate float64
	ExcludePaths      map[string]bool
	ErrorOnlyPaths    map[string]bool
	RedactRegex       *regexp.Regexp
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseEventLoggingConfig parses the config into an efficient structure.
func ParseEventLoggingConfig(cfg *EventLoggingConfig) *ParsedEventLoggingConfig {
	parsed := &ParsedEventLoggingConfig{
		SuccessSampleRate: cfg.SuccessSampleRate,
		ExcludePaths:      make(map[string]bool),
		ErrorOnlyPaths:    make(map[string]bool),
	}
	for _, p := range splitList(cfg.ExcludePaths) {
		parsed.ExcludePaths[p] = true
	}
	for _, p := range splitList(cfg.ErrorOnlyPaths) {
		parsed.ErrorOnlyPaths[p] = true
	}

	var regexParts []string
	for _, p := range splitList(cfg.RedactPatterns) {
		regexParts = append(regexParts, regexp.QuoteMeta(p))
	}
	if len(regexParts) > 0 {
		parsed.RedactRegex = regexp.MustCompile("(?i)(" + strings.Join(regexParts, "|") + ")")
	}

	return parsed
}

func DefaultEventLoggingConfig() *EventLoggingConfig {
	return &EventLoggingConfig{
		SuccessSampleRate: 0.1,
		ExcludePaths:      "/metrics,/v0/ping",
		ErrorOnlyPaths:    "/v0/health",
		RedactPatterns:    "password,token,secret,authorization,credential,bearer,api_key,apikey,private",
	}
}

// Base event loggers for each layer (reused across all requests, thread-safe)
var (
	APIEventLog    = NewLogger("api")
	HealthEventLog = NewLogger("health")
)

var active atomic.Pointer[ParsedEventLoggingConfig]

func init() {
	active.Store(ParseEventLoggingConfig(DefaultEventLoggingConfig()))
}

// Configure replaces the active event logging configuration.
func Configure(cfg *EventLoggingConfig) {
	if cfg == nil {
		cfg = DefaultEventLoggingConfig()
	}
	active.Store(ParseEventLoggingConfig(cfg))
}

// Active returns the event logging configuration in effect.
func Active() *ParsedEventLoggingConfig {
	return active.Load()
}

const redactedValue = "***"

// RedactFields redacts sensitive fields based on configured patterns.
func RedactFields(fields ...zap.Field) []zap.Field {
	re := Active().RedactRegex
	if re == nil {
		return fields
	}
	redacted := make([]zap.Field, len(fields))
	for i, f := range fields {
		if re.MatchString(f.Key) {
			redacted[i] = zap.String(f.Key, redactedValue)
		} else {
			redacted[i] = f
		}
	}
	return redacted
}

// ShouldLog makes the sampling decision for info and debug events. Requests
// without an ID are always logged.
func ShouldLog(ctx context.Context) bool {
	reqID := GetRequestID(ctx)
	if reqID == "" {
		return true
	}
	return HashRequestIDToFloat(reqID) < Active().SuccessSampleRate
}

// shouldLogForLevel determines if we should log based on sampling decision and log level.
// Errors and warnings are always logged regardless of sampling.
func shouldLogForLevel(ctx context.Context, level zapcore.Level) bool {
	if level >= zapcore.WarnLevel {
		return true
	}
	return ShouldLog(ctx)
}

// Log logs an event using the logger from context with tail-based sampling.
// Errors and warnings are always logged; Info/Debug are sampled based on request_id.
// Usage:
//
//	logging.Log(ctx, logging.APIEventLog, zapcore.InfoLevel, "request", fields...)
//	logging.Log(ctx, logging.HealthEventLog, zapcore.WarnLevel, "probe failed", zap.Error(err))
func Log(ctx context.Context, base *zap.Logger, level zapcore.Level, message string, fields ...zap.Field) {
	if !shouldLogForLevel(ctx, level) {
		return
	}
	L(ctx, base).Log(level, message, RedactFields(fields...)...)
}

// HashRequestIDToFloat returns a deterministic float between 0 and 1 based on request ID.
// This is used for tail-based sampling - same request_id always gets same hash value.
func HashRequestIDToFloat(requestID string) float64 {
	h := fnv.New64a()
	h.Write([]byte(requestID))
	return float64(h.Sum64()) / float64(^uint64(0))
}

func EventLevelFromStatusCode(statusCode int) zapcore.Level {
	switch {
	case statusCode >= 500:
		return zapcore.ErrorLevel
	case statusCode >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
