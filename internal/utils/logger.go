package utils

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger is the logging surface handlers depend on
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
	Slog() *slog.Logger
}

type ctxLoggerKey struct{}

// SlogLogger adapts *slog.Logger to Logger
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

// WithContext returns the request-scoped logger stored by ContextLogger, if any
func (l *SlogLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}
	if scoped, ok := ctx.Value(ctxLoggerKey{}).(Logger); ok {
		return scoped
	}
	return l
}

func (l *SlogLogger) Slog() *slog.Logger { return l.logger }

// LoggerFromContext returns the request logger or the fallback
func LoggerFromContext(ctx context.Context, fallback Logger) Logger {
	if scoped, ok := ctx.Value(ctxLoggerKey{}).(Logger); ok {
		return scoped
	}
	return fallback
}

// ContextLogger attaches a logger carrying the request id to the request context
func ContextLogger(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")
		scoped := logger.With("request_id", requestID)
		c.Set("logger", scoped)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ctxLoggerKey{}, scoped))
		c.Next()
	}
}

// LoggerMiddleware logs one line per request after the handler chain finished
func LoggerMiddleware(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString("request_id"),
		}
		if query != "" {
			args = append(args, "query", query)
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Error("HTTP request", args...)
		case status >= 400:
			logger.Warn("HTTP request", args...)
		default:
			logger.Info("HTTP request", args...)
		}
	}
}
