package logger

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

const (
	requestIDKey = "request_id"
	loggerKey    = "logger"
)

type ctxKey struct{}

// New builds the process logger. Production uses JSON output at info level;
// everything else gets the console encoder at debug level.
func New(production bool) (*zap.Logger, error) {
	if production {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg.Build()
	}
	return zap.NewDevelopment(zap.AddStacktrace(zap.ErrorLevel))
}

// WithContext attaches log to ctx
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the request logger, or the global logger if none is attached
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return log
	}
	return zap.L()
}

// RequestID returns the id assigned by RequestLogger
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// FromGin returns the request-scoped logger stored by RequestLogger
func FromGin(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if log, ok := v.(*zap.Logger); ok {
			return log
		}
	}
	return FromContext(c.Request.Context())
}

// RequestLogger assigns a request id, exposes a request-scoped logger on
// both the gin and request contexts, and logs one line per request.
func RequestLogger(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		log := base.With(zap.String("request_id", requestID))
		c.Set(loggerKey, log)
		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), log))

		c.Next()

		log.Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_ip", c.ClientIP()),
		)
	}
}
