package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader is the HTTP header for request ID.
const RequestIDHeader = "X-Request-ID"

const (
	requestIDKey = "request_id"
	loggerKey    = "logger"
)

// RequestIDMiddleware reuses the caller's X-Request-ID or generates a UUID,
// and echoes it on the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// GetRequestID retrieves the request ID from the Gin context.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// LoggerMiddleware attaches a request-scoped logger to the request context
// and logs each request once it completes.
func LoggerMiddleware(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		l := base.With().Str("request_id", GetRequestID(c)).Logger()
		c.Set(loggerKey, &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		event := l.Info()
		switch {
		case status >= 500:
			event = l.Error()
		case status >= 400:
			event = l.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Int("size", c.Writer.Size()).
			Msg("request")
	}
}

// requestLogger returns the logger attached by LoggerMiddleware, or the
// global logger when the middleware is not installed.
func requestLogger(c *gin.Context) *zerolog.Logger {
	if l, ok := c.Get(loggerKey); ok {
		if logger, ok := l.(*zerolog.Logger); ok {
			return logger
		}
	}
	return &log.Logger
}
