package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerMiddleware пишет в лог каждый запрос с уровнем по классу статуса.
// Должен стоять сразу после Recovery, чтобы видеть ошибки, прикрепленные остальными.
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		return func(c *gin.Context) { c.Next() }
	}
	logger = logger.Named("http")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level, msg := levelFor(status)
		ce := logger.Check(level, msg)
		if ce == nil {
			return
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("URI", c.Request.RequestURI),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Int("size", c.Writer.Size()),
			zap.String("client_ip", c.ClientIP()),
		}
		if enc := c.Request.Header.Get("Content-Encoding"); enc != "" {
			fields = append(fields, zap.String("content-encoding", enc))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields = append(fields, zap.String("error", errs.String()))
		}
		ce.Write(fields...)
	}
}

func levelFor(status int) (zapcore.Level, string) {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel, "Server error"
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel, "Client error"
	default:
		return zapcore.InfoLevel, "Request processed"
	}
}
