package middleware

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger is the process-wide structured logger. It starts from the process
// environment; ConfigureLogger replaces it once config is loaded.
var Logger = NewLogger(os.Getenv("APP_ENV"))

// ConfigureLogger rebuilds Logger for env and makes it the slog default.
func ConfigureLogger(env string) *slog.Logger {
	Logger = NewLogger(env)
	slog.SetDefault(Logger)
	return Logger
}

// NewLogger returns a JSON logger in production and a text logger otherwise.
func NewLogger(env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if env == "production" || env == "prod" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// StructuredLogger logs one line per request after it is handled.
func StructuredLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []any{
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("ip", c.ClientIP()),
			slog.Duration("latency", time.Since(start)),
		}
		if uid := c.GetString(UserIDKey); uid != "" {
			fields = append(fields, slog.String("user_id", uid))
		}

		ctx := c.Request.Context()
		if len(c.Errors) > 0 {
			fields = append(fields, slog.String("error", c.Errors.String()))
			Logger.ErrorContext(ctx, "request failed", fields...)
			return
		}
		Logger.InfoContext(ctx, "request processed", fields...)
	}
}
