package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	SubmissionIDKey = "submissionId"
	ResumeIDKey     = "resumeId"
	GenerationKey   = "generationState"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		userID, _ := c.Get(userIDKey)
		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     userID,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if v := c.GetString(SubmissionIDKey); v != "" {
			fields["submission_id"] = v
		}
		if v := c.GetString(ResumeIDKey); v != "" {
			fields["resume_id"] = v
		}
		if v := c.GetString(GenerationKey); v != "" {
			fields["generation_state"] = v
		}
		telemetry.Info("request.complete", fields)
	}
}
