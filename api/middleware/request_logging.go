package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"postpilot/api/trace"
	"postpilot/logger"
)

// Crawl ingestion legitimately takes minutes; anything else past this is
// worth a warning.
const slowRequestThreshold = 5 * time.Second

// SlowRequestLog warns about requests that ran unusually long, so slow
// LLM calls and stuck crawls show up without debug logging enabled.
func SlowRequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		if elapsed < slowRequestThreshold {
			return
		}
		logger.Log.Warnf(
			"slow request method=%s path=%s status=%d duration_ms=%d request_id=%s",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			elapsed.Milliseconds(),
			trace.RequestIDFromContext(c.Request.Context()),
		)
	}
}
