// Package middleware holds the Gin middleware.
package middleware

import (
	"time"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/log"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs one structured entry per request. Request bodies are
// not captured: uploads are large binary multiparts.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"requestSize", c.Request.ContentLength,
			"responseSize", c.Writer.Size(),
		)
	}
}
