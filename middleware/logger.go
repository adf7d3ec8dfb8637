package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"qr-booking-backend/logger"
)

// Logger logs one line per request with its request ID.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}
		log.LogAPI(GetRequestID(c), c.Request.Method, path, c.Writer.Status(), c.ClientIP(), latency)
		for _, e := range c.Errors {
			log.Error("API", e.Error())
		}
	}
}
