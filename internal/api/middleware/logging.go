package middleware

import (
	"strconv"
	"time"

	"taskhub/internal/config"
	"taskhub/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log = config.InitLogger()

const REQUEST_ID_HEADER = "X-Request-Id"

// RequestLogger tags each request with an id, logs its outcome and records its latency.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startedAt := time.Now()
		requestId := c.GetHeader(REQUEST_ID_HEADER)
		if requestId == "" {
			requestId = uuid.NewString()
		}
		c.Header(REQUEST_ID_HEADER, requestId)

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(startedAt)
		metrics.ObserveHttpRequest(c.Request.Method, c.FullPath(), strconv.Itoa(status), latency)

		entry := log.WithFields(logrus.Fields{
			"request_id": requestId,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency":    latency,
			"client_ip":  c.ClientIP(),
		})
		switch {
		case status >= 500:
			entry.Error("http request completed")
		case status >= 400:
			entry.Warn("http request completed")
		default:
			entry.Info("http request completed")
		}
	}
}
