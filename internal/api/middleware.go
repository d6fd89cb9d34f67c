package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	apperrors "github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/errors"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/logger"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

// RequestLogger tags every request with an id and logs it once it completes.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		fields := map[string]interface{}{
			"requestId":  requestID,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"durationMs": time.Since(start).Milliseconds(),
		}
		if c.FullPath() == "" {
			fields["path"] = c.Request.URL.Path
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Warn("request completed", fields)
			return
		}
		log.Debug("request completed", fields)
	}
}

// RateLimit rejects requests once the shared limiter is exhausted.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody(apperrors.NewRateLimitedError()))
			return
		}
		c.Next()
	}
}
