package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/events"
	"github.com/notionforge/backend/internal/domain/ports"
	"github.com/notionforge/backend/pkg/constants"
)

// ContextKeyRequestID holds the request id in the gin context
const ContextKeyRequestID = "request_id"

// RequestLogger tags every request with an id, logs it when it completes
// and publishes a request event for usage statistics. A nil publisher only logs.
func RequestLogger(logger *zap.Logger, publisher ports.EventPublisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, requestID)
		c.Header(constants.HeaderXRequestID, requestID)

		c.Next()

		if c.Request.Method == "OPTIONS" {
			return
		}
		latency := time.Since(start)
		status := c.Writer.Status()
		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		)

		if publisher == nil {
			return
		}
		payload := events.RequestPayload{
			Method:  c.Request.Method,
			Path:    c.FullPath(),
			Status:  status,
			Latency: latency,
		}
		if err := publisher.Publish(context.WithoutCancel(c.Request.Context()), events.RequestServed, payload); err != nil {
			logger.Warn("request event handler failed", zap.Error(err))
		}
	}
}
