package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/iot-aicha/stock-counter/pkg/logger"
)

// HeaderRequestID 请求 ID 头
const HeaderRequestID = "X-Request-ID"

// Logger 请求日志，请求 ID 作为 trace_id 注入 context
func Logger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(HeaderRequestID, requestID)
		ctx := logger.WithTraceID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		switch {
		case status >= 500:
			log.Errorf(ctx, "[HTTP] %s %s %d %v", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		case status >= 400:
			log.Warnf(ctx, "[HTTP] %s %s %d %v", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		default:
			log.Debugf(ctx, "[HTTP] %s %s %d %v", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		}
	}
}
