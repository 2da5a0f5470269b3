package middleware

import (
	"time"

	"rentflow/services/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID  = "X-Request-ID"
	ContextRequestID = "requestId"
)

// RequestIDMiddleware tạo requestId nếu client chưa gửi và gán vào context, header
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(ContextRequestID, requestID)
		c.Writer.Header().Set(HeaderRequestID, requestID)

		c.Next()
	}
}

// RequestLogger ghi log mỗi request sau khi xử lý xong
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		requestID := c.GetString(ContextRequestID)
		latency := time.Since(start)
		switch {
		case status >= 500:
			log.Error("%s %s %d %v request=%s", c.Request.Method, c.Request.URL.Path, status, latency, requestID)
		case status >= 400:
			log.Warn("%s %s %d %v request=%s", c.Request.Method, c.Request.URL.Path, status, latency, requestID)
		default:
			log.Info("%s %s %d %v request=%s", c.Request.Method, c.Request.URL.Path, status, latency, requestID)
		}
	}
}
