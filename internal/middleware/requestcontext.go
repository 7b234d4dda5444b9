package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/requestdata"
)

// RequestContext attaches the per-request error slot and logs one line per request.
func RequestContext(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("middleware", "RequestContext")
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(errordata.WithErrorData(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"clientIP", c.ClientIP(),
		}
		if uid := requestdata.UserID(c.Request.Context()); uid != uuid.Nil {
			kv = append(kv, "userID", uid)
		}
		if ed := errordata.GetErrorData(c.Request.Context()); ed != nil && ed.HasMessage() {
			kv = append(kv, "error", ed.Message)
		}
		switch {
		case status >= http.StatusInternalServerError:
			reqLog.Error("request failed", kv...)
		case status >= http.StatusBadRequest:
			reqLog.Info("request rejected", kv...)
		default:
			reqLog.Debug("request served", kv...)
		}
	}
}

// BodyLimit caps request bodies at maxBytes.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// SecureHeaders sets the conservative response headers browsers honour.
func SecureHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "no-referrer")
		c.Next()
	}
}

// Recovery turns a panic into the standard 500 envelope.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	recLog := log.With("middleware", "Recovery")
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		recLog.Error("panic while serving request", "panic", recovered, "path", c.Request.URL.Path)
		abortWithMessage(c, http.StatusInternalServerError, "Internal server error")
	})
}
