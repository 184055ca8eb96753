package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-client/internal/middleware"
)

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(middleware.RequestIDKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader(middleware.RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(middleware.RequestIDKey, requestID)
	return requestID
}

// userIDFromContext prefers an explicit X-User-ID header and falls back to
// the session user.
func userIDFromContext(c *gin.Context, sessionUserID int) *int {
	if header := c.GetHeader("X-User-ID"); header != "" {
		if parsed, err := strconv.Atoi(header); err == nil && parsed > 0 {
			return &parsed
		}
	}
	if sessionUserID != 0 {
		value := sessionUserID
		return &value
	}
	return nil
}
