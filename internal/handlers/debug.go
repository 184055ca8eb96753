package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chat-client/internal/middleware"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, cfg RouterConfig) {
	if !cfg.Debug {
		return
	}

	debug := router.Group("/debug", middleware.DebugAuthMiddleware(cfg.DebugToken))

	debug.GET("/state", func(c *gin.Context) {
		if cfg.State == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "state not available"})
			return
		}
		c.JSON(http.StatusOK, cfg.State.DebugState())
	})

	debug.GET("/audit-test", func(c *gin.Context) {
		if cfg.Emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		roomID, _ := strconv.Atoi(c.Query("room_id"))
		cfg.Emitter.Emit(c.Request.Context(), "INFO", "audit test", roomID, userIDFromContext(c, cfg.UserID))
		c.JSON(http.StatusOK, gin.H{"status": "ok", "request_id": requestIDFromContext(c)})
	})
}
