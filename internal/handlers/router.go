package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-client/internal/middleware"
	"chat-client/internal/observability"
	"chat-client/internal/telemetry"
)

// StateProvider exposes a JSON-serialisable snapshot of the client.
type StateProvider interface {
	DebugState() any
}

type RouterConfig struct {
	ServiceName string
	Emitter     *telemetry.AuditEmitter
	State       StateProvider
	UserID      int
	Debug       bool
	DebugToken  string
}

// NewRouter builds the diagnostics listener: health, metrics and, when
// enabled, the debug routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.ServiceName),
		middleware.RequestID(),
		observability.HTTPMetricsMiddleware(),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	RegisterDebugRoutes(router, cfg)
	return router
}
