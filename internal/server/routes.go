package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the display API on rg.
//
// Endpoints:
//
//	GET  /health
//	GET  /displays
//	GET  /displays/:id
//	POST /displays/:id/activate
//	POST /displays/:id/structures/:sid/select
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.GET("/health", h.HandleHealth)

	displays := rg.Group("/displays")
	{
		displays.GET("", h.HandleListDisplays)
		displays.GET("/:id", h.HandleGetDisplay)
		displays.POST("/:id/activate", h.HandleActivate)
		displays.POST("/:id/structures/:sid/select", h.HandleSelect)
	}
}

// NewRouter builds the gin engine: the API under /v1 and, when
// cfg.MetricsPath is set, metrics gathered from gatherer.
func NewRouter(h *Handlers, cfg Config, gatherer prometheus.Gatherer, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	RegisterRoutes(router.Group("/v1"), h)

	if cfg.MetricsPath != "" {
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		router.GET(cfg.MetricsPath, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
