package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanqian/uv-australia/internal/infra/config"
	"github.com/yanqian/uv-australia/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", handler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.GET("/uv-index", handler.Snapshot)
		api.POST("/uv-index/refresh", handler.Refresh)
		api.GET("/uv-index/postcode/:postcode", handler.ByPostcode)
		api.GET("/uv-index/city/:name", handler.ByCity)
		api.GET("/uv-index/coordinates", handler.ByCoordinates)
		api.GET("/map/markers", handler.Markers)
		api.GET("/skin-types", handler.SkinTypes)
		api.GET("/recommendations", handler.Recommend)
		api.GET("/search/trending", handler.TrendingSearches)

		sessions := api.Group("/sessions")
		sessions.POST("", handler.CreateSession)
		sessions.GET("/:id", handler.GetSession)
		sessions.POST("/:id/search", handler.Search)
		sessions.POST("/:id/marker", handler.MarkerClicked)
		sessions.POST("/:id/geolocation", handler.Geolocation)
		sessions.POST("/:id/reset", handler.ResetSession)
		sessions.PUT("/:id/skin-type", handler.SetSkinType)
		sessions.POST("/:id/viewport", handler.Viewport)
		sessions.GET("/:id/events", handler.SessionEvents)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status()/100)+"xx").Inc()
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
