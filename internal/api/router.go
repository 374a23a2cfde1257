package api

import (
	"github.com/gin-gonic/gin"
	"github.com/songforge/songforge-api/internal/api/handlers"
	apimiddleware "github.com/songforge/songforge-api/internal/api/middleware"
	"github.com/songforge/songforge-api/internal/config"
	"github.com/songforge/songforge-api/internal/database"
	"github.com/songforge/songforge-api/internal/metrics"
	"github.com/songforge/songforge-api/internal/synth"
)

func SetupRouter(store database.SongStore, cfg *config.Config, cw *metrics.Client, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(cw))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	router.GET("/health", handlers.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	// Song routes v1. Auth is delegated to the gateway in front of the
	// service; local deployments run with AUTH_MODE=none.
	v1 := router.Group("/api/v1")
	if cfg.IsGatewayMode() {
		v1.Use(apimiddleware.GatewayAuth())
	} else {
		v1.Use(apimiddleware.NoAuth())
	}
	{
		songsHandler := handlers.NewSongsHandler(store, synth.NewEngine(cfg.SampleRate), cw)
		v1.POST("/songs/generate", songsHandler.Generate)
		v1.GET("/songs/:id", songsHandler.Get)
		v1.POST("/songs/:id/sections/:index/regenerate", songsHandler.RegenerateSection)
		v1.POST("/songs/:id/render", songsHandler.Render)
	}

	return router
}
