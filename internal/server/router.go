package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/kitaplan/kitaplan-backend/internal/http/handlers"
	"github.com/kitaplan/kitaplan-backend/internal/middleware"
	"github.com/kitaplan/kitaplan-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	MaxRequestBytes int64

	MetadataHandler *handlers.MetadataHandler
	HealthHandler   *handlers.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	// No-op until observability.Init installs a real tracer provider.
	router.Use(otelgin.Middleware("kitaplan-backend"))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLog(cfg.Log))
	router.Use(middleware.MaxBytes(cfg.MaxRequestBytes))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:8000",
		},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Requested-With"},
	}))

	router.GET("/healthz", cfg.HealthHandler.HealthCheck)

	v1 := router.Group("/v1")
	{
		v1.POST("/metadata/generate", cfg.MetadataHandler.Generate)
	}

	return router
}
