package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hachiran/ramensite/internal/auth"
	"github.com/hachiran/ramensite/internal/config"
	"github.com/hachiran/ramensite/internal/hero"
	"github.com/hachiran/ramensite/internal/image"
	"github.com/hachiran/ramensite/internal/logger"
	"github.com/hachiran/ramensite/internal/metrics"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config       config.Config
	DB           Pinger
	ObjectStore  Pinger
	AuthService  *auth.Service
	ImageService *image.Service
	Tracker      *image.Tracker
	Hero         *hero.Handler
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())
	if origins := deps.Config.Server.AllowedOrigins; len(origins) > 0 {
		router.Use(cors.New(corsConfig(origins)))
	}

	registerHealthRoutes(router, deps)
	if path := deps.Config.Metrics.PrometheusPath; path != "" {
		metrics.Register(router, path)
	}

	if deps.Hero != nil {
		hero.RegisterRoutes(router, deps.Hero, deps.Config.Site.LogoPath)
	}

	api := router.Group("/v1")
	if deps.AuthService != nil {
		auth.RegisterRoutes(api, deps.AuthService)

		protected := api.Group("/")
		protected.Use(auth.AuthMiddleware(deps.AuthService))

		if deps.ImageService != nil {
			image.RegisterRoutes(protected, deps.ImageService, deps.Tracker)
		}
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", logger.CorrelationIDHeader}
	cfg.ExposeHeaders = []string{logger.CorrelationIDHeader}
	return cfg
}
