package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parkfan/occupancy-analytics/internal/config"
	"github.com/parkfan/occupancy-analytics/internal/handler"
	"github.com/parkfan/occupancy-analytics/internal/metrics"
	"github.com/parkfan/occupancy-analytics/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by SetupRouter
type Handlers struct {
	Occupancy *handler.OccupancyHandler
	Baseline  *handler.BaselineHandler
	Crowd     *handler.CrowdHandler
	Sample    *handler.SampleHandler
	Park      *handler.ParkHandler
}

// Options carries the optional router collaborators
type Options struct {
	Metrics *metrics.Metrics
	Limiter *middleware.RateLimiter // nil disables rate limiting
	Logger  *slog.Logger
}

// SetupRouter builds the gin engine with every API route
func SetupRouter(cfg *config.Config, h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(opts.Logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Occupancy analytics API is running",
		})
	})
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	api := r.Group("/api/v1")
	if opts.Limiter != nil {
		api.Use(middleware.RateLimit(opts.Limiter))
	}
	auth := middleware.Auth(cfg.Auth.JWTSecret)
	{
		occupancy := api.Group("/occupancy")
		{
			occupancy.GET("/nearby", h.Occupancy.NearbyOccupancy)
			occupancy.POST("/batch", h.Occupancy.BatchOccupancy)
			occupancy.GET("/:entityId", h.Occupancy.GetOccupancy)
			occupancy.GET("/:entityId/feature", h.Occupancy.GetFeature)
		}

		api.GET("/baselines/:entityType/:entityId", h.Baseline.GetBaseline)

		api.GET("/crowd-level", h.Crowd.CrowdLevel)
		api.GET("/crowd-level/predicted", h.Crowd.PredictedCrowd)
		api.GET("/load-rating", h.Crowd.LoadRating)

		samples := api.Group("/samples")
		{
			samples.POST("", auth, h.Sample.Ingest)
			samples.GET("/:entityType/:entityId", h.Sample.ListSamples)
		}

		parks := api.Group("/parks")
		{
			parks.GET("", h.Park.ListParks)
			parks.GET("/:id", h.Park.GetPark)
			parks.PUT("/:id", auth, h.Park.PutPark)
		}
	}

	return r
}
