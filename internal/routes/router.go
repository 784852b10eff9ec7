package routes

import (
	"net/http"

	"iot-fleet-hub/internal/config"
	"iot-fleet-hub/internal/delivery/http/handler"
	"iot-fleet-hub/internal/infrastructure/database/postgres"
	"iot-fleet-hub/internal/logger"
	"iot-fleet-hub/internal/middleware"
	"iot-fleet-hub/internal/usecase/station"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(cfg *config.Config, db *postgres.DB) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(10 << 20))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	stationRepository := postgres.NewStationRepository(db)
	readingRepository := postgres.NewReadingRepository(db)
	taskLogRepository := postgres.NewTaskLogRepository(db)

	stationService := station.NewService(stationRepository, readingRepository, taskLogRepository)
	stationHandler := handler.NewStationHandler(stationService)

	legacyHandler := handler.NewLegacyDeviceHandler(stationRepository, readingRepository, taskLogRepository)

	// Legacy device endpoints live at the root, outside the versioned
	// operator API, because deployed firmware has the paths baked in.
	legacyHandler.RegisterRoutes(&router.RouterGroup, middleware.DeviceAuthMiddleware(stationRepository))

	v1 := router.Group("/api/v1")
	{
		stationHandler.RegisterRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			{
				stationHandler.RegisterAdminRoutes(admin)
			}
		}
	}

	logger.Info("All routes initialized")
	return router
}
