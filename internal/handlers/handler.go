package handlers

import (
	"microclimate_station/internal/logger"
	"microclimate_station/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	auth := router.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}

	api := router.Group("/api/v1", h.userIdMiddleware)
	{
		station := api.Group("/station")
		{
			station.GET("/status", h.getStatus)
			station.GET("/actuators", h.getActuators)
			station.PUT("/setpoint", h.setSetpoint)
		}
		logs := api.Group("/logs")
		{
			logs.GET("/", h.getLogs)
		}
	}

	// Live station snapshots over a WebSocket upgrade on the same port
	router.GET("/ws", h.wsConnect)

	return router
}
