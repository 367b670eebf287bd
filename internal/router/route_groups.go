package router

import (
	"dashboard_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupSettingsRoutes sets up the per-user settings routes.
func SetupSettingsRoutes(apiGroup *gin.RouterGroup, settingsHandler *handlers.SettingsHandler, identity gin.HandlerFunc) {
	settingsRoutes := apiGroup.Group("/settings")
	settingsRoutes.Use(identity)
	{
		settingsRoutes.GET("", settingsHandler.GetSettings)
		settingsRoutes.PUT("", settingsHandler.UpdateSettings)
	}
}

// SetupSystemRoutes sets up the health and webhook routes. Neither requires an identity.
func SetupSystemRoutes(apiGroup *gin.RouterGroup, systemHandler *handlers.SystemHandler) {
	apiGroup.GET("/health", systemHandler.Health)
	apiGroup.POST("/webhooks", systemHandler.Webhook)
}
