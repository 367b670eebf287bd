package router

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"dashboard_backend/internal/config"
	"dashboard_backend/internal/events"
	"dashboard_backend/internal/handlers"
	"dashboard_backend/internal/middleware"
	"dashboard_backend/internal/repositories"
	"dashboard_backend/internal/services"
	"dashboard_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewEngine creates a gin engine with the global middleware chain.
// CORS admits the configured identity header alongside the fixed ones.
func NewEngine(cfg *config.Config) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	if header := strings.TrimSpace(cfg.Auth.Header); header != "" {
		corsConfig.AddAllowHeaders(header)
	}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return engine
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, publisher events.Publisher, cfg *config.Config) {
	settingsRepo := repositories.NewSettingsRepository(db)
	settingsService := services.NewSettingsService(settingsRepo, db, publisher)

	settingsHandler := handlers.NewSettingsHandler(settingsService, cfg.Server.MaxBodyBytes)
	systemHandler := handlers.NewSystemHandler(db, publisher, cfg.Server.MaxBodyBytes)

	identity := middleware.IdentityMiddleware(cfg.Auth)

	apiV1 := engine.Group("/api/v1")
	SetupSystemRoutes(apiV1, systemHandler)
	SetupSettingsRoutes(apiV1, settingsHandler, identity)

	// Unversioned alias kept for existing dashboard clients.
	SetupSettingsRoutes(engine.Group("/api"), settingsHandler, identity)
}
