package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hypnosapp/hypnos-backend/internal/handlers"
	"github.com/hypnosapp/hypnos-backend/internal/middleware"
)

type RouterConfig struct {
	AllowedOrigins     []string
	AuthMiddleware     *middleware.AuthMiddleware
	HealthcheckHandler *handlers.HealthcheckHandler
	AuthHandler        *handlers.AuthHandler
	UserHandler        *handlers.UserHandler
	AffirmationHandler *handlers.AffirmationHandler
	AudioHandler       *handlers.AudioHandler
	GenerationHandler  *handlers.GenerationHandler
	VoiceHandler       *handlers.VoiceHandler
	ConfigHandler      *handlers.ConfigHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthcheckHandler.Healthcheck)

	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
		api.POST("/refresh", cfg.AuthHandler.Refresh)
		api.GET("/affirmations/default", cfg.AffirmationHandler.ListDefaults)
		// Stored object names are unguessable; played directly by
		// audio elements that cannot attach headers.
		api.GET("/audio/file/*path", cfg.AudioHandler.ServeFile)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	// Auth
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/me", cfg.UserHandler.GetMe)
	// Categories
	protected.GET("/categories", cfg.AffirmationHandler.ListCategories)
	// Affirmations
	protected.GET("/affirmations", cfg.AffirmationHandler.List)
	protected.POST("/affirmations", cfg.AffirmationHandler.CreateCustom)
	protected.PUT("/affirmations/batch", cfg.AffirmationHandler.BatchUpdate)
	protected.PUT("/affirmations/:id", cfg.AffirmationHandler.Update)
	protected.DELETE("/affirmations/:id", cfg.AffirmationHandler.DeleteCustom)
	// Audio overrides
	protected.POST("/audio/upload/:affirmationID", cfg.AudioHandler.Upload)
	protected.DELETE("/audio/:affirmationID", cfg.AudioHandler.Remove)
	// Generation
	protected.POST("/generate/affirmation/:affirmationID", cfg.GenerationHandler.Generate)
	protected.POST("/generate/batch", cfg.GenerationHandler.BatchGenerate)
	protected.POST("/generate/preview", cfg.GenerationHandler.Preview)
	protected.POST("/generate/estimate", cfg.GenerationHandler.Estimate)
	// Voices
	protected.GET("/voices", cfg.VoiceHandler.List)
	protected.GET("/voices/default", cfg.VoiceHandler.GetDefault)
	protected.GET("/voices/user-info", cfg.GenerationHandler.UserInfo)
	protected.POST("/voices", cfg.VoiceHandler.Create)
	protected.PUT("/voices/:id/default", cfg.VoiceHandler.SetDefault)
	// Config
	protected.GET("/config", cfg.ConfigHandler.Get)
	protected.PUT("/config", cfg.ConfigHandler.Update)

	return router
}
