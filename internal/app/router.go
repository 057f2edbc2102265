package app

import (
	"github.com/gin-gonic/gin"

	"github.com/hypnosapp/hypnos-backend/internal/server"
)

func wireRouter(cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AllowedOrigins:     cfg.AllowedOrigins,
		AuthMiddleware:     middleware.Auth,
		HealthcheckHandler: handlers.Healthcheck,
		AuthHandler:        handlers.Auth,
		UserHandler:        handlers.User,
		AffirmationHandler: handlers.Affirmation,
		AudioHandler:       handlers.Audio,
		GenerationHandler:  handlers.Generation,
		VoiceHandler:       handlers.Voice,
		ConfigHandler:      handlers.Config,
	})
}
