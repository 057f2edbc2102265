package app

import (
	"github.com/hypnosapp/hypnos-backend/internal/handlers"
	"github.com/hypnosapp/hypnos-backend/internal/logger"
)

type Handlers struct {
	Healthcheck *handlers.HealthcheckHandler
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Affirmation *handlers.AffirmationHandler
	Audio       *handlers.AudioHandler
	Generation  *handlers.GenerationHandler
	Voice       *handlers.VoiceHandler
	Config      *handlers.ConfigHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Healthcheck: handlers.NewHealthcheckHandler(),
		Auth:        handlers.NewAuthHandler(services.Auth),
		User:        handlers.NewUserHandler(services.User),
		Affirmation: handlers.NewAffirmationHandler(services.Affirmation, services.Voice, services.User),
		Audio:       handlers.NewAudioHandler(services.Audio, services.User),
		Generation:  handlers.NewGenerationHandler(services.Generation, services.User),
		Voice:       handlers.NewVoiceHandler(services.Voice),
		Config:      handlers.NewConfigHandler(services.Config),
	}
}
