package app

import (
	"gorm.io/gorm"

	"github.com/hypnosapp/hypnos-backend/internal/logger"
	"github.com/hypnosapp/hypnos-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	User        services.UserService
	Affirmation services.AffirmationService
	Audio       services.AudioService
	Generation  services.GenerationService
	Voice       services.VoiceService
	Config      services.ConfigService
	Seed        services.SeedService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	authService := services.NewAuthService(
		db, log,
		repos.User,
		repos.UserToken,
		cfg.JWTSecretKey,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)

	userService := services.NewUserService(log, repos.User)

	affirmationService := services.NewAffirmationService(
		db, log,
		repos.Affirmation,
		repos.Category,
		repos.UserAffirmation,
		clients.Storage,
	)

	audioService := services.NewAudioService(log, clients.Storage, affirmationService)

	generationService := services.NewGenerationService(
		log,
		repos.Affirmation,
		repos.Category,
		repos.Voice,
		affirmationService,
		clients.Storage,
		clients.TTS,
	)

	voiceService := services.NewVoiceService(log, repos.Voice)
	configService := services.NewConfigService(log, repos.UserConfig)
	seedService := services.NewSeedService(log, repos.Category, repos.Affirmation, repos.Voice)

	return Services{
		Auth:        authService,
		User:        userService,
		Affirmation: affirmationService,
		Audio:       audioService,
		Generation:  generationService,
		Voice:       voiceService,
		Config:      configService,
		Seed:        seedService,
	}, nil
}
