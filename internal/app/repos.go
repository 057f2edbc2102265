package app

import (
	"gorm.io/gorm"

	"github.com/hypnosapp/hypnos-backend/internal/logger"
	"github.com/hypnosapp/hypnos-backend/internal/repos"
)

type Repos struct {
	User            repos.UserRepo
	UserToken       repos.UserTokenRepo
	Category        repos.CategoryRepo
	Affirmation     repos.AffirmationRepo
	UserAffirmation repos.UserAffirmationRepo
	Voice           repos.VoiceRepo
	UserConfig      repos.UserConfigRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:            repos.NewUserRepo(db, log),
		UserToken:       repos.NewUserTokenRepo(db, log),
		Category:        repos.NewCategoryRepo(db, log),
		Affirmation:     repos.NewAffirmationRepo(db, log),
		UserAffirmation: repos.NewUserAffirmationRepo(db, log),
		Voice:           repos.NewVoiceRepo(db, log),
		UserConfig:      repos.NewUserConfigRepo(db, log),
	}
}
