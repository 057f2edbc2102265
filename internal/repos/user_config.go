package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hypnosapp/hypnos-backend/internal/logger"
	"github.com/hypnosapp/hypnos-backend/internal/types"
)

type UserConfigRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserConfig, error)
	Create(ctx context.Context, tx *gorm.DB, cfg *types.UserConfig) (*types.UserConfig, error)
	Upsert(ctx context.Context, tx *gorm.DB, userID uuid.UUID, fields map[string]any) (*types.UserConfig, error)
}

type userConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserConfigRepo(db *gorm.DB, baseLog *logger.Logger) UserConfigRepo {
	repoLog := baseLog.With("repo", "UserConfigRepo")
	return &userConfigRepo{db: db, log: repoLog}
}

func (r *userConfigRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.UserConfig
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *userConfigRepo) Create(ctx context.Context, tx *gorm.DB, cfg *types.UserConfig) (*types.UserConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(cfg).Error; err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *userConfigRepo) Upsert(ctx context.Context, tx *gorm.DB, userID uuid.UUID, fields map[string]any) (*types.UserConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	row := types.DefaultUserConfig(userID)
	applyConfigFields(row, fields)

	assignments := make(map[string]any, len(fields)+1)
	for column, value := range fields {
		assignments[column] = value
	}
	// clause.Assignments bypasses gorm's auto-touch of UpdatedAt.
	assignments["updated_at"] = time.Now().UTC()

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}

	return r.GetByUserID(ctx, transaction, userID)
}

func applyConfigFields(row *types.UserConfig, fields map[string]any) {
	for column, value := range fields {
		v, ok := value.(float64)
		if !ok {
			continue
		}
		switch column {
		case "binaural_base_freq":
			row.BinauralBaseFreq = v
		case "binaural_beat_freq":
			row.BinauralBeatFreq = v
		case "binaural_volume":
			row.BinauralVolume = v
		case "voice_volume":
			row.VoiceVolume = v
		case "gap_between_sec":
			row.GapBetweenSec = v
		}
	}
}
