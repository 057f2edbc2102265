package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hypnosapp/hypnos-backend/internal/logger"
	"github.com/hypnosapp/hypnos-backend/internal/types"
)

type VoiceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, voice *types.Voice) (*types.Voice, error)
	GetAll(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.Voice, error)
	GetByID(ctx context.Context, tx *gorm.DB, voiceID uuid.UUID) (*types.Voice, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Voice, error)
	GetDefault(ctx context.Context, tx *gorm.DB) (*types.Voice, error)
	SetDefault(ctx context.Context, tx *gorm.DB, voiceID uuid.UUID) error
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type voiceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVoiceRepo(db *gorm.DB, baseLog *logger.Logger) VoiceRepo {
	repoLog := baseLog.With("repo", "VoiceRepo")
	return &voiceRepo{db: db, log: repoLog}
}

// Create inserts a voice. When the new voice is marked default, every
// other default flag is cleared in the same transaction so at most
// one default exists at any time.
func (r *voiceRepo) Create(ctx context.Context, tx *gorm.DB, voice *types.Voice) (*types.Voice, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	err := transaction.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if voice.IsDefault {
			if err := inner.Model(&types.Voice{}).
				Where("is_default = ?", true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return inner.Create(voice).Error
	})
	if err != nil {
		return nil, err
	}
	return voice, nil
}

func (r *voiceRepo) GetAll(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.Voice, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).Order("display_order ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var results []*types.Voice
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *voiceRepo) GetByID(ctx context.Context, tx *gorm.DB, voiceID uuid.UUID) (*types.Voice, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Voice
	if err := transaction.WithContext(ctx).
		Where("id = ?", voiceID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *voiceRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Voice, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Voice
	if err := transaction.WithContext(ctx).
		Where("slug = ?", slug).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *voiceRepo) GetDefault(ctx context.Context, tx *gorm.DB) (*types.Voice, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Voice
	err := transaction.WithContext(ctx).
		Where("is_default = ? AND is_active = ?", true, true).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SetDefault promotes a voice to default, demoting the previous
// default atomically.
func (r *voiceRepo) SetDefault(ctx context.Context, tx *gorm.DB, voiceID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if err := inner.Model(&types.Voice{}).
			Where("is_default = ?", true).
			Update("is_default", false).Error; err != nil {
			return err
		}
		res := inner.Model(&types.Voice{}).
			Where("id = ?", voiceID).
			Update("is_default", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *voiceRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Voice{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
