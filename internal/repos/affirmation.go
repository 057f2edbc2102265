package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hypnosapp/hypnos-backend/internal/logger"
	"github.com/hypnosapp/hypnos-backend/internal/types"
)

type AffirmationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, affirmations []*types.Affirmation) ([]*types.Affirmation, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Affirmation, error)
	GetByCategoryID(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) ([]*types.Affirmation, error)
	GetByID(ctx context.Context, tx *gorm.DB, affirmationID uuid.UUID) (*types.Affirmation, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, affirmationIDs []uuid.UUID) ([]*types.Affirmation, error)
	SetAudioForVoice(ctx context.Context, tx *gorm.DB, affirmationID, voiceID uuid.UUID, ref types.AudioRef) error
	HasAudioForVoice(ctx context.Context, tx *gorm.DB, affirmationID, voiceID uuid.UUID) (bool, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type affirmationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAffirmationRepo(db *gorm.DB, baseLog *logger.Logger) AffirmationRepo {
	repoLog := baseLog.With("repo", "AffirmationRepo")
	return &affirmationRepo{db: db, log: repoLog}
}

func (r *affirmationRepo) Create(ctx context.Context, tx *gorm.DB, affirmations []*types.Affirmation) ([]*types.Affirmation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(affirmations) == 0 {
		return []*types.Affirmation{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&affirmations).Error; err != nil {
		return nil, err
	}
	return affirmations, nil
}

func (r *affirmationRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Affirmation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Affirmation
	if err := transaction.WithContext(ctx).
		Order("category_id ASC, display_order ASC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *affirmationRepo) GetByCategoryID(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) ([]*types.Affirmation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Affirmation
	if err := transaction.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("display_order ASC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *affirmationRepo) GetByID(ctx context.Context, tx *gorm.DB, affirmationID uuid.UUID) (*types.Affirmation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Affirmation
	if err := transaction.WithContext(ctx).
		Where("id = ?", affirmationID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *affirmationRepo) GetByIDs(ctx context.Context, tx *gorm.DB, affirmationIDs []uuid.UUID) ([]*types.Affirmation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Affirmation
	if len(affirmationIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", affirmationIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// SetAudioForVoice upserts one voice's entry into the per-voice audio
// map without touching other voices' entries. Runs in its own
// transaction when the caller did not supply one, so the
// read-modify-write of the map column stays atomic.
func (r *affirmationRepo) SetAudioForVoice(ctx context.Context, tx *gorm.DB, affirmationID, voiceID uuid.UUID, ref types.AudioRef) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		var aff types.Affirmation
		if err := inner.Where("id = ?", affirmationID).First(&aff).Error; err != nil {
			return err
		}

		m := aff.AudioByVoice.Data()
		if m == nil {
			m = types.AudioMap{}
		}
		m[voiceID.String()] = ref

		return inner.Model(&types.Affirmation{}).
			Where("id = ?", affirmationID).
			Update("audio_by_voice", datatypes.NewJSONType(m)).Error
	})
}

func (r *affirmationRepo) HasAudioForVoice(ctx context.Context, tx *gorm.DB, affirmationID, voiceID uuid.UUID) (bool, error) {
	aff, err := r.GetByID(ctx, tx, affirmationID)
	if err != nil {
		return false, err
	}
	_, ok := aff.AudioFor(voiceID)
	return ok, nil
}

func (r *affirmationRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Affirmation{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
