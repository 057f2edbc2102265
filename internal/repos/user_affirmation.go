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

type UserAffirmationRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserAffirmation, error)
	GetByID(ctx context.Context, tx *gorm.DB, overrideID uuid.UUID) (*types.UserAffirmation, error)
	GetByUserAndAffirmation(ctx context.Context, tx *gorm.DB, userID, affirmationID uuid.UUID) (*types.UserAffirmation, error)
	Upsert(ctx context.Context, tx *gorm.DB, userID, affirmationID uuid.UUID, defaultOrder int, fields map[string]any) (*types.UserAffirmation, error)
	CreateCustom(ctx context.Context, tx *gorm.DB, override *types.UserAffirmation) (*types.UserAffirmation, error)
	DeleteCustom(ctx context.Context, tx *gorm.DB, userID, overrideID uuid.UUID) (bool, error)
	ClearAudio(ctx context.Context, tx *gorm.DB, userID, affirmationID uuid.UUID) error
}

type userAffirmationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserAffirmationRepo(db *gorm.DB, baseLog *logger.Logger) UserAffirmationRepo {
	repoLog := baseLog.With("repo", "UserAffirmationRepo")
	return &userAffirmationRepo{db: db, log: repoLog}
}

func (r *userAffirmationRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserAffirmation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.UserAffirmation
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userAffirmationRepo) GetByID(ctx context.Context, tx *gorm.DB, overrideID uuid.UUID) (*types.UserAffirmation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.UserAffirmation
	if err := transaction.WithContext(ctx).
		Where("id = ?", overrideID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *userAffirmationRepo) GetByUserAndAffirmation(ctx context.Context, tx *gorm.DB, userID, affirmationID uuid.UUID) (*types.UserAffirmation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.UserAffirmation
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND affirmation_id = ?", userID, affirmationID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Upsert applies the given column assignments to the override for
// (userID, affirmationID), inserting a fresh row when none exists. A
// fresh row starts from the catalog's defaultOrder, so a first-touch
// audio or enabled write never moves the affirmation to position 0.
// Two concurrent writers race to a last-writer-wins outcome on the
// unique (user_id, affirmation_id) index.
func (r *userAffirmationRepo) Upsert(ctx context.Context, tx *gorm.DB, userID, affirmationID uuid.UUID, defaultOrder int, fields map[string]any) (*types.UserAffirmation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	affID := affirmationID
	row := &types.UserAffirmation{
		ID:            uuid.New(),
		UserID:        userID,
		AffirmationID: &affID,
		Enabled:       true,
		DisplayOrder:  defaultOrder,
		AudioSource:   types.AudioSourceSystem,
	}
	applyOverrideFields(row, fields)

	assignments := make(map[string]any, len(fields)+1)
	for column, value := range fields {
		assignments[column] = value
	}
	// clause.Assignments bypasses gorm's auto-touch of UpdatedAt.
	assignments["updated_at"] = time.Now().UTC()

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "affirmation_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}

	return r.GetByUserAndAffirmation(ctx, transaction, userID, affirmationID)
}

func (r *userAffirmationRepo) CreateCustom(ctx context.Context, tx *gorm.DB, override *types.UserAffirmation) (*types.UserAffirmation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(override).Error; err != nil {
		return nil, err
	}
	return override, nil
}

// DeleteCustom removes a custom override. The affirmation_id IS NULL
// guard keeps system-linked overrides out of reach regardless of the
// id passed in.
func (r *userAffirmationRepo) DeleteCustom(ctx context.Context, tx *gorm.DB, userID, overrideID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ? AND affirmation_id IS NULL", overrideID, userID).
		Delete(&types.UserAffirmation{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *userAffirmationRepo) ClearAudio(ctx context.Context, tx *gorm.DB, userID, affirmationID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.UserAffirmation{}).
		Where("user_id = ? AND affirmation_id = ?", userID, affirmationID).
		Updates(map[string]any{
			"audio_path":        nil,
			"audio_source":      types.AudioSourceSystem,
			"audio_duration_ms": nil,
		}).Error
}

func applyOverrideFields(row *types.UserAffirmation, fields map[string]any) {
	for column, value := range fields {
		switch column {
		case "enabled":
			if v, ok := value.(bool); ok {
				row.Enabled = v
			}
		case "display_order":
			if v, ok := value.(int); ok {
				row.DisplayOrder = v
			}
		case "audio_path":
			switch v := value.(type) {
			case string:
				row.AudioPath = &v
			case *string:
				row.AudioPath = v
			case nil:
				row.AudioPath = nil
			}
		case "audio_source":
			if v, ok := value.(string); ok {
				row.AudioSource = v
			}
		case "audio_duration_ms":
			switch v := value.(type) {
			case int:
				row.AudioDurationMs = &v
			case *int:
				row.AudioDurationMs = v
			case nil:
				row.AudioDurationMs = nil
			}
		}
	}
}
