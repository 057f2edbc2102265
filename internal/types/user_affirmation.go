package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AudioSourceSystem    = "system"
	AudioSourceGenerated = "generated"
	AudioSourceRecorded  = "recorded"
)

// UserAffirmation is a per-user customization record. A nil
// AffirmationID marks a custom affirmation: a user-authored line that
// has no catalog counterpart, in which case CategoryID and CustomText
// are required.
type UserAffirmation struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_affirmation_target,priority:1" json:"user_id"`
	AffirmationID *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_affirmation_target,priority:2" json:"affirmation_id,omitempty"`
	CategoryID    *uuid.UUID `gorm:"type:uuid" json:"category_id,omitempty"`
	CustomText    *string    `gorm:"column:custom_text" json:"custom_text,omitempty"`

	// No column defaults: gorm omits zero-valued fields that carry a
	// default tag, which would turn an inserted enabled=false into the
	// column default. Writers always set both fields explicitly.
	Enabled      bool `gorm:"not null" json:"enabled"`
	DisplayOrder int  `gorm:"column:display_order;not null" json:"order"`

	AudioPath       *string `gorm:"column:audio_path" json:"audio_path,omitempty"`
	AudioSource     string  `gorm:"column:audio_source;not null;default:'system'" json:"audio_source"`
	AudioDurationMs *int    `gorm:"column:audio_duration_ms" json:"audio_duration_ms,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserAffirmation) TableName() string { return "user_affirmation" }

func (ua *UserAffirmation) BeforeCreate(tx *gorm.DB) error {
	if ua.ID == uuid.Nil {
		ua.ID = uuid.New()
	}
	return nil
}

func (ua *UserAffirmation) IsCustom() bool { return ua.AffirmationID == nil }

// HasAudio reports whether the override carries its own audio asset.
func (ua *UserAffirmation) HasAudio() bool {
	return ua.AudioPath != nil && *ua.AudioPath != ""
}
