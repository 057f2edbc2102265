package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserConfig holds per-user playback preferences for the binaural
// background layer. Values are clamped to safe ranges on update.
// No column defaults: gorm omits zero-valued fields that carry a
// default tag, which would turn a stored volume of 0 back into the
// column default. Writers start from DefaultUserConfig instead.
type UserConfig struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	BinauralBaseFreq float64   `gorm:"column:binaural_base_freq;not null" json:"binaural_base_freq"`
	BinauralBeatFreq float64   `gorm:"column:binaural_beat_freq;not null" json:"binaural_beat_freq"`
	BinauralVolume   float64   `gorm:"column:binaural_volume;not null" json:"binaural_volume"`
	VoiceVolume      float64   `gorm:"column:voice_volume;not null" json:"voice_volume"`
	GapBetweenSec    float64   `gorm:"column:gap_between_sec;not null" json:"gap_between_sec"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

// DefaultUserConfig returns the baseline playback settings for a user.
func DefaultUserConfig(userID uuid.UUID) *UserConfig {
	return &UserConfig{
		ID:               uuid.New(),
		UserID:           userID,
		BinauralBaseFreq: 200,
		BinauralBeatFreq: 10,
		BinauralVolume:   0.5,
		VoiceVolume:      0.8,
		GapBetweenSec:    2,
	}
}

func (UserConfig) TableName() string { return "user_config" }

func (c *UserConfig) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
