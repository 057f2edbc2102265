package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Voice is a configured TTS persona. At most one voice carries
// IsDefault at a time; setting a new default clears the previous one
// in the same transaction.
type Voice struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalVoiceID string    `gorm:"column:external_voice_id;not null;uniqueIndex" json:"external_voice_id"`
	Slug            string    `gorm:"not null;uniqueIndex" json:"slug"`
	Name            string    `gorm:"not null" json:"name"`
	DisplayName     string    `gorm:"column:display_name" json:"display_name"`
	Gender          string    `gorm:"not null;default:'male'" json:"gender"`
	IsDefault       bool      `gorm:"column:is_default;not null;default:false" json:"is_default"`
	IsActive        bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	DisplayOrder    int       `gorm:"column:display_order;not null;default:0" json:"order"`
	PreviewURL      *string   `gorm:"column:preview_url" json:"preview_url,omitempty"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (Voice) TableName() string { return "voice" }

func (v *Voice) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
