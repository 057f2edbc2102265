package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AudioRef describes one stored audio asset for an (affirmation, voice)
// pair. Path is the storage backend key; URL is resolvable without the
// backend once written.
type AudioRef struct {
	Path        string    `json:"path"`
	URL         string    `json:"url"`
	DurationMs  *int      `json:"duration_ms,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// AudioMap keys AudioRefs by voice id.
type AudioMap map[string]AudioRef

type Affirmation struct {
	ID           uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID   uuid.UUID                     `gorm:"type:uuid;not null;index" json:"category_id"`
	Category     *Category                     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	Text         string                        `gorm:"not null" json:"text"`
	DisplayOrder int                           `gorm:"column:display_order;not null;default:0" json:"order"`
	AudioByVoice datatypes.JSONType[AudioMap]  `gorm:"column:audio_by_voice" json:"audio_by_voice"`
	// Deprecated single-slot audio field, kept readable for rows that
	// predate per-voice audio. Writers only ever touch AudioByVoice.
	LegacyAudioURL *string   `gorm:"column:legacy_audio_url" json:"legacy_audio_url,omitempty"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (Affirmation) TableName() string { return "affirmation" }

func (a *Affirmation) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AudioFor returns the stored per-voice audio entry, if any.
func (a *Affirmation) AudioFor(voiceID uuid.UUID) (AudioRef, bool) {
	m := a.AudioByVoice.Data()
	if m == nil {
		return AudioRef{}, false
	}
	ref, ok := m[voiceID.String()]
	if !ok || ref.Path == "" {
		return AudioRef{}, false
	}
	return ref, true
}
