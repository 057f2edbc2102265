package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/logger"
	"github.com/hypnosapp/hypnos-backend/internal/repos"
	"github.com/hypnosapp/hypnos-backend/internal/storage"
	"github.com/hypnosapp/hypnos-backend/internal/types"
)

const maxCustomTextLen = 500

// ResolvedAffirmation is one playable entry of the merged user view.
type ResolvedAffirmation struct {
	ID                uuid.UUID  `json:"id"`
	UserAffirmationID *uuid.UUID `json:"user_affirmation_id,omitempty"`
	CategoryID        uuid.UUID  `json:"category_id"`
	Text              string     `json:"text"`
	Enabled           bool       `json:"enabled"`
	Order             int        `json:"order"`
	AudioURL          *string    `json:"audio_url"`
	AudioSource       string     `json:"audio_source"`
	AudioDurationMs   *int       `json:"audio_duration_ms,omitempty"`
	IsCustom          bool       `json:"is_custom"`
}

// OverrideUpdate is one entry of a batch update. Entries without an
// id are skipped.
type OverrideUpdate struct {
	AffirmationID *uuid.UUID `json:"id"`
	Enabled       *bool      `json:"enabled,omitempty"`
	Order         *int       `json:"order,omitempty"`
}

type AffirmationService interface {
	ListCategories(ctx context.Context) ([]*types.Category, error)
	ListDefaults(ctx context.Context, categoryID, voiceID *uuid.UUID) ([]*ResolvedAffirmation, error)
	GetUserAffirmations(ctx context.Context, userID uuid.UUID, voiceID *uuid.UUID) ([]*ResolvedAffirmation, error)
	UpsertOverride(ctx context.Context, userID, affirmationID uuid.UUID, fields map[string]any) (*types.UserAffirmation, error)
	SetOverrideAudio(ctx context.Context, userID, affirmationID uuid.UUID, audioPath, audioSource string, durationMs *int) (*types.UserAffirmation, error)
	CreateCustom(ctx context.Context, userID, categoryID uuid.UUID, text string, order int) (*types.UserAffirmation, error)
	DeleteCustom(ctx context.Context, userID, overrideID uuid.UUID) error
	RemoveAudio(ctx context.Context, userID, affirmationID uuid.UUID) error
	BatchUpdate(ctx context.Context, userID uuid.UUID, updates []OverrideUpdate) (int, error)
}

type affirmationService struct {
	db                  *gorm.DB
	log                 *logger.Logger
	affirmationRepo     repos.AffirmationRepo
	categoryRepo        repos.CategoryRepo
	userAffirmationRepo repos.UserAffirmationRepo
	backend             storage.Backend
}

func NewAffirmationService(
	db *gorm.DB,
	log *logger.Logger,
	affirmationRepo repos.AffirmationRepo,
	categoryRepo repos.CategoryRepo,
	userAffirmationRepo repos.UserAffirmationRepo,
	backend storage.Backend,
) AffirmationService {
	serviceLog := log.With("service", "AffirmationService")
	return &affirmationService{
		db:                  db,
		log:                 serviceLog,
		affirmationRepo:     affirmationRepo,
		categoryRepo:        categoryRepo,
		userAffirmationRepo: userAffirmationRepo,
		backend:             backend,
	}
}

func (s *affirmationService) ListCategories(ctx context.Context) ([]*types.Category, error) {
	categories, err := s.categoryRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// ListDefaults projects the raw catalog without any user overlay,
// optionally narrowed to one category and resolved against a voice.
func (s *affirmationService) ListDefaults(ctx context.Context, categoryID, voiceID *uuid.UUID) ([]*ResolvedAffirmation, error) {
	var affs []*types.Affirmation
	var err error
	if categoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, nil, *categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierr.NotFound(fmt.Errorf("category %s not found", *categoryID))
			}
			return nil, fmt.Errorf("load category: %w", err)
		}
		affs, err = s.affirmationRepo.GetByCategoryID(ctx, nil, *categoryID)
	} else {
		affs, err = s.affirmationRepo.GetAll(ctx, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("list system affirmations: %w", err)
	}

	result := make([]*ResolvedAffirmation, 0, len(affs))
	for _, aff := range affs {
		entry := &ResolvedAffirmation{
			ID:         aff.ID,
			CategoryID: aff.CategoryID,
			Text:       aff.Text,
			Enabled:    true,
			Order:      aff.DisplayOrder,
		}
		entry.AudioURL, entry.AudioSource, entry.AudioDurationMs = s.resolveAudio(aff, nil, voiceID)
		result = append(result, entry)
	}
	return result, nil
}

// GetUserAffirmations merges the catalog with the user's overrides
// into the final ordered list of playable entries. Audio resolves in
// strict precedence: the override's own audio, then the catalog's
// per-voice entry for the requested voice, then the legacy single
// audio slot, then nothing. Pure read; no store is mutated.
func (s *affirmationService) GetUserAffirmations(ctx context.Context, userID uuid.UUID, voiceID *uuid.UUID) ([]*ResolvedAffirmation, error) {
	overrides, err := s.userAffirmationRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load user overrides: %w", err)
	}

	systemAffs, err := s.affirmationRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load system affirmations: %w", err)
	}

	overrideByAffirmation := make(map[uuid.UUID]*types.UserAffirmation)
	var customs []*types.UserAffirmation
	for _, ov := range overrides {
		if ov.IsCustom() {
			customs = append(customs, ov)
			continue
		}
		overrideByAffirmation[*ov.AffirmationID] = ov
	}

	result := make([]*ResolvedAffirmation, 0, len(systemAffs)+len(customs))
	for _, aff := range systemAffs {
		ov := overrideByAffirmation[aff.ID]

		entry := &ResolvedAffirmation{
			ID:         aff.ID,
			CategoryID: aff.CategoryID,
			Text:       aff.Text,
			Enabled:    true,
			Order:      aff.DisplayOrder,
		}
		if ov != nil {
			ovID := ov.ID
			entry.UserAffirmationID = &ovID
			entry.Enabled = ov.Enabled
			entry.Order = ov.DisplayOrder
		}
		entry.AudioURL, entry.AudioSource, entry.AudioDurationMs = s.resolveAudio(aff, ov, voiceID)

		result = append(result, entry)
	}

	for _, custom := range customs {
		ovID := custom.ID
		entry := &ResolvedAffirmation{
			ID:                custom.ID,
			UserAffirmationID: &ovID,
			Text:              "",
			Enabled:           custom.Enabled,
			Order:             custom.DisplayOrder,
			AudioSource:       types.AudioSourceSystem,
			IsCustom:          true,
		}
		if custom.CategoryID != nil {
			entry.CategoryID = *custom.CategoryID
		}
		if custom.CustomText != nil {
			entry.Text = *custom.CustomText
		}
		if custom.HasAudio() {
			url := s.backend.Resolve(*custom.AudioPath)
			entry.AudioURL = &url
			entry.AudioSource = audioSourceOrDefault(custom.AudioSource)
			entry.AudioDurationMs = custom.AudioDurationMs
		}
		result = append(result, entry)
	}

	// Stable: equal keys keep catalog insertion order.
	sort.SliceStable(result, func(i, j int) bool {
		ci, cj := result[i].CategoryID.String(), result[j].CategoryID.String()
		if ci != cj {
			return ci < cj
		}
		return result[i].Order < result[j].Order
	})

	return result, nil
}

// resolveAudio picks exactly one audio asset for the entry, never a
// combination.
func (s *affirmationService) resolveAudio(aff *types.Affirmation, ov *types.UserAffirmation, voiceID *uuid.UUID) (*string, string, *int) {
	if ov != nil && ov.HasAudio() {
		url := s.backend.Resolve(*ov.AudioPath)
		return &url, audioSourceOrDefault(ov.AudioSource), ov.AudioDurationMs
	}

	if voiceID != nil {
		if ref, ok := aff.AudioFor(*voiceID); ok {
			url := ref.URL
			if url == "" {
				url = s.backend.Resolve(ref.Path)
			}
			return &url, types.AudioSourceSystem, ref.DurationMs
		}
	}

	if aff.LegacyAudioURL != nil && *aff.LegacyAudioURL != "" {
		return aff.LegacyAudioURL, types.AudioSourceSystem, nil
	}

	return nil, types.AudioSourceSystem, nil
}

func audioSourceOrDefault(source string) string {
	if source == "" {
		return types.AudioSourceSystem
	}
	return source
}

// overrideColumns maps the caller-facing field names onto override
// columns. Unknown fields are dropped silently.
func overrideColumns(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		switch key {
		case "enabled":
			if v, ok := value.(bool); ok {
				out["enabled"] = v
			}
		case "order":
			if v, ok := asInt(value); ok {
				out["display_order"] = v
			}
		case "audio_path":
			out["audio_path"] = value
		case "audio_source":
			if v, ok := value.(string); ok {
				out["audio_source"] = v
			}
		case "audio_duration_ms":
			if value == nil {
				out["audio_duration_ms"] = nil
			} else if v, ok := asInt(value); ok {
				out["audio_duration_ms"] = v
			}
		}
	}
	return out
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case *int:
		if v == nil {
			return 0, false
		}
		return *v, true
	default:
		return 0, false
	}
}

func (s *affirmationService) UpsertOverride(ctx context.Context, userID, affirmationID uuid.UUID, fields map[string]any) (*types.UserAffirmation, error) {
	columns := overrideColumns(fields)
	if len(columns) == 0 {
		return nil, apierr.Validation(fmt.Errorf("no valid fields to update"))
	}

	aff, err := s.affirmationRepo.GetByID(ctx, nil, affirmationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("affirmation %s not found", affirmationID))
		}
		return nil, fmt.Errorf("load affirmation: %w", err)
	}

	// A first-touch override inherits the catalog position unless the
	// caller sets one.
	override, err := s.userAffirmationRepo.Upsert(ctx, nil, userID, affirmationID, aff.DisplayOrder, columns)
	if err != nil {
		s.log.Error("Failed to upsert override", "user_id", userID, "affirmation_id", affirmationID, "error", err)
		return nil, fmt.Errorf("upsert override: %w", err)
	}
	return override, nil
}

// SetOverrideAudio records a new audio asset on the override,
// deleting the previous asset first. Delete-old-then-write-new keeps
// the row always pointing at the newest file.
func (s *affirmationService) SetOverrideAudio(ctx context.Context, userID, affirmationID uuid.UUID, audioPath, audioSource string, durationMs *int) (*types.UserAffirmation, error) {
	fields := map[string]any{
		"audio_path":   audioPath,
		"audio_source": audioSource,
	}
	if durationMs != nil {
		fields["audio_duration_ms"] = *durationMs
	} else {
		fields["audio_duration_ms"] = nil
	}
	return s.UpsertOverride(ctx, userID, affirmationID, fields)
}

func (s *affirmationService) CreateCustom(ctx context.Context, userID, categoryID uuid.UUID, text string, order int) (*types.UserAffirmation, error) {
	text = strings.TrimSpace(text)
	if text == "" || len([]rune(text)) > maxCustomTextLen {
		return nil, apierr.Validation(fmt.Errorf("custom text must be between 1 and %d characters", maxCustomTextLen))
	}
	if order < 0 {
		return nil, apierr.Validation(fmt.Errorf("order must not be negative"))
	}

	if _, err := s.categoryRepo.GetByID(ctx, nil, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("category %s not found", categoryID))
		}
		return nil, fmt.Errorf("load category: %w", err)
	}

	catID := categoryID
	override := &types.UserAffirmation{
		ID:           uuid.New(),
		UserID:       userID,
		CategoryID:   &catID,
		CustomText:   &text,
		Enabled:      true,
		DisplayOrder: order,
		AudioSource:  types.AudioSourceSystem,
	}

	created, err := s.userAffirmationRepo.CreateCustom(ctx, nil, override)
	if err != nil {
		s.log.Error("Failed to create custom affirmation", "user_id", userID, "error", err)
		return nil, fmt.Errorf("create custom affirmation: %w", err)
	}
	return created, nil
}

// DeleteCustom removes a custom override and its stored audio. Only
// rows with no catalog link are deletable; a storage failure on the
// audio file never blocks the row delete.
func (s *affirmationService) DeleteCustom(ctx context.Context, userID, overrideID uuid.UUID) error {
	override, err := s.userAffirmationRepo.GetByID(ctx, nil, overrideID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound(fmt.Errorf("custom affirmation %s not found", overrideID))
		}
		return fmt.Errorf("load override: %w", err)
	}
	if override.UserID != userID || !override.IsCustom() {
		return apierr.NotFound(fmt.Errorf("custom affirmation %s not found", overrideID))
	}

	if override.HasAudio() {
		if _, err := s.backend.Delete(ctx, *override.AudioPath); err != nil {
			s.log.Warn("Failed to delete custom affirmation audio, continuing", "path", *override.AudioPath, "error", err)
		}
	}

	deleted, err := s.userAffirmationRepo.DeleteCustom(ctx, nil, userID, overrideID)
	if err != nil {
		return fmt.Errorf("delete custom affirmation: %w", err)
	}
	if !deleted {
		return apierr.NotFound(fmt.Errorf("custom affirmation %s not found", overrideID))
	}
	return nil
}

// RemoveAudio clears the override's audio back to the system source
// after a best-effort delete of the stored object.
func (s *affirmationService) RemoveAudio(ctx context.Context, userID, affirmationID uuid.UUID) error {
	override, err := s.userAffirmationRepo.GetByUserAndAffirmation(ctx, nil, userID, affirmationID)
	if err != nil {
		return fmt.Errorf("load override: %w", err)
	}
	if override == nil {
		return nil
	}

	if override.HasAudio() {
		if _, err := s.backend.Delete(ctx, *override.AudioPath); err != nil {
			s.log.Warn("Failed to delete override audio, continuing", "path", *override.AudioPath, "error", err)
		}
	}

	if err := s.userAffirmationRepo.ClearAudio(ctx, nil, userID, affirmationID); err != nil {
		return fmt.Errorf("clear override audio: %w", err)
	}
	return nil
}

// BatchUpdate applies each entry independently. Entries without an id
// are skipped, a failing entry does not stop the rest, and the count
// of applied updates is returned.
func (s *affirmationService) BatchUpdate(ctx context.Context, userID uuid.UUID, updates []OverrideUpdate) (int, error) {
	applied := 0
	for _, update := range updates {
		if update.AffirmationID == nil {
			continue
		}

		fields := map[string]any{}
		if update.Enabled != nil {
			fields["enabled"] = *update.Enabled
		}
		if update.Order != nil {
			fields["order"] = *update.Order
		}
		if len(fields) == 0 {
			continue
		}

		if _, err := s.UpsertOverride(ctx, userID, *update.AffirmationID, fields); err != nil {
			s.log.Warn("Batch entry failed, continuing", "affirmation_id", *update.AffirmationID, "error", err)
			continue
		}
		applied++
	}
	return applied, nil
}
