package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/clients/elevenlabs"
	"github.com/hypnosapp/hypnos-backend/internal/logger"
	"github.com/hypnosapp/hypnos-backend/internal/repos"
	"github.com/hypnosapp/hypnos-backend/internal/storage"
	"github.com/hypnosapp/hypnos-backend/internal/types"
)

// Spoken duration estimate assumes ~150 words per minute of calm
// speech; the provider does not report a measured length.
const wordsPerMinute = 150

const batchGenerationConcurrency = 4

type GenerationResult struct {
	AffirmationID   uuid.UUID `json:"affirmation_id"`
	AudioURL        string    `json:"audio_url"`
	AudioDurationMs int       `json:"audio_duration_ms"`
}

type BatchItemError struct {
	AffirmationID uuid.UUID `json:"affirmation_id"`
	Error         string    `json:"error"`
}

type BatchResult struct {
	Generated []*GenerationResult `json:"generated"`
	Errors    []BatchItemError    `json:"errors"`
}

// GenerationService drives the speech-synthesis provider: one-off
// clips for a user override, shared per-voice catalog audio, and
// batches of either.
type GenerationService interface {
	GenerateForUser(ctx context.Context, userID, affirmationID, voiceID uuid.UUID) (*GenerationResult, error)
	GenerateForCatalog(ctx context.Context, affirmationID, voiceID uuid.UUID) (*types.AudioRef, error)
	BatchGenerateForUser(ctx context.Context, userID uuid.UUID, affirmationIDs []uuid.UUID, voiceID uuid.UUID) (*BatchResult, error)
	Preview(ctx context.Context, text string, voiceID uuid.UUID) ([]byte, error)
	EstimateDurationMs(text string) int
	RemainingCharacters(ctx context.Context) (int, error)
}

type generationService struct {
	log                *logger.Logger
	affirmationRepo    repos.AffirmationRepo
	categoryRepo       repos.CategoryRepo
	voiceRepo          repos.VoiceRepo
	affirmationService AffirmationService
	backend            storage.Backend
	tts                elevenlabs.Client
}

func NewGenerationService(
	log *logger.Logger,
	affirmationRepo repos.AffirmationRepo,
	categoryRepo repos.CategoryRepo,
	voiceRepo repos.VoiceRepo,
	affirmationService AffirmationService,
	backend storage.Backend,
	tts elevenlabs.Client,
) GenerationService {
	serviceLog := log.With("service", "GenerationService")
	return &generationService{
		log:                serviceLog,
		affirmationRepo:    affirmationRepo,
		categoryRepo:       categoryRepo,
		voiceRepo:          voiceRepo,
		affirmationService: affirmationService,
		backend:            backend,
		tts:                tts,
	}
}

func (s *generationService) GenerateForUser(ctx context.Context, userID, affirmationID, voiceID uuid.UUID) (*GenerationResult, error) {
	voice, err := s.loadVoice(ctx, voiceID)
	if err != nil {
		return nil, err
	}

	aff, err := s.loadAffirmation(ctx, affirmationID)
	if err != nil {
		return nil, err
	}

	audio, err := s.tts.GenerateAudio(ctx, aff.Text, voice.ExternalVoiceID)
	if err != nil {
		s.log.Error("Speech synthesis failed", "affirmation_id", affirmationID, "error", err)
		return nil, apierr.Provider(fmt.Errorf("generate audio: %w", err))
	}

	if err := s.affirmationService.RemoveAudio(ctx, userID, affirmationID); err != nil {
		return nil, fmt.Errorf("remove previous audio: %w", err)
	}

	audioPath, err := s.backend.Save(ctx, audio, "affirmation.mp3", "audio/mpeg", false)
	if err != nil {
		return nil, err
	}

	durationMs := s.EstimateDurationMs(aff.Text)
	if _, err := s.affirmationService.SetOverrideAudio(ctx, userID, affirmationID, audioPath, types.AudioSourceGenerated, &durationMs); err != nil {
		return nil, err
	}

	return &GenerationResult{
		AffirmationID:   affirmationID,
		AudioURL:        s.backend.Resolve(audioPath),
		AudioDurationMs: durationMs,
	}, nil
}

// GenerateForCatalog produces the shared per-voice asset and records
// it in the catalog's audio map under a stable, content-addressed
// layout so regeneration overwrites in place.
func (s *generationService) GenerateForCatalog(ctx context.Context, affirmationID, voiceID uuid.UUID) (*types.AudioRef, error) {
	voice, err := s.loadVoice(ctx, voiceID)
	if err != nil {
		return nil, err
	}

	aff, err := s.loadAffirmation(ctx, affirmationID)
	if err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.GetByID(ctx, nil, aff.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}

	audio, err := s.tts.GenerateAudio(ctx, aff.Text, voice.ExternalVoiceID)
	if err != nil {
		s.log.Error("Speech synthesis failed", "affirmation_id", affirmationID, "error", err)
		return nil, apierr.Provider(fmt.Errorf("generate audio: %w", err))
	}

	key := fmt.Sprintf("voices/%s/affirmations/%s/%s.mp3", voice.ID, category.Slug, aff.ID)
	storedPath, err := s.backend.Save(ctx, audio, key, "audio/mpeg", true)
	if err != nil {
		return nil, err
	}

	durationMs := s.EstimateDurationMs(aff.Text)
	ref := types.AudioRef{
		Path:        storedPath,
		URL:         s.backend.Resolve(storedPath),
		DurationMs:  &durationMs,
		GeneratedAt: time.Now().UTC(),
	}

	if err := s.affirmationRepo.SetAudioForVoice(ctx, nil, affirmationID, voiceID, ref); err != nil {
		return nil, fmt.Errorf("record catalog audio: %w", err)
	}
	return &ref, nil
}

// BatchGenerateForUser generates clips for many affirmations,
// continuing past per-item failures. The character budget is checked
// up front; a cancelled context stops scheduling but leaves finished
// items in place.
func (s *generationService) BatchGenerateForUser(ctx context.Context, userID uuid.UUID, affirmationIDs []uuid.UUID, voiceID uuid.UUID) (*BatchResult, error) {
	if len(affirmationIDs) == 0 {
		return nil, apierr.Validation(fmt.Errorf("affirmation_ids is required"))
	}

	if _, err := s.loadVoice(ctx, voiceID); err != nil {
		return nil, err
	}

	affs, err := s.affirmationRepo.GetByIDs(ctx, nil, affirmationIDs)
	if err != nil {
		return nil, fmt.Errorf("load affirmations: %w", err)
	}
	found := make(map[uuid.UUID]*types.Affirmation, len(affs))
	totalChars := 0
	for _, aff := range affs {
		found[aff.ID] = aff
		totalChars += len(aff.Text)
	}

	remaining, err := s.RemainingCharacters(ctx)
	if err != nil {
		return nil, err
	}
	if totalChars > remaining {
		return nil, apierr.Provider(fmt.Errorf("not enough characters remaining: required %d, remaining %d", totalChars, remaining))
	}

	result := &BatchResult{}
	var mu sync.Mutex

	group := &errgroup.Group{}
	group.SetLimit(batchGenerationConcurrency)

	for _, affirmationID := range affirmationIDs {
		affirmationID := affirmationID

		if _, ok := found[affirmationID]; !ok {
			result.Errors = append(result.Errors, BatchItemError{
				AffirmationID: affirmationID,
				Error:         "affirmation not found",
			})
			continue
		}

		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				result.Errors = append(result.Errors, BatchItemError{AffirmationID: affirmationID, Error: err.Error()})
				mu.Unlock()
				return nil
			}

			generated, err := s.GenerateForUser(ctx, userID, affirmationID, voiceID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Warn("Batch generation item failed, continuing", "affirmation_id", affirmationID, "error", err)
				result.Errors = append(result.Errors, BatchItemError{AffirmationID: affirmationID, Error: err.Error()})
				return nil
			}
			result.Generated = append(result.Generated, generated)
			return nil
		})
	}

	_ = group.Wait()
	return result, nil
}

func (s *generationService) Preview(ctx context.Context, text string, voiceID uuid.UUID) ([]byte, error) {
	voice, err := s.loadVoice(ctx, voiceID)
	if err != nil {
		return nil, err
	}

	audio, err := s.tts.GenerateAudio(ctx, text, voice.ExternalVoiceID)
	if err != nil {
		return nil, apierr.Provider(fmt.Errorf("generate preview: %w", err))
	}
	return audio, nil
}

func (s *generationService) EstimateDurationMs(text string) int {
	wordCount := len(strings.Fields(text))
	return wordCount * 60 * 1000 / wordsPerMinute
}

func (s *generationService) RemainingCharacters(ctx context.Context) (int, error) {
	sub, err := s.tts.GetSubscription(ctx)
	if err != nil {
		return 0, apierr.Provider(fmt.Errorf("load subscription: %w", err))
	}
	return sub.Remaining(), nil
}

func (s *generationService) loadVoice(ctx context.Context, voiceID uuid.UUID) (*types.Voice, error) {
	voice, err := s.voiceRepo.GetByID(ctx, nil, voiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("voice %s not found", voiceID))
		}
		return nil, fmt.Errorf("load voice: %w", err)
	}
	return voice, nil
}

func (s *generationService) loadAffirmation(ctx context.Context, affirmationID uuid.UUID) (*types.Affirmation, error) {
	aff, err := s.affirmationRepo.GetByID(ctx, nil, affirmationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("affirmation %s not found", affirmationID))
		}
		return nil, fmt.Errorf("load affirmation: %w", err)
	}
	return aff, nil
}
