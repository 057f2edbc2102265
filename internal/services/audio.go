package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/logger"
	"github.com/hypnosapp/hypnos-backend/internal/storage"
	"github.com/hypnosapp/hypnos-backend/internal/types"
)

const maxUploadBytes = 10 * 1024 * 1024

var allowedUploadExtensions = map[string]bool{
	".webm": true,
	".mp3":  true,
	".mp4":  true,
	".m4a":  true,
	".wav":  true,
	".ogg":  true,
}

type UploadResult struct {
	AudioURL        string `json:"audio_url"`
	AudioDurationMs *int   `json:"audio_duration_ms,omitempty"`
}

// AudioService handles user recordings: upload onto an override and
// removal back to the system audio.
type AudioService interface {
	Upload(ctx context.Context, userID, affirmationID uuid.UUID, data []byte, filename, contentType string, durationMs *int) (*UploadResult, error)
	Remove(ctx context.Context, userID, affirmationID uuid.UUID) error
	Backend() storage.Backend
}

type audioService struct {
	log                *logger.Logger
	backend            storage.Backend
	affirmationService AffirmationService
}

func NewAudioService(log *logger.Logger, backend storage.Backend, affirmationService AffirmationService) AudioService {
	serviceLog := log.With("service", "AudioService")
	return &audioService{
		log:                serviceLog,
		backend:            backend,
		affirmationService: affirmationService,
	}
}

// Upload validates and stores a recording, then points the user's
// override at it with source "recorded". The previous asset is
// removed before the new one is written.
func (s *audioService) Upload(ctx context.Context, userID, affirmationID uuid.UUID, data []byte, filename, contentType string, durationMs *int) (*UploadResult, error) {
	if len(data) == 0 {
		return nil, apierr.Validation(fmt.Errorf("no file provided"))
	}
	if len(data) > maxUploadBytes {
		return nil, apierr.Validation(fmt.Errorf("file too large (max 10MB)"))
	}
	ext := strings.ToLower(path.Ext(filename))
	if !allowedUploadExtensions[ext] {
		return nil, apierr.Validation(fmt.Errorf("file type %q not allowed", ext))
	}
	if contentType == "" {
		contentType = "audio/webm"
	}

	if err := s.affirmationService.RemoveAudio(ctx, userID, affirmationID); err != nil {
		return nil, fmt.Errorf("remove previous audio: %w", err)
	}

	audioPath, err := s.backend.Save(ctx, data, filename, contentType, false)
	if err != nil {
		s.log.Error("Failed to save uploaded audio", "user_id", userID, "affirmation_id", affirmationID, "error", err)
		return nil, err
	}

	if _, err := s.affirmationService.SetOverrideAudio(ctx, userID, affirmationID, audioPath, types.AudioSourceRecorded, durationMs); err != nil {
		return nil, err
	}

	return &UploadResult{
		AudioURL:        s.backend.Resolve(audioPath),
		AudioDurationMs: durationMs,
	}, nil
}

func (s *audioService) Remove(ctx context.Context, userID, affirmationID uuid.UUID) error {
	return s.affirmationService.RemoveAudio(ctx, userID, affirmationID)
}

func (s *audioService) Backend() storage.Backend {
	return s.backend
}
