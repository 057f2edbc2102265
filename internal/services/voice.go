package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/logger"
	"github.com/hypnosapp/hypnos-backend/internal/repos"
	"github.com/hypnosapp/hypnos-backend/internal/types"
)

type CreateVoiceInput struct {
	ExternalVoiceID string  `json:"external_voice_id" binding:"required"`
	Slug            string  `json:"slug" binding:"required"`
	Name            string  `json:"name" binding:"required"`
	DisplayName     string  `json:"display_name"`
	Gender          string  `json:"gender"`
	IsDefault       bool    `json:"is_default"`
	DisplayOrder    int     `json:"order"`
	PreviewURL      *string `json:"preview_url"`
}

type VoiceService interface {
	List(ctx context.Context, activeOnly bool) ([]*types.Voice, error)
	GetByID(ctx context.Context, voiceID uuid.UUID) (*types.Voice, error)
	GetDefault(ctx context.Context) (*types.Voice, error)
	Create(ctx context.Context, input CreateVoiceInput) (*types.Voice, error)
	SetDefault(ctx context.Context, voiceID uuid.UUID) (*types.Voice, error)
}

type voiceService struct {
	log       *logger.Logger
	voiceRepo repos.VoiceRepo
}

func NewVoiceService(log *logger.Logger, voiceRepo repos.VoiceRepo) VoiceService {
	serviceLog := log.With("service", "VoiceService")
	return &voiceService{log: serviceLog, voiceRepo: voiceRepo}
}

func (s *voiceService) List(ctx context.Context, activeOnly bool) ([]*types.Voice, error) {
	voices, err := s.voiceRepo.GetAll(ctx, nil, activeOnly)
	if err != nil {
		s.log.Error("Failed to list voices", "error", err)
		return nil, fmt.Errorf("list voices: %w", err)
	}
	return voices, nil
}

func (s *voiceService) GetByID(ctx context.Context, voiceID uuid.UUID) (*types.Voice, error) {
	voice, err := s.voiceRepo.GetByID(ctx, nil, voiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("voice %s not found", voiceID))
		}
		return nil, fmt.Errorf("load voice: %w", err)
	}
	return voice, nil
}

// GetDefault returns the flagged default voice, or nil when the
// catalog is empty.
func (s *voiceService) GetDefault(ctx context.Context) (*types.Voice, error) {
	voice, err := s.voiceRepo.GetDefault(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load default voice: %w", err)
	}
	return voice, nil
}

func (s *voiceService) Create(ctx context.Context, input CreateVoiceInput) (*types.Voice, error) {
	if input.ExternalVoiceID == "" || input.Slug == "" || input.Name == "" {
		return nil, apierr.Validation(fmt.Errorf("external_voice_id, slug and name are required"))
	}

	if _, err := s.voiceRepo.GetBySlug(ctx, nil, input.Slug); err == nil {
		return nil, apierr.Validation(fmt.Errorf("voice slug %q already exists", input.Slug))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check slug: %w", err)
	}

	gender := input.Gender
	if gender == "" {
		gender = "male"
	}
	displayName := input.DisplayName
	if displayName == "" {
		displayName = input.Name
	}

	voice := &types.Voice{
		ExternalVoiceID: input.ExternalVoiceID,
		Slug:            input.Slug,
		Name:            input.Name,
		DisplayName:     displayName,
		Gender:          gender,
		IsDefault:       input.IsDefault,
		IsActive:        true,
		DisplayOrder:    input.DisplayOrder,
		PreviewURL:      input.PreviewURL,
	}
	created, err := s.voiceRepo.Create(ctx, nil, voice)
	if err != nil {
		s.log.Error("Failed to create voice", "slug", input.Slug, "error", err)
		return nil, fmt.Errorf("create voice: %w", err)
	}
	return created, nil
}

func (s *voiceService) SetDefault(ctx context.Context, voiceID uuid.UUID) (*types.Voice, error) {
	if err := s.voiceRepo.SetDefault(ctx, nil, voiceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("voice %s not found", voiceID))
		}
		return nil, fmt.Errorf("set default voice: %w", err)
	}
	return s.GetByID(ctx, voiceID)
}
