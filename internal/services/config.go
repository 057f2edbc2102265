package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/logger"
	"github.com/hypnosapp/hypnos-backend/internal/repos"
	"github.com/hypnosapp/hypnos-backend/internal/types"
)

type ConfigUpdate struct {
	BinauralBaseFreq *float64 `json:"binaural_base_freq"`
	BinauralBeatFreq *float64 `json:"binaural_beat_freq"`
	BinauralVolume   *float64 `json:"binaural_volume"`
	VoiceVolume      *float64 `json:"voice_volume"`
	GapBetweenSec    *float64 `json:"gap_between_sec"`
}

// ConfigService manages the per-user playback settings (binaural tone
// and mixing levels). Values outside the safe listening ranges are
// clamped, not rejected.
type ConfigService interface {
	Get(ctx context.Context, userID uuid.UUID) (*types.UserConfig, error)
	Update(ctx context.Context, userID uuid.UUID, update ConfigUpdate) (*types.UserConfig, error)
}

type configService struct {
	log            *logger.Logger
	userConfigRepo repos.UserConfigRepo
}

func NewConfigService(log *logger.Logger, userConfigRepo repos.UserConfigRepo) ConfigService {
	serviceLog := log.With("service", "ConfigService")
	return &configService{log: serviceLog, userConfigRepo: userConfigRepo}
}

// Get returns the user's config, creating the default row on first
// access.
func (s *configService) Get(ctx context.Context, userID uuid.UUID) (*types.UserConfig, error) {
	cfg, err := s.userConfigRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg != nil {
		return cfg, nil
	}

	cfg, err = s.userConfigRepo.Create(ctx, nil, types.DefaultUserConfig(userID))
	if err != nil {
		s.log.Error("Failed to create default config", "user_id", userID, "error", err)
		return nil, fmt.Errorf("create default config: %w", err)
	}
	return cfg, nil
}

func (s *configService) Update(ctx context.Context, userID uuid.UUID, update ConfigUpdate) (*types.UserConfig, error) {
	fields := map[string]any{}
	if update.BinauralBaseFreq != nil {
		fields["binaural_base_freq"] = clamp(*update.BinauralBaseFreq, 100, 500)
	}
	if update.BinauralBeatFreq != nil {
		fields["binaural_beat_freq"] = clamp(*update.BinauralBeatFreq, 1, 30)
	}
	if update.BinauralVolume != nil {
		fields["binaural_volume"] = clamp(*update.BinauralVolume, 0, 1)
	}
	if update.VoiceVolume != nil {
		fields["voice_volume"] = clamp(*update.VoiceVolume, 0, 1)
	}
	if update.GapBetweenSec != nil {
		fields["gap_between_sec"] = clamp(*update.GapBetweenSec, 0, 10)
	}
	if len(fields) == 0 {
		return nil, apierr.Validation(fmt.Errorf("no config fields provided"))
	}

	cfg, err := s.userConfigRepo.Upsert(ctx, nil, userID, fields)
	if err != nil {
		s.log.Error("Failed to update config", "user_id", userID, "error", err)
		return nil, fmt.Errorf("update config: %w", err)
	}
	return cfg, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
