package services

import (
	"context"
	"fmt"

	"github.com/hypnosapp/hypnos-backend/internal/logger"
	"github.com/hypnosapp/hypnos-backend/internal/repos"
	"github.com/hypnosapp/hypnos-backend/internal/seed"
	"github.com/hypnosapp/hypnos-backend/internal/types"
)

// SeedService loads the embedded catalog into an empty database.
// Each table is seeded only when it has no rows, so restarting the
// process never duplicates or resets curated content.
type SeedService interface {
	SeedAll(ctx context.Context) error
}

type seedService struct {
	log             *logger.Logger
	categoryRepo    repos.CategoryRepo
	affirmationRepo repos.AffirmationRepo
	voiceRepo       repos.VoiceRepo
}

func NewSeedService(
	log *logger.Logger,
	categoryRepo repos.CategoryRepo,
	affirmationRepo repos.AffirmationRepo,
	voiceRepo repos.VoiceRepo,
) SeedService {
	serviceLog := log.With("service", "SeedService")
	return &seedService{
		log:             serviceLog,
		categoryRepo:    categoryRepo,
		affirmationRepo: affirmationRepo,
		voiceRepo:       voiceRepo,
	}
}

func (s *seedService) SeedAll(ctx context.Context) error {
	if err := s.seedCategories(ctx); err != nil {
		return err
	}
	if err := s.seedAffirmations(ctx); err != nil {
		return err
	}
	if err := s.seedVoices(ctx); err != nil {
		return err
	}
	return nil
}

func (s *seedService) seedCategories(ctx context.Context) error {
	count, err := s.categoryRepo.Count(ctx, nil)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	entries, err := seed.Categories()
	if err != nil {
		return fmt.Errorf("load category seed: %w", err)
	}
	categories := make([]*types.Category, 0, len(entries))
	for _, entry := range entries {
		categories = append(categories, &types.Category{
			Name:         entry.Name,
			Slug:         entry.Slug,
			DisplayOrder: entry.Order,
			IsSystem:     true,
		})
	}
	if _, err := s.categoryRepo.Create(ctx, nil, categories); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	s.log.Info("Seeded categories", "count", len(categories))
	return nil
}

func (s *seedService) seedAffirmations(ctx context.Context) error {
	count, err := s.affirmationRepo.Count(ctx, nil)
	if err != nil {
		return fmt.Errorf("count affirmations: %w", err)
	}
	if count > 0 {
		return nil
	}

	categories, err := s.categoryRepo.GetAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	bySlug := make(map[string]*types.Category, len(categories))
	for _, category := range categories {
		bySlug[category.Slug] = category
	}

	entries, err := seed.Affirmations()
	if err != nil {
		return fmt.Errorf("load affirmation seed: %w", err)
	}
	affirmations := make([]*types.Affirmation, 0, len(entries))
	for _, entry := range entries {
		category, ok := bySlug[entry.Category]
		if !ok {
			return fmt.Errorf("seed affirmation references unknown category %q", entry.Category)
		}
		affirmations = append(affirmations, &types.Affirmation{
			CategoryID:   category.ID,
			Text:         entry.Text,
			DisplayOrder: entry.Order,
		})
	}
	if _, err := s.affirmationRepo.Create(ctx, nil, affirmations); err != nil {
		return fmt.Errorf("seed affirmations: %w", err)
	}
	s.log.Info("Seeded affirmations", "count", len(affirmations))
	return nil
}

func (s *seedService) seedVoices(ctx context.Context) error {
	count, err := s.voiceRepo.Count(ctx, nil)
	if err != nil {
		return fmt.Errorf("count voices: %w", err)
	}
	if count > 0 {
		return nil
	}

	entries, err := seed.Voices()
	if err != nil {
		return fmt.Errorf("load voice seed: %w", err)
	}
	for _, entry := range entries {
		voice := &types.Voice{
			ExternalVoiceID: entry.ExternalVoiceID,
			Slug:            entry.Slug,
			Name:            entry.Name,
			DisplayName:     entry.DisplayName,
			Gender:          entry.Gender,
			IsDefault:       entry.IsDefault,
			IsActive:        true,
			DisplayOrder:    entry.Order,
		}
		if _, err := s.voiceRepo.Create(ctx, nil, voice); err != nil {
			return fmt.Errorf("seed voice %q: %w", entry.Slug, err)
		}
	}
	s.log.Info("Seeded voices", "count", len(entries))
	return nil
}
