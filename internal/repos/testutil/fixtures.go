package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hypnosapp/hypnos-backend/internal/types"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Plan:      types.PlanFree,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, slug string, order int) *types.Category {
	tb.Helper()
	c := &types.Category{
		ID:           uuid.New(),
		Name:         slug,
		Slug:         slug,
		DisplayOrder: order,
		IsSystem:     true,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedAffirmation(tb testing.TB, ctx context.Context, tx *gorm.DB, categoryID uuid.UUID, text string, order int) *types.Affirmation {
	tb.Helper()
	a := &types.Affirmation{
		ID:           uuid.New(),
		CategoryID:   categoryID,
		Text:         text,
		DisplayOrder: order,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed affirmation: %v", err)
	}
	return a
}

func SeedVoice(tb testing.TB, ctx context.Context, tx *gorm.DB, slug string, isDefault bool) *types.Voice {
	tb.Helper()
	v := &types.Voice{
		ID:              uuid.New(),
		ExternalVoiceID: "ext-" + slug,
		Slug:            slug,
		Name:            slug,
		DisplayName:     slug,
		Gender:          "male",
		IsDefault:       isDefault,
		IsActive:        true,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed voice: %v", err)
	}
	return v
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrInt(v int) *int { return &v }

func PtrBool(v bool) *bool { return &v }

func PtrString(v string) *string { return &v }
