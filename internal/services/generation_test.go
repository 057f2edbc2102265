package services_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/clients/elevenlabs"
	"github.com/hypnosapp/hypnos-backend/internal/repos"
	"github.com/hypnosapp/hypnos-backend/internal/repos/testutil"
	"github.com/hypnosapp/hypnos-backend/internal/services"
	"github.com/hypnosapp/hypnos-backend/internal/types"
)

// fakeTTS synthesizes deterministic payloads and fails on request.
type fakeTTS struct {
	remaining int
	failTexts map[string]bool
}

func newFakeTTS(remaining int) *fakeTTS {
	return &fakeTTS{remaining: remaining, failTexts: map[string]bool{}}
}

func (f *fakeTTS) GenerateAudio(ctx context.Context, text, externalVoiceID string) ([]byte, error) {
	if f.failTexts[text] {
		return nil, fmt.Errorf("synthesis rejected")
	}
	return []byte("mp3:" + externalVoiceID + ":" + text), nil
}

func (f *fakeTTS) GetSubscription(ctx context.Context) (*elevenlabs.Subscription, error) {
	return &elevenlabs.Subscription{Tier: "creator", CharacterCount: 0, CharacterLimit: f.remaining}, nil
}

type generationFixture struct {
	db           *gorm.DB
	backend      *fakeBackend
	tts          *fakeTTS
	service      services.GenerationService
	affService   services.AffirmationService
	affRepo      repos.AffirmationRepo
	overrideRepo repos.UserAffirmationRepo
}

func newGenerationFixture(t *testing.T, remaining int) *generationFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	backend := newFakeBackend()
	tts := newFakeTTS(remaining)

	affRepo := repos.NewAffirmationRepo(db, log)
	categoryRepo := repos.NewCategoryRepo(db, log)
	overrideRepo := repos.NewUserAffirmationRepo(db, log)
	voiceRepo := repos.NewVoiceRepo(db, log)

	affService := services.NewAffirmationService(db, log, affRepo, categoryRepo, overrideRepo, backend)
	service := services.NewGenerationService(log, affRepo, categoryRepo, voiceRepo, affService, backend, tts)
	return &generationFixture{
		db:           db,
		backend:      backend,
		tts:          tts,
		service:      service,
		affService:   affService,
		affRepo:      affRepo,
		overrideRepo: overrideRepo,
	}
}

func TestGenerateForUserReplacesPreviousAudio(t *testing.T) {
	ctx := context.Background()
	f := newGenerationFixture(t, 100_000)

	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")
	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	voice := testutil.SeedVoice(t, ctx, f.db, "harrison", true)
	aff := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Eu durmo em paz profunda.", 0)

	// An earlier recording occupies the override slot.
	f.backend.saved["old.webm"] = []byte("old")
	_, err := f.affService.SetOverrideAudio(ctx, user.ID, aff.ID, "old.webm", types.AudioSourceRecorded, nil)
	require.NoError(t, err)

	result, err := f.service.GenerateForUser(ctx, user.ID, aff.ID, voice.ID)
	require.NoError(t, err)
	require.Equal(t, aff.ID, result.AffirmationID)
	require.Contains(t, f.backend.deleted, "old.webm")

	override, err := f.overrideRepo.GetByUserAndAffirmation(ctx, nil, user.ID, aff.ID)
	require.NoError(t, err)
	require.NotNil(t, override)
	require.True(t, override.HasAudio())
	require.Equal(t, types.AudioSourceGenerated, override.AudioSource)
	require.Equal(t, "https://cdn.test/"+*override.AudioPath, result.AudioURL)

	// 5 words at 150 wpm.
	require.Equal(t, 2000, result.AudioDurationMs)
	require.Equal(t, []byte("mp3:ext-harrison:Eu durmo em paz profunda."), f.backend.saved[*override.AudioPath])
}

func TestGenerateForUserUnknownVoice(t *testing.T) {
	ctx := context.Background()
	f := newGenerationFixture(t, 100_000)

	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")
	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	aff := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Eu durmo.", 0)

	_, err := f.service.GenerateForUser(ctx, user.ID, aff.ID, uuid.New())
	require.True(t, apierr.IsCode(err, apierr.CodeNotFound))
}

func TestGenerateForUserProviderFailure(t *testing.T) {
	ctx := context.Background()
	f := newGenerationFixture(t, 100_000)

	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")
	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	voice := testutil.SeedVoice(t, ctx, f.db, "harrison", true)
	aff := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Eu durmo.", 0)
	f.tts.failTexts[aff.Text] = true

	_, err := f.service.GenerateForUser(ctx, user.ID, aff.ID, voice.ID)
	require.True(t, apierr.IsCode(err, apierr.CodeProviderFailure))

	// The failed synthesis must not have touched the override row.
	override, err := f.overrideRepo.GetByUserAndAffirmation(ctx, nil, user.ID, aff.ID)
	require.NoError(t, err)
	require.Nil(t, override)
}

func TestGenerateForCatalogRecordsVoiceAudio(t *testing.T) {
	ctx := context.Background()
	f := newGenerationFixture(t, 100_000)

	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	voice := testutil.SeedVoice(t, ctx, f.db, "harrison", true)
	aff := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Meu corpo relaxa.", 0)

	ref, err := f.service.GenerateForCatalog(ctx, aff.ID, voice.ID)
	require.NoError(t, err)

	wantKey := fmt.Sprintf("voices/%s/affirmations/sono/%s.mp3", voice.ID, aff.ID)
	require.Equal(t, wantKey, ref.Path)
	require.Equal(t, "https://cdn.test/"+wantKey, ref.URL)
	require.False(t, ref.GeneratedAt.IsZero())
	require.Contains(t, f.backend.saved, wantKey)

	stored, err := f.affRepo.GetByID(ctx, nil, aff.ID)
	require.NoError(t, err)
	got, ok := stored.AudioFor(voice.ID)
	require.True(t, ok)
	require.Equal(t, wantKey, got.Path)

	// Regenerating overwrites the same key instead of stacking objects.
	_, err = f.service.GenerateForCatalog(ctx, aff.ID, voice.ID)
	require.NoError(t, err)
	require.Len(t, f.backend.saved, 1)
}

func TestBatchGenerateQuotaInsufficient(t *testing.T) {
	ctx := context.Background()
	f := newGenerationFixture(t, 10)

	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")
	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	voice := testutil.SeedVoice(t, ctx, f.db, "harrison", true)
	aff := testutil.SeedAffirmation(t, ctx, f.db, category.ID, strings.Repeat("a", 40), 0)

	_, err := f.service.BatchGenerateForUser(ctx, user.ID, []uuid.UUID{aff.ID}, voice.ID)
	require.True(t, apierr.IsCode(err, apierr.CodeProviderFailure))
	require.Contains(t, err.Error(), "not enough characters remaining")
	require.Empty(t, f.backend.saved)
}

func TestBatchGenerateContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	f := newGenerationFixture(t, 100_000)

	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")
	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	voice := testutil.SeedVoice(t, ctx, f.db, "harrison", true)
	good := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Primeira frase.", 0)
	bad := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Segunda frase.", 1)
	unknown := uuid.New()
	f.tts.failTexts[bad.Text] = true

	result, err := f.service.BatchGenerateForUser(ctx, user.ID, []uuid.UUID{good.ID, bad.ID, unknown}, voice.ID)
	require.NoError(t, err)
	require.Len(t, result.Generated, 1)
	require.Equal(t, good.ID, result.Generated[0].AffirmationID)

	require.Len(t, result.Errors, 2)
	errByID := map[uuid.UUID]string{}
	for _, itemErr := range result.Errors {
		errByID[itemErr.AffirmationID] = itemErr.Error
	}
	require.Equal(t, "affirmation not found", errByID[unknown])
	require.Contains(t, errByID[bad.ID], "synthesis rejected")
}

func TestBatchGenerateEmptyInput(t *testing.T) {
	ctx := context.Background()
	f := newGenerationFixture(t, 100_000)

	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")
	voice := testutil.SeedVoice(t, ctx, f.db, "harrison", true)

	_, err := f.service.BatchGenerateForUser(ctx, user.ID, nil, voice.ID)
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
}

func TestEstimateDurationMs(t *testing.T) {
	f := newGenerationFixture(t, 100_000)

	require.Equal(t, 1200, f.service.EstimateDurationMs("uma duas três"))
	require.Equal(t, 0, f.service.EstimateDurationMs("   "))
}

func TestRemainingCharacters(t *testing.T) {
	ctx := context.Background()
	f := newGenerationFixture(t, 1234)

	remaining, err := f.service.RemainingCharacters(ctx)
	require.NoError(t, err)
	require.Equal(t, 1234, remaining)
}

func TestPreviewUnknownVoice(t *testing.T) {
	ctx := context.Background()
	f := newGenerationFixture(t, 100_000)

	_, err := f.service.Preview(ctx, "Olá.", uuid.New())
	require.True(t, apierr.IsCode(err, apierr.CodeNotFound))
}

func TestPreviewReturnsAudio(t *testing.T) {
	ctx := context.Background()
	f := newGenerationFixture(t, 100_000)

	voice := testutil.SeedVoice(t, ctx, f.db, "harrison", true)
	audio, err := f.service.Preview(ctx, "Olá.", voice.ID)
	require.NoError(t, err)
	require.Equal(t, []byte("mp3:ext-harrison:Olá."), audio)
}
