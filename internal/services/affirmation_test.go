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
	"github.com/hypnosapp/hypnos-backend/internal/repos"
	"github.com/hypnosapp/hypnos-backend/internal/repos/testutil"
	"github.com/hypnosapp/hypnos-backend/internal/services"
	"github.com/hypnosapp/hypnos-backend/internal/types"
)

// fakeBackend is an in-memory storage backend for service tests.
type fakeBackend struct {
	saved   map[string][]byte
	deleted []string
	counter int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{saved: map[string][]byte{}}
}

func (f *fakeBackend) Save(ctx context.Context, data []byte, filename, contentType string, preserveFilename bool) (string, error) {
	name := filename
	if !preserveFilename {
		f.counter++
		name = fmt.Sprintf("object-%d%s", f.counter, filename[strings.LastIndex(filename, "."):])
	}
	f.saved[name] = data
	return name, nil
}

func (f *fakeBackend) Delete(ctx context.Context, path string) (bool, error) {
	f.deleted = append(f.deleted, path)
	if _, ok := f.saved[path]; !ok {
		return false, nil
	}
	delete(f.saved, path)
	return true, nil
}

func (f *fakeBackend) Resolve(path string) string {
	return "https://cdn.test/" + path
}

func (f *fakeBackend) Exists(ctx context.Context, path string) (bool, error) {
	_, ok := f.saved[path]
	return ok, nil
}

type affirmationFixture struct {
	db      *gorm.DB
	backend *fakeBackend
	service services.AffirmationService
	affRepo repos.AffirmationRepo
}

func newAffirmationFixture(t *testing.T) *affirmationFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	backend := newFakeBackend()

	affRepo := repos.NewAffirmationRepo(db, log)
	service := services.NewAffirmationService(
		db, log,
		affRepo,
		repos.NewCategoryRepo(db, log),
		repos.NewUserAffirmationRepo(db, log),
		backend,
	)
	return &affirmationFixture{db: db, backend: backend, service: service, affRepo: affRepo}
}

func TestGetUserAffirmationsAudioPrecedence(t *testing.T) {
	ctx := context.Background()
	f := newAffirmationFixture(t)

	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")
	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	voice := testutil.SeedVoice(t, ctx, f.db, "harrison", true)

	withOverride := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Eu estou calmo.", 0)
	withVoiceAudio := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Meu sono é profundo.", 1)
	withLegacy := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Eu descanso.", 2)
	silent := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Eu relaxo.", 3)

	// Catalog audio for the requested voice on the first two; the
	// override must still win on the first.
	for _, aff := range []*types.Affirmation{withOverride, withVoiceAudio} {
		err := f.affRepo.SetAudioForVoice(ctx, nil, aff.ID, voice.ID, types.AudioRef{
			Path:       "voices/" + voice.ID.String() + "/" + aff.ID.String() + ".mp3",
			DurationMs: testutil.PtrInt(1600),
		})
		require.NoError(t, err)
	}
	legacy := "https://legacy.test/old.mp3"
	require.NoError(t, f.db.Model(withLegacy).Update("legacy_audio_url", legacy).Error)

	_, err := f.service.SetOverrideAudio(ctx, user.ID, withOverride.ID, "rec.webm", types.AudioSourceRecorded, testutil.PtrInt(4200))
	require.NoError(t, err)

	resolved, err := f.service.GetUserAffirmations(ctx, user.ID, &voice.ID)
	require.NoError(t, err)
	require.Len(t, resolved, 4)

	byID := map[uuid.UUID]*services.ResolvedAffirmation{}
	for _, entry := range resolved {
		byID[entry.ID] = entry
	}

	first := byID[withOverride.ID]
	require.NotNil(t, first.AudioURL)
	require.Equal(t, "https://cdn.test/rec.webm", *first.AudioURL)
	require.Equal(t, types.AudioSourceRecorded, first.AudioSource)
	require.Equal(t, 4200, *first.AudioDurationMs)

	second := byID[withVoiceAudio.ID]
	require.NotNil(t, second.AudioURL)
	require.Contains(t, *second.AudioURL, voice.ID.String())
	require.Equal(t, types.AudioSourceSystem, second.AudioSource)
	require.Equal(t, 1600, *second.AudioDurationMs)

	third := byID[withLegacy.ID]
	require.NotNil(t, third.AudioURL)
	require.Equal(t, legacy, *third.AudioURL)
	require.Equal(t, types.AudioSourceSystem, third.AudioSource)

	fourth := byID[silent.ID]
	require.Nil(t, fourth.AudioURL)
	require.Equal(t, types.AudioSourceSystem, fourth.AudioSource)
}

func TestSetOverrideAudioKeepsCatalogOrder(t *testing.T) {
	ctx := context.Background()
	f := newAffirmationFixture(t)

	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")
	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	aff := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Eu estou calmo.", 5)

	// Recording audio for an affirmation the user never reordered must
	// not move it away from its catalog position.
	_, err := f.service.SetOverrideAudio(ctx, user.ID, aff.ID, "rec.webm", types.AudioSourceRecorded, nil)
	require.NoError(t, err)

	resolved, err := f.service.GetUserAffirmations(ctx, user.ID, nil)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.Equal(t, 5, resolved[0].Order)
	require.True(t, resolved[0].Enabled)

	// The same holds for a first-touch enabled toggle.
	other := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Eu descanso.", 8)
	_, err = f.service.UpsertOverride(ctx, user.ID, other.ID, map[string]any{"enabled": false})
	require.NoError(t, err)

	resolved, err = f.service.GetUserAffirmations(ctx, user.ID, nil)
	require.NoError(t, err)
	byID := map[uuid.UUID]*services.ResolvedAffirmation{}
	for _, entry := range resolved {
		byID[entry.ID] = entry
	}
	require.Equal(t, 8, byID[other.ID].Order)
	require.False(t, byID[other.ID].Enabled)
}

func TestGetUserAffirmationsWithoutVoiceFallsBackToLegacy(t *testing.T) {
	ctx := context.Background()
	f := newAffirmationFixture(t)

	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")
	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	voice := testutil.SeedVoice(t, ctx, f.db, "harrison", true)

	aff := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Eu estou calmo.", 0)
	require.NoError(t, f.affRepo.SetAudioForVoice(ctx, nil, aff.ID, voice.ID, types.AudioRef{Path: "per-voice.mp3"}))
	require.NoError(t, f.db.Model(aff).Update("legacy_audio_url", "https://legacy.test/old.mp3").Error)

	resolved, err := f.service.GetUserAffirmations(ctx, user.ID, nil)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.NotNil(t, resolved[0].AudioURL)
	require.Equal(t, "https://legacy.test/old.mp3", *resolved[0].AudioURL)
}

func TestRemoveAudioFallsBackToSystem(t *testing.T) {
	ctx := context.Background()
	f := newAffirmationFixture(t)

	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")
	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	voice := testutil.SeedVoice(t, ctx, f.db, "harrison", true)
	aff := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Eu estou calmo.", 0)

	require.NoError(t, f.affRepo.SetAudioForVoice(ctx, nil, aff.ID, voice.ID, types.AudioRef{Path: "system.mp3"}))

	f.backend.saved["rec.webm"] = []byte("rec")
	_, err := f.service.SetOverrideAudio(ctx, user.ID, aff.ID, "rec.webm", types.AudioSourceRecorded, nil)
	require.NoError(t, err)

	require.NoError(t, f.service.RemoveAudio(ctx, user.ID, aff.ID))
	require.Contains(t, f.backend.deleted, "rec.webm")

	resolved, err := f.service.GetUserAffirmations(ctx, user.ID, &voice.ID)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.NotNil(t, resolved[0].AudioURL)
	require.Equal(t, "https://cdn.test/system.mp3", *resolved[0].AudioURL)
	require.Equal(t, types.AudioSourceSystem, resolved[0].AudioSource)
}

func TestRemoveAudioWithoutOverrideIsANoop(t *testing.T) {
	ctx := context.Background()
	f := newAffirmationFixture(t)

	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")
	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	aff := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Eu estou calmo.", 0)

	require.NoError(t, f.service.RemoveAudio(ctx, user.ID, aff.ID))
	require.Empty(t, f.backend.deleted)
}

func TestUpsertOverrideUnknownAffirmation(t *testing.T) {
	ctx := context.Background()
	f := newAffirmationFixture(t)
	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")

	_, err := f.service.UpsertOverride(ctx, user.ID, uuid.New(), map[string]any{"enabled": false})
	require.True(t, apierr.IsCode(err, apierr.CodeNotFound))
}

func TestBatchUpdateContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	f := newAffirmationFixture(t)

	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")
	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	affA := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "A.", 0)
	affB := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "B.", 1)
	unknown := uuid.New()

	applied, err := f.service.BatchUpdate(ctx, user.ID, []services.OverrideUpdate{
		{AffirmationID: &affA.ID, Enabled: testutil.PtrBool(false)},
		{AffirmationID: nil, Enabled: testutil.PtrBool(false)},
		{AffirmationID: &unknown, Enabled: testutil.PtrBool(false)},
		{AffirmationID: &affB.ID, Order: testutil.PtrInt(9)},
	})
	require.NoError(t, err)
	require.Equal(t, 2, applied)

	resolved, err := f.service.GetUserAffirmations(ctx, user.ID, nil)
	require.NoError(t, err)
	byID := map[uuid.UUID]*services.ResolvedAffirmation{}
	for _, entry := range resolved {
		byID[entry.ID] = entry
	}
	require.False(t, byID[affA.ID].Enabled)
	require.Equal(t, 9, byID[affB.ID].Order)
}

func TestCreateCustomValidation(t *testing.T) {
	ctx := context.Background()
	f := newAffirmationFixture(t)

	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")
	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)

	_, err := f.service.CreateCustom(ctx, user.ID, category.ID, "   ", 0)
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))

	_, err = f.service.CreateCustom(ctx, user.ID, category.ID, strings.Repeat("a", 501), 0)
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))

	_, err = f.service.CreateCustom(ctx, user.ID, uuid.New(), "Eu confio em mim.", 0)
	require.True(t, apierr.IsCode(err, apierr.CodeNotFound))

	custom, err := f.service.CreateCustom(ctx, user.ID, category.ID, "Eu confio em mim.", 5)
	require.NoError(t, err)
	require.True(t, custom.IsCustom())
	require.Equal(t, 5, custom.DisplayOrder)
}

func TestCustomAffirmationsAppearInMergedList(t *testing.T) {
	ctx := context.Background()
	f := newAffirmationFixture(t)

	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")
	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Sistema.", 0)

	custom, err := f.service.CreateCustom(ctx, user.ID, category.ID, "Minha própria.", 1)
	require.NoError(t, err)

	resolved, err := f.service.GetUserAffirmations(ctx, user.ID, nil)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	require.False(t, resolved[0].IsCustom)
	require.True(t, resolved[1].IsCustom)
	require.Equal(t, custom.ID, resolved[1].ID)
	require.Equal(t, "Minha própria.", resolved[1].Text)
	// Custom entries never inherit catalog audio.
	require.Nil(t, resolved[1].AudioURL)
}

func TestListDefaultsFiltersByCategoryAndResolvesVoice(t *testing.T) {
	ctx := context.Background()
	f := newAffirmationFixture(t)

	sleep := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	health := testutil.SeedCategory(t, ctx, f.db, "saude", 1)
	voice := testutil.SeedVoice(t, ctx, f.db, "harrison", true)

	inSleep := testutil.SeedAffirmation(t, ctx, f.db, sleep.ID, "Eu durmo bem.", 0)
	testutil.SeedAffirmation(t, ctx, f.db, health.ID, "Eu sou saudável.", 0)

	require.NoError(t, f.affRepo.SetAudioForVoice(ctx, nil, inSleep.ID, voice.ID, types.AudioRef{
		Path:       "voices/" + voice.ID.String() + "/" + inSleep.ID.String() + ".mp3",
		DurationMs: testutil.PtrInt(1600),
	}))

	all, err := f.service.ListDefaults(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	filtered, err := f.service.ListDefaults(ctx, &sleep.ID, &voice.ID)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, inSleep.ID, filtered[0].ID)
	require.NotNil(t, filtered[0].AudioURL)
	require.Contains(t, *filtered[0].AudioURL, voice.ID.String())
	require.Equal(t, 1600, *filtered[0].AudioDurationMs)

	unknown := uuid.New()
	_, err = f.service.ListDefaults(ctx, &unknown, nil)
	require.True(t, apierr.IsCode(err, apierr.CodeNotFound))
}

func TestDeleteCustomGuards(t *testing.T) {
	ctx := context.Background()
	f := newAffirmationFixture(t)

	owner := testutil.SeedUser(t, ctx, f.db, "owner@example.com")
	intruder := testutil.SeedUser(t, ctx, f.db, "intruder@example.com")
	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	aff := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Sistema.", 0)

	custom, err := f.service.CreateCustom(ctx, owner.ID, category.ID, "Minha.", 0)
	require.NoError(t, err)

	err = f.service.DeleteCustom(ctx, intruder.ID, custom.ID)
	require.True(t, apierr.IsCode(err, apierr.CodeNotFound))

	linked, err := f.service.UpsertOverride(ctx, owner.ID, aff.ID, map[string]any{"enabled": false})
	require.NoError(t, err)
	err = f.service.DeleteCustom(ctx, owner.ID, linked.ID)
	require.True(t, apierr.IsCode(err, apierr.CodeNotFound))

	require.NoError(t, f.service.DeleteCustom(ctx, owner.ID, custom.ID))
	err = f.service.DeleteCustom(ctx, owner.ID, custom.ID)
	require.True(t, apierr.IsCode(err, apierr.CodeNotFound))
}
