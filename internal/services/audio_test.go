package services_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/repos/testutil"
	"github.com/hypnosapp/hypnos-backend/internal/services"
	"github.com/hypnosapp/hypnos-backend/internal/types"
)

func TestUploadValidation(t *testing.T) {
	ctx := context.Background()
	f := newAffirmationFixture(t)
	log := testutil.Logger(t)
	service := services.NewAudioService(log, f.backend, f.service)

	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")
	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	aff := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Eu durmo.", 0)

	_, err := service.Upload(ctx, user.ID, aff.ID, nil, "rec.webm", "audio/webm", nil)
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))

	_, err = service.Upload(ctx, user.ID, aff.ID, bytes.Repeat([]byte("a"), 10*1024*1024+1), "rec.webm", "audio/webm", nil)
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))

	_, err = service.Upload(ctx, user.ID, aff.ID, []byte("exe"), "rec.exe", "application/octet-stream", nil)
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
}

func TestUploadSetsRecordedOverride(t *testing.T) {
	ctx := context.Background()
	f := newAffirmationFixture(t)
	log := testutil.Logger(t)
	service := services.NewAudioService(log, f.backend, f.service)

	user := testutil.SeedUser(t, ctx, f.db, "a@example.com")
	category := testutil.SeedCategory(t, ctx, f.db, "sono", 0)
	aff := testutil.SeedAffirmation(t, ctx, f.db, category.ID, "Eu durmo.", 0)

	result, err := service.Upload(ctx, user.ID, aff.ID, []byte("webm-bytes"), "rec.webm", "audio/webm", testutil.PtrInt(3200))
	require.NoError(t, err)
	require.NotEmpty(t, result.AudioURL)
	require.Equal(t, 3200, *result.AudioDurationMs)

	resolved, err := f.service.GetUserAffirmations(ctx, user.ID, nil)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.Equal(t, types.AudioSourceRecorded, resolved[0].AudioSource)
	require.Equal(t, result.AudioURL, *resolved[0].AudioURL)

	require.NoError(t, service.Remove(ctx, user.ID, aff.ID))
	resolved, err = f.service.GetUserAffirmations(ctx, user.ID, nil)
	require.NoError(t, err)
	require.Nil(t, resolved[0].AudioURL)
}
