package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/repos"
	"github.com/hypnosapp/hypnos-backend/internal/repos/testutil"
	"github.com/hypnosapp/hypnos-backend/internal/services"
)

func ptrFloat(v float64) *float64 { return &v }

func TestConfigGetCreatesDefaults(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	service := services.NewConfigService(log, repos.NewUserConfigRepo(db, log))

	user := testutil.SeedUser(t, ctx, db, "a@example.com")

	cfg, err := service.Get(ctx, user.ID)
	require.NoError(t, err)

	// Re-read so the assertions cover what the row actually holds.
	again, err := service.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, cfg.ID, again.ID)
	require.Equal(t, 200.0, again.BinauralBaseFreq)
	require.Equal(t, 10.0, again.BinauralBeatFreq)
	require.Equal(t, 0.5, again.BinauralVolume)
	require.Equal(t, 0.8, again.VoiceVolume)
	require.Equal(t, 2.0, again.GapBetweenSec)
}

func TestConfigUpdateClampsRanges(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	service := services.NewConfigService(log, repos.NewUserConfigRepo(db, log))

	user := testutil.SeedUser(t, ctx, db, "a@example.com")

	cfg, err := service.Update(ctx, user.ID, services.ConfigUpdate{
		BinauralBaseFreq: ptrFloat(9999),
		BinauralBeatFreq: ptrFloat(0.1),
		BinauralVolume:   ptrFloat(-3),
		VoiceVolume:      ptrFloat(1.5),
		GapBetweenSec:    ptrFloat(60),
	})
	require.NoError(t, err)
	require.Equal(t, 500.0, cfg.BinauralBaseFreq)
	require.Equal(t, 1.0, cfg.BinauralBeatFreq)
	require.Equal(t, 0.0, cfg.BinauralVolume)
	require.Equal(t, 1.0, cfg.VoiceVolume)
	require.Equal(t, 10.0, cfg.GapBetweenSec)
}

func TestConfigUpdatePartialLeavesOthers(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	service := services.NewConfigService(log, repos.NewUserConfigRepo(db, log))

	user := testutil.SeedUser(t, ctx, db, "a@example.com")

	_, err := service.Update(ctx, user.ID, services.ConfigUpdate{VoiceVolume: ptrFloat(0.6)})
	require.NoError(t, err)

	cfg, err := service.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 0.6, cfg.VoiceVolume)
	require.Equal(t, 200.0, cfg.BinauralBaseFreq)
}

func TestConfigUpdateEmpty(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	service := services.NewConfigService(log, repos.NewUserConfigRepo(db, log))

	user := testutil.SeedUser(t, ctx, db, "a@example.com")

	_, err := service.Update(ctx, user.ID, services.ConfigUpdate{})
	require.True(t, apierr.IsCode(err, apierr.CodeValidation))
}
