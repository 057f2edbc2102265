package repos_test

import (
	"context"
	"testing"

	"github.com/hypnosapp/hypnos-backend/internal/repos"
	"github.com/hypnosapp/hypnos-backend/internal/repos/testutil"
	"github.com/hypnosapp/hypnos-backend/internal/types"
)

func TestSetAudioForVoicePreservesOtherVoices(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := repos.NewAffirmationRepo(db, log)

	category := testutil.SeedCategory(t, ctx, db, "sono", 0)
	aff := testutil.SeedAffirmation(t, ctx, db, category.ID, "Eu estou calmo.", 0)
	voiceA := testutil.SeedVoice(t, ctx, db, "voice-a", true)
	voiceB := testutil.SeedVoice(t, ctx, db, "voice-b", false)

	refA := types.AudioRef{Path: "voices/a/calm.mp3", URL: "/api/audio/file/voices/a/calm.mp3", DurationMs: testutil.PtrInt(2000)}
	if err := repo.SetAudioForVoice(ctx, nil, aff.ID, voiceA.ID, refA); err != nil {
		t.Fatalf("set audio voice a: %v", err)
	}
	refB := types.AudioRef{Path: "voices/b/calm.mp3", URL: "/api/audio/file/voices/b/calm.mp3"}
	if err := repo.SetAudioForVoice(ctx, nil, aff.ID, voiceB.ID, refB); err != nil {
		t.Fatalf("set audio voice b: %v", err)
	}

	got, err := repo.GetByID(ctx, nil, aff.ID)
	if err != nil {
		t.Fatalf("get affirmation: %v", err)
	}
	gotA, ok := got.AudioFor(voiceA.ID)
	if !ok || gotA.Path != refA.Path {
		t.Fatalf("voice a audio: want=%q got=%q ok=%v", refA.Path, gotA.Path, ok)
	}
	gotB, ok := got.AudioFor(voiceB.ID)
	if !ok || gotB.Path != refB.Path {
		t.Fatalf("voice b audio: want=%q got=%q ok=%v", refB.Path, gotB.Path, ok)
	}
}

func TestSetAudioForVoiceOverwritesSameVoice(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := repos.NewAffirmationRepo(db, log)

	category := testutil.SeedCategory(t, ctx, db, "foco", 0)
	aff := testutil.SeedAffirmation(t, ctx, db, category.ID, "Eu foco.", 0)
	voice := testutil.SeedVoice(t, ctx, db, "voice", true)

	first := types.AudioRef{Path: "voices/v/old.mp3"}
	if err := repo.SetAudioForVoice(ctx, nil, aff.ID, voice.ID, first); err != nil {
		t.Fatalf("set audio: %v", err)
	}
	second := types.AudioRef{Path: "voices/v/new.mp3"}
	if err := repo.SetAudioForVoice(ctx, nil, aff.ID, voice.ID, second); err != nil {
		t.Fatalf("reset audio: %v", err)
	}

	got, err := repo.GetByID(ctx, nil, aff.ID)
	if err != nil {
		t.Fatalf("get affirmation: %v", err)
	}
	ref, ok := got.AudioFor(voice.ID)
	if !ok || ref.Path != second.Path {
		t.Fatalf("audio ref: want=%q got=%q ok=%v", second.Path, ref.Path, ok)
	}
	if len(got.AudioByVoice.Data()) != 1 {
		t.Fatalf("audio map size: want=1 got=%d", len(got.AudioByVoice.Data()))
	}
}

func TestHasAudioForVoice(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := repos.NewAffirmationRepo(db, log)

	category := testutil.SeedCategory(t, ctx, db, "saude", 0)
	aff := testutil.SeedAffirmation(t, ctx, db, category.ID, "Meu corpo é forte.", 0)
	voice := testutil.SeedVoice(t, ctx, db, "voice", true)
	other := testutil.SeedVoice(t, ctx, db, "other", false)

	if err := repo.SetAudioForVoice(ctx, nil, aff.ID, voice.ID, types.AudioRef{Path: "p.mp3"}); err != nil {
		t.Fatalf("set audio: %v", err)
	}

	has, err := repo.HasAudioForVoice(ctx, nil, aff.ID, voice.ID)
	if err != nil || !has {
		t.Fatalf("has audio for voice: want=true got=%v err=%v", has, err)
	}
	has, err = repo.HasAudioForVoice(ctx, nil, aff.ID, other.ID)
	if err != nil || has {
		t.Fatalf("has audio for other voice: want=false got=%v err=%v", has, err)
	}
}
