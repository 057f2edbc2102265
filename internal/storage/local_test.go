package storage

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/hypnosapp/hypnos-backend/internal/logger"
)

func newTestLocalBackend(t *testing.T) *LocalBackend {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	backend, err := NewLocalBackend(log, t.TempDir())
	if err != nil {
		t.Fatalf("init backend: %v", err)
	}
	return backend
}

func TestLocalBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := newTestLocalBackend(t)

	data := []byte("fake audio payload")
	name, err := backend.Save(ctx, data, "recording.webm", "audio/webm", false)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasSuffix(name, ".webm") {
		t.Fatalf("stored name: got=%q", name)
	}

	exists, err := backend.Exists(ctx, name)
	if err != nil || !exists {
		t.Fatalf("exists after save: want=true got=%v err=%v", exists, err)
	}

	stored, err := os.ReadFile(backend.FullPath(name))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(stored) != string(data) {
		t.Fatalf("stored content mismatch")
	}

	if url := backend.Resolve(name); url != "/api/audio/file/"+name {
		t.Fatalf("resolve: got=%q", url)
	}

	deleted, err := backend.Delete(ctx, name)
	if err != nil || !deleted {
		t.Fatalf("delete: want=true got=%v err=%v", deleted, err)
	}
	exists, err = backend.Exists(ctx, name)
	if err != nil || exists {
		t.Fatalf("exists after delete: want=false got=%v err=%v", exists, err)
	}
}

func TestLocalBackendDeleteMissingIsNotAnError(t *testing.T) {
	ctx := context.Background()
	backend := newTestLocalBackend(t)

	deleted, err := backend.Delete(ctx, "nope.mp3")
	if err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if deleted {
		t.Fatalf("delete missing: want=false got=true")
	}
}

func TestLocalBackendPreserveCreatesSubdirectories(t *testing.T) {
	ctx := context.Background()
	backend := newTestLocalBackend(t)

	key := "voices/v1/affirmations/sono/a1.mp3"
	name, err := backend.Save(ctx, []byte("mp3"), key, "audio/mpeg", true)
	if err != nil {
		t.Fatalf("save preserved: %v", err)
	}
	if name != key {
		t.Fatalf("preserved name: want=%q got=%q", key, name)
	}
	if _, err := os.Stat(backend.FullPath(key)); err != nil {
		t.Fatalf("stat preserved file: %v", err)
	}

	// Regenerating the same key overwrites in place.
	if _, err := backend.Save(ctx, []byte("mp3-v2"), key, "audio/mpeg", true); err != nil {
		t.Fatalf("overwrite preserved: %v", err)
	}
	stored, err := os.ReadFile(backend.FullPath(key))
	if err != nil {
		t.Fatalf("read preserved file: %v", err)
	}
	if string(stored) != "mp3-v2" {
		t.Fatalf("preserved content after overwrite: got=%q", stored)
	}
}

func TestLocalBackendRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	backend := newTestLocalBackend(t)

	if _, err := backend.Save(ctx, []byte("x"), "../outside.mp3", "audio/mpeg", true); err == nil {
		t.Fatalf("path traversal accepted")
	}
}
