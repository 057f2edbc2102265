package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/logger"
)

// LocalBackend stores audio under a root directory and resolves paths
// to the process-served audio route.
type LocalBackend struct {
	log  *logger.Logger
	root string
}

func NewLocalBackend(log *logger.Logger, root string) (*LocalBackend, error) {
	backendLog := log.With("storage", "LocalBackend")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, apierr.Storage(fmt.Errorf("create storage root %q: %w", root, err))
	}
	backendLog.Info("Local storage backend ready", "root", root)
	return &LocalBackend{log: backendLog, root: root}, nil
}

func (b *LocalBackend) Save(ctx context.Context, data []byte, filename, contentType string, preserveFilename bool) (string, error) {
	name, err := objectName(filename, contentType, preserveFilename)
	if err != nil {
		return "", apierr.Validation(err)
	}

	fullPath := filepath.Join(b.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", apierr.Storage(fmt.Errorf("create directories for %q: %w", name, err))
	}

	// Write through a temp file so the final name never holds a
	// partial object.
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return "", apierr.Storage(fmt.Errorf("create temp file: %w", err))
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", apierr.Storage(fmt.Errorf("write %q: %w", name, err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", apierr.Storage(fmt.Errorf("close %q: %w", name, err))
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		_ = os.Remove(tmpName)
		return "", apierr.Storage(fmt.Errorf("finalize %q: %w", name, err))
	}
	return name, nil
}

func (b *LocalBackend) Delete(ctx context.Context, path string) (bool, error) {
	fullPath := filepath.Join(b.root, filepath.FromSlash(path))
	err := os.Remove(fullPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, apierr.Storage(fmt.Errorf("delete %q: %w", path, err))
}

func (b *LocalBackend) Resolve(path string) string {
	return "/api/audio/file/" + path
}

func (b *LocalBackend) Exists(ctx context.Context, path string) (bool, error) {
	fullPath := filepath.Join(b.root, filepath.FromSlash(path))
	_, err := os.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, apierr.Storage(fmt.Errorf("stat %q: %w", path, err))
}

// FullPath maps a stored path to its location on disk, for direct
// file serving.
func (b *LocalBackend) FullPath(path string) string {
	return filepath.Join(b.root, filepath.FromSlash(path))
}
