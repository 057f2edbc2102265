package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/hypnosapp/hypnos-backend/internal/logger"
	"github.com/hypnosapp/hypnos-backend/internal/utils"
)

// Backend is the uniform contract over a physical audio store. Save
// only returns a name after the underlying write succeeded; Delete is
// idempotent and reports false (not an error) for a missing object;
// Resolve is a pure mapping from a stored path to a public URL.
type Backend interface {
	Save(ctx context.Context, data []byte, filename, contentType string, preserveFilename bool) (string, error)
	Delete(ctx context.Context, path string) (bool, error)
	Resolve(path string) string
	Exists(ctx context.Context, path string) (bool, error)
}

// LocalFiler is implemented by backends that can serve files straight
// off the local filesystem.
type LocalFiler interface {
	FullPath(path string) string
}

const (
	TypeLocal = "local"
	TypeS3    = "s3"
	TypeGCS   = "gcs"
)

// NewFromEnv builds the backend selected by STORAGE_TYPE.
func NewFromEnv(log *logger.Logger) (Backend, error) {
	storageType := strings.ToLower(utils.GetEnv("STORAGE_TYPE", TypeLocal, log))
	switch storageType {
	case TypeS3:
		return NewS3BackendFromEnv(log)
	case TypeGCS:
		return NewGCSBackendFromEnv(log)
	case TypeLocal:
		root := utils.GetEnv("STORAGE_LOCAL_PATH", "./storage/audio", log)
		return NewLocalBackend(log, root)
	default:
		return nil, fmt.Errorf("unknown STORAGE_TYPE %q", storageType)
	}
}

var contentTypeExtensions = map[string]string{
	"audio/webm": ".webm",
	"audio/mp4":  ".m4a",
	"audio/mpeg": ".mp3",
	"audio/wav":  ".wav",
	"audio/ogg":  ".ogg",
}

func extensionFor(filename, contentType string) string {
	if ext := path.Ext(filename); ext != "" {
		return ext
	}
	if ext, ok := contentTypeExtensions[contentType]; ok {
		return ext
	}
	return ".audio"
}

// objectName picks the stored name for a payload: the caller-supplied
// relative path verbatim in preserve mode, otherwise a collision-free
// opaque name with an inferred extension.
func objectName(filename, contentType string, preserveFilename bool) (string, error) {
	if preserveFilename {
		cleaned := path.Clean(strings.TrimPrefix(filename, "/"))
		if cleaned == "." || cleaned == "" || strings.HasPrefix(cleaned, "..") {
			return "", fmt.Errorf("invalid preserved filename %q", filename)
		}
		return cleaned, nil
	}
	opaque := strings.ReplaceAll(uuid.New().String(), "-", "")
	return opaque + extensionFor(filename, contentType), nil
}
