package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/logger"
	"github.com/hypnosapp/hypnos-backend/internal/utils"
)

// GCSBackend stores audio in a Google Cloud Storage bucket.
type GCSBackend struct {
	log       *logger.Logger
	client    *gcs.Client
	bucket    string
	cdnDomain string
}

func NewGCSBackendFromEnv(log *logger.Logger) (*GCSBackend, error) {
	backendLog := log.With("storage", "GCSBackend")
	bucket := utils.GetEnv("GCS_BUCKET_NAME", "", log)
	if bucket == "" {
		return nil, fmt.Errorf("missing env var GCS_BUCKET_NAME")
	}
	cdnDomain := utils.GetEnv("CDN_DOMAIN", "", log)
	saPath := utils.GetEnv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "", log)
	if saPath == "" {
		backendLog.Warn("GOOGLE_APPLICATION_CREDENTIALS_JSON not set, storage client falls back to ADC")
	}

	ctx := context.Background()
	var client *gcs.Client
	var err error
	if saPath != "" {
		client, err = gcs.NewClient(ctx, option.WithCredentialsFile(saPath), option.WithScopes(gcs.ScopeReadWrite))
	} else {
		client, err = gcs.NewClient(ctx, option.WithScopes(gcs.ScopeReadWrite))
	}
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	backendLog.Info("GCS storage backend ready", "bucket", bucket)
	return &GCSBackend{
		log:       backendLog,
		client:    client,
		bucket:    bucket,
		cdnDomain: cdnDomain,
	}, nil
}

func (b *GCSBackend) Save(ctx context.Context, data []byte, filename, contentType string, preserveFilename bool) (string, error) {
	name, err := objectName(filename, contentType, preserveFilename)
	if err != nil {
		return "", apierr.Validation(err)
	}
	key := name
	if !preserveFilename {
		key = "audio/" + name
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", apierr.Storage(fmt.Errorf("write gcs object %q: %w", key, err))
	}
	if err := w.Close(); err != nil {
		return "", apierr.Storage(fmt.Errorf("close gcs writer for %q: %w", key, err))
	}
	return key, nil
}

func (b *GCSBackend) Delete(ctx context.Context, path string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := b.client.Bucket(b.bucket).Object(path).Delete(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	return false, apierr.Storage(fmt.Errorf("delete gcs object %q: %w", path, err))
}

func (b *GCSBackend) Resolve(path string) string {
	if b.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", b.cdnDomain, path)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.bucket, path)
}

func (b *GCSBackend) Exists(ctx context.Context, path string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := b.client.Bucket(b.bucket).Object(path).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	return false, apierr.Storage(fmt.Errorf("stat gcs object %q: %w", path, err))
}
