package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/logger"
	"github.com/hypnosapp/hypnos-backend/internal/utils"
)

// S3Backend stores audio in an S3-compatible bucket (AWS S3,
// DigitalOcean Spaces). Opaque names are kept flat under audio/;
// preserved names become the object key verbatim.
type S3Backend struct {
	log      *logger.Logger
	client   *s3.Client
	bucket   string
	endpoint string
}

func NewS3BackendFromEnv(log *logger.Logger) (*S3Backend, error) {
	endpoint := utils.GetEnv("S3_ENDPOINT_URL", "", log)
	accessKey := utils.GetEnv("S3_ACCESS_KEY", "", log)
	secretKey := utils.GetEnv("S3_SECRET_KEY", "", log)
	bucket := utils.GetEnv("S3_BUCKET", "", log)
	region := utils.GetEnv("S3_REGION", "us-east-1", log)
	if bucket == "" {
		return nil, fmt.Errorf("missing env var S3_BUCKET")
	}
	return NewS3Backend(log, endpoint, accessKey, secretKey, bucket, region)
}

func NewS3Backend(log *logger.Logger, endpoint, accessKey, secretKey, bucket, region string) (*S3Backend, error) {
	backendLog := log.With("storage", "S3Backend")

	ctx := context.Background()
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	backendLog.Info("S3 storage backend ready", "bucket", bucket, "endpoint", endpoint)
	return &S3Backend{
		log:      backendLog,
		client:   client,
		bucket:   bucket,
		endpoint: strings.TrimSuffix(endpoint, "/"),
	}, nil
}

func (b *S3Backend) Save(ctx context.Context, data []byte, filename, contentType string, preserveFilename bool) (string, error) {
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

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(b.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
		ACL:          s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", apierr.Storage(fmt.Errorf("put object %q: %w", key, err))
	}
	return key, nil
}

func (b *S3Backend) Delete(ctx context.Context, path string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	exists, err := b.Exists(ctx, path)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	if _, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(path),
	}); err != nil {
		return false, apierr.Storage(fmt.Errorf("delete object %q: %w", path, err))
	}
	return true, nil
}

func (b *S3Backend) Resolve(path string) string {
	return fmt.Sprintf("%s/%s/%s", b.endpoint, b.bucket, path)
}

func (b *S3Backend) Exists(ctx context.Context, path string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(path),
	})
	if err == nil {
		return true, nil
	}
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, apierr.Storage(fmt.Errorf("head object %q: %w", path, err))
}
