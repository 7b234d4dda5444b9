package services

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/ai-shadow/shadow-backend/internal/logger"
)

type BucketService interface {
	UploadFile(ctx context.Context, key string, r io.Reader) error
	GetPublicURL(key string) string
	Close() error
}

type bucketService struct {
	log        *logger.Logger
	client     *storage.Client
	bucketName string
}

// NewBucketService connects to the named GCS bucket. An empty credentialsFile
// falls back to application default credentials.
func NewBucketService(ctx context.Context, log *logger.Logger, bucketName, credentialsFile string) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")
	if bucketName == "" {
		return nil, fmt.Errorf("GCS_BUCKET is not set")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog.Info("Bucket service ready", "bucket", bucketName)
	return &bucketService{log: serviceLog, client: client, bucketName: bucketName}, nil
}

func (bs *bucketService) UploadFile(ctx context.Context, key string, r io.Reader) error {
	w := bs.client.Bucket(bs.bucketName).Object(key).NewWriter(ctx)
	w.ContentType = "image/png"
	w.CacheControl = "public, max-age=86400"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		bs.log.Warn("Failed writing object, Cannot proceed. Returning error.", "key", key, "error", err)
		return fmt.Errorf("failed to write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		bs.log.Warn("Failed finalizing object, Cannot proceed. Returning error.", "key", key, "error", err)
		return fmt.Errorf("failed to finalize object %q: %w", key, err)
	}
	return nil
}

func (bs *bucketService) GetPublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucketName, key)
}

func (bs *bucketService) Close() error {
	return bs.client.Close()
}
