package gcp

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/notabene-app/notabene-backend/internal/platform/ctxutil"
	"github.com/notabene-app/notabene-backend/internal/platform/envutil"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
)

// Bucket reads and writes raw note files and derived highlight media
// by storage key.
type Bucket interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Close() error
}

type bucketClient struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func NewBucket(log *logger.Logger) (Bucket, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("client", "gcp.Bucket")

	name := strings.TrimSpace(envutil.GetEnv("GCS_BUCKET", "", log))
	if name == "" {
		return nil, fmt.Errorf("missing GCS_BUCKET")
	}

	c, err := storage.NewClient(context.Background(), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &bucketClient{log: slog, client: c, bucket: name}, nil
}

func (b *bucketClient) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}

func (b *bucketClient) Download(ctx context.Context, key string) ([]byte, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	r, err := b.client.Bucket(b.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", b.bucket, key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", b.bucket, key, err)
	}
	return data, nil
}

func (b *bucketClient) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", b.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", b.bucket, key, err)
	}
	return nil
}
