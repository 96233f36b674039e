package media

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/oksasatya/vidtube-api/pkg/helpers"
)

// GCSStore keeps media in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(client *storage.Client, bucket string) (*GCSStore, error) {
	if client == nil || bucket == "" {
		return nil, ErrNotConfigured
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Save(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	u, err := helpers.UploadObject(ctx, s.client, s.bucket, key, contentType, r)
	if err != nil {
		return "", fmt.Errorf("gcs upload %s: %w", key, err)
	}
	return u, nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return helpers.DeleteObject(ctx, s.client, s.bucket, key)
}

func (s *GCSStore) KeyFromURL(rawURL string) string {
	return ObjectKeyFromURL(helpers.PublicURL(s.bucket, ""), rawURL)
}
