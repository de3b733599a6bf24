package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"hotel_churn/internal/domain"
)

// GCSStore keeps artifacts in a Cloud Storage bucket under a key prefix.
// An object only becomes readable once its writer closes successfully.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore connects with application default credentials.
func NewGCSStore(ctx context.Context, bucket, prefix string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs artifact store: bucket is required")
	}
	c, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs artifact store: %w", err)
	}
	return &GCSStore{client: c, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (s *GCSStore) Close() error { return s.client.Close() }

func (s *GCSStore) object(name string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(path.Join(s.prefix, name))
}

func (s *GCSStore) Put(ctx context.Context, name string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	w := s.object(name).NewWriter(ctx)
	w.ContentType = contentType(name)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", s.bucket, name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", s.bucket, name, err)
	}
	return nil
}

func (s *GCSStore) Get(ctx context.Context, name string) ([]byte, error) {
	r, err := s.object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrArtifactMissing)
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *GCSStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.object(name).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	return err == nil, err
}

func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".json"):
		return "application/json"
	case strings.HasSuffix(name, ".yaml"):
		return "application/yaml"
	}
	return "application/octet-stream"
}
