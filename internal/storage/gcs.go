// Package storage wraps the private object store holding PDF materials.
// The bucket is never public; all client access goes through signed URLs
// issued here or through the backend stream proxy.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"

	"lessonhub/pkg/logger"
)

// ObjectStore defines the storage-provider contract consumed by the
// material gateway, the upload endpoint, and lesson deletion cleanup.
// Reads go through signed URLs only; there is no direct byte fetch.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) error
	SignedURL(key string, expiry time.Duration) (string, time.Time, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

type gcsStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore creates an ObjectStore backed by a Google Cloud Storage bucket.
// Credentials come from the ambient service account (ADC).
func NewGCSStore(ctx context.Context, bucket string) (ObjectStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket name is required")
	}

	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &gcsStore{client: client, bucket: bucket}, nil
}

// Upload writes the object, overwriting any previous version of the key
func (s *gcsStore) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	start := time.Now()
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		logger.Upstream("gcs", "upload", int(time.Since(start).Milliseconds()), err)
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		logger.Upstream("gcs", "upload", int(time.Since(start).Milliseconds()), err)
		return fmt.Errorf("failed to finalize object %s: %w", key, err)
	}
	logger.Upstream("gcs", "upload", int(time.Since(start).Milliseconds()), nil)
	return nil
}

// SignedURL issues a V4-signed GET URL scoped to exactly one object with an
// explicit expiry. The unsigned object path never leaves the backend.
func (s *gcsStore) SignedURL(key string, expiry time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(expiry)
	url, err := s.client.Bucket(s.bucket).SignedURL(key, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "GET",
		Expires: expiresAt,
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign url for %s: %w", key, err)
	}
	return url, expiresAt, nil
}

// Delete removes the object; missing objects are not an error
func (s *gcsStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err == gcs.ErrObjectNotExist {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// Exists checks object presence without fetching bytes
func (s *gcsStore) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if err == gcs.ErrObjectNotExist {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	return true, nil
}
