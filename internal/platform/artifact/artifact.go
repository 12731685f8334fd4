// Package artifact persists raw model output so failed generations can be
// inspected after the fact.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
)

// Store saves a text artifact and returns a reference to where it was written.
type Store interface {
	Save(ctx context.Context, prefix, content string) (string, error)
}

// FileStore writes artifacts as files under a local directory.
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// Save writes content to <dir>/<prefix>_<unixnano>.txt and returns the path.
func (s *FileStore) Save(_ context.Context, prefix, content string) (string, error) {
	name := fmt.Sprintf("%s_%d.txt", prefix, s.now().UnixNano())
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating artifact %s: %w", name, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return "", fmt.Errorf("writing artifact %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing artifact %s: %w", name, err)
	}
	return path, nil
}

// GCSStore writes artifacts as objects in a Cloud Storage bucket.
type GCSStore struct {
	client       *storage.Client
	bucket       string
	objectPrefix string
	now          func() time.Time
}

// NewGCSStore returns a store writing to bucket. objectPrefix, if set, is
// prepended to every object name.
func NewGCSStore(client *storage.Client, bucket, objectPrefix string) (*GCSStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is nil")
	}
	if bucket == "" {
		return nil, fmt.Errorf("artifact bucket is empty")
	}
	return &GCSStore{client: client, bucket: bucket, objectPrefix: objectPrefix, now: time.Now}, nil
}

// Save uploads content and returns its gs:// URI.
func (s *GCSStore) Save(ctx context.Context, prefix, content string) (string, error) {
	name := s.objectName(prefix)

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "text/plain; charset=utf-8"
	if _, err := w.Write([]byte(content)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("uploading artifact %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing artifact %s: %w", name, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, name), nil
}

func (s *GCSStore) objectName(prefix string) string {
	name := fmt.Sprintf("%s_%d.txt", prefix, s.now().UnixNano())
	if s.objectPrefix == "" {
		return name
	}
	return s.objectPrefix + "/" + name
}
