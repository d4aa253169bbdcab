package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kurin/blazer/b2"
)

// Uploader stores one file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader) (string, error)
}

type B2Storage struct {
	client  *b2.Client
	bucket  *b2.Bucket
	baseURL string
}

func NewB2(ctx context.Context, accountID, appKey, bucketName, baseURL string) (*B2Storage, error) {
	client, err := b2.NewClient(ctx, accountID, appKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create b2 client: %w", err)
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}
	return &B2Storage{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *B2Storage) Upload(ctx context.Context, key string, r io.Reader) (string, error) {
	obj := s.bucket.Object(key)
	w := obj.NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish object: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// LocalStorage writes uploads to a directory on disk and serves them under
// /uploads/. Used when no B2 credentials are configured.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStorage) Upload(_ context.Context, key string, r io.Reader) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(key))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return s.baseURL + "/uploads/" + filepath.Base(key), nil
}
