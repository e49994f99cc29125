package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/udyami/marketplace/internal/modules/filestorage/domain"
)

// LocalStorage implements ObjectStorage on the local filesystem
type LocalStorage struct {
	basePath string
	baseURL  string
}

var _ domain.ObjectStorage = (*LocalStorage)(nil)

// NewLocalStorage creates basePath if needed. URLs are baseURL + "/" + key.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if baseURL == "" {
		abs, err := filepath.Abs(basePath)
		if err != nil {
			return nil, fmt.Errorf("resolving storage directory: %w", err)
		}
		baseURL = "file://" + filepath.ToSlash(abs)
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  baseURL,
	}, nil
}

func (l *LocalStorage) path(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}

func (l *LocalStorage) url(key string) string {
	return fmt.Sprintf("%s/%s", l.baseURL, key)
}

// Put writes to a temp file and renames it so readers never see a partial snapshot.
func (l *LocalStorage) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	fullPath := l.path(key)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	return l.url(key), nil
}

func (l *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(l.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, domain.ErrSnapshotNotFound)
	}
	return f, err
}

func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	err := os.Remove(l.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", key, domain.ErrSnapshotNotFound)
	}
	return err
}

// PresignDownload for local storage just returns the file URL
func (l *LocalStorage) PresignDownload(ctx context.Context, key string, filename string, expiration time.Duration) (string, error) {
	return l.url(key), nil
}
