package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/udyami/marketplace/internal/modules/filestorage/domain"
)

const jsonContentType = "application/json"

// SnapshotService exports values as JSON documents and reads them back.
type SnapshotService struct {
	storage domain.ObjectStorage
	now     func() time.Time
}

func NewSnapshotService(storage domain.ObjectStorage) *SnapshotService {
	return &SnapshotService{storage: storage, now: time.Now}
}

// Export writes v under folder with a timestamped, unique key.
func (s *SnapshotService) Export(ctx context.Context, folder string, v any) (domain.Snapshot, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("encoding snapshot: %w", err)
	}

	now := s.now().UTC()
	key := path.Join(folder, fmt.Sprintf("%s-%s.json", now.Format("20060102T150405Z"), uuid.NewString()))

	url, err := s.storage.Put(ctx, key, bytes.NewReader(body), jsonContentType)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("storing snapshot %s: %w", key, err)
	}
	return domain.Snapshot{Key: key, URL: url, Size: int64(len(body)), CreatedAt: now}, nil
}

// ExportJSON is Export returning only the snapshot's key and URL.
func (s *SnapshotService) ExportJSON(ctx context.Context, folder string, v any) (key, url string, err error) {
	snap, err := s.Export(ctx, folder, v)
	if err != nil {
		return "", "", err
	}
	return snap.Key, snap.URL, nil
}

// checkKey rejects keys that would leave the storage root.
func checkKey(key string) error {
	if !filepath.IsLocal(filepath.FromSlash(key)) || path.Clean(key) != key {
		return fmt.Errorf("%q: %w", key, domain.ErrInvalidKey)
	}
	return nil
}

func (s *SnapshotService) ReadJSON(ctx context.Context, key string, v any) error {
	if err := checkKey(key); err != nil {
		return err
	}
	rc, err := s.storage.Get(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("decoding snapshot %s: %w", key, err)
	}
	return nil
}

func (s *SnapshotService) DownloadURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	return s.storage.PresignDownload(ctx, key, path.Base(key), expiration)
}

func (s *SnapshotService) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.storage.Delete(ctx, key)
}
