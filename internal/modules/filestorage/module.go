package filestorage

import (
	"context"
	"fmt"

	"github.com/udyami/marketplace/internal/modules/filestorage/application"
	"github.com/udyami/marketplace/internal/modules/filestorage/domain"
	"github.com/udyami/marketplace/internal/modules/filestorage/infrastructure/local"
	"github.com/udyami/marketplace/internal/modules/filestorage/infrastructure/s3"
	"github.com/udyami/marketplace/internal/shared/infrastructure/config"
)

// Module holds the snapshot service and the object storage behind it
type Module struct {
	service *application.SnapshotService
	storage domain.ObjectStorage
}

// NewModule picks S3 when configured, otherwise a local directory
func NewModule(ctx context.Context, cfg config.FileStorageConfig) (*Module, error) {
	var storage domain.ObjectStorage
	var err error

	if cfg.UseS3 {
		s3Cfg := s3.S3Config{
			BucketName:     cfg.S3BucketName,
			Region:         cfg.S3Region,
			Endpoint:       cfg.S3Endpoint,
			PublicEndpoint: cfg.S3PublicEndpoint,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			UseSSL:         cfg.S3UseSSL,
		}
		storage, err = s3.NewS3Storage(ctx, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
	} else {
		storage, err = local.NewLocalStorage(cfg.LocalPath, "")
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
	}

	return &Module{
		service: application.NewSnapshotService(storage),
		storage: storage,
	}, nil
}

// Snapshots returns the snapshot service for use by other modules
func (m *Module) Snapshots() *application.SnapshotService {
	return m.service
}
