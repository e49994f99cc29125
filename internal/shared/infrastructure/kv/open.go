package kv

import (
	"context"
	"fmt"
	"io"

	"github.com/udyami/marketplace/internal/shared/infrastructure/config"
	"github.com/udyami/marketplace/internal/shared/infrastructure/database"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the Storage named by cfg.Driver. The returned closer releases
// the underlying connection.
func Open(ctx context.Context, cfg config.LocalStoreConfig, redisCfg database.RedisConfig) (Storage, io.Closer, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStorage(), nopCloser{}, nil
	case "redis":
		client, err := database.NewRedis(ctx, redisCfg)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStorage(client, cfg.RedisPrefix), client, nil
	case "sqlite", "":
		db, err := database.NewSQLiteDB(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		s := NewSQLStorage(db)
		if err := s.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return s, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown local store driver %q", cfg.Driver)
	}
}
