package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/udyami/marketplace/internal/modules/notification/domain"
	"github.com/udyami/marketplace/internal/shared/infrastructure/kv"
)

// FeedKey is kept apart from the marketplace "notifications" collection.
const FeedKey = "notification_feed"

// FeedRepository stores the feed as one JSON array. A missing or corrupt
// value loads as an empty feed.
type FeedRepository struct {
	storage kv.Storage
	key     string
	logger  *slog.Logger
}

var _ domain.FeedRepository = (*FeedRepository)(nil)

func NewFeedRepository(storage kv.Storage, logger *slog.Logger) *FeedRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedRepository{storage: storage, key: FeedKey, logger: logger}
}

func (r *FeedRepository) Load(ctx context.Context) ([]domain.Notification, error) {
	raw, err := r.storage.Get(ctx, r.key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			r.logger.Error("reading notification feed", "error", err)
		}
		return []domain.Notification{}, nil
	}

	var feed []domain.Notification
	if err := json.Unmarshal(raw, &feed); err != nil {
		r.logger.Error("decoding notification feed", "error", err)
		return []domain.Notification{}, nil
	}
	if feed == nil {
		feed = []domain.Notification{}
	}
	return feed, nil
}

func (r *FeedRepository) Save(ctx context.Context, feed []domain.Notification) error {
	if feed == nil {
		feed = []domain.Notification{}
	}
	raw, err := json.Marshal(feed)
	if err != nil {
		return fmt.Errorf("encoding notification feed: %w", err)
	}
	if err := r.storage.Set(ctx, r.key, raw); err != nil {
		return fmt.Errorf("writing notification feed: %w", err)
	}
	return nil
}
