package kvstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udyami/marketplace/internal/modules/marketplace/infrastructure/local"
	"github.com/udyami/marketplace/internal/modules/notification/domain"
	"github.com/udyami/marketplace/internal/modules/notification/infrastructure/persistence/kvstore"
	"github.com/udyami/marketplace/internal/shared/infrastructure/kv"
)

type brokenStorage struct{ kv.Storage }

func (brokenStorage) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("io error")
}

func TestFeedRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := kvstore.NewFeedRepository(kv.NewMemoryStorage(), nil)

	feed := []domain.Notification{{
		ID:        "buyer_reminder_402",
		Type:      domain.NotificationTypeBuyerReminder,
		Title:     "t",
		JobData:   &domain.JobSnapshot{ID: "402", Title: "Install Sink"},
		Timestamp: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Read:      true,
	}}
	require.NoError(t, repo.Save(ctx, feed))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, feed, got)
}

func TestFeedRepository_LoadMissingOrCorrupt(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStorage()
	repo := kvstore.NewFeedRepository(mem, nil)

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	require.NoError(t, mem.Set(ctx, kvstore.FeedKey, []byte(`{"id":`)))
	got, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = kvstore.NewFeedRepository(brokenStorage{}, nil).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFeedRepository_DoesNotTouchMarketplaceCollection(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStorage()
	require.NoError(t, mem.Set(ctx, "notifications", []byte(`[{"id":"n1","userId":"u1"}]`)))

	repo := kvstore.NewFeedRepository(mem, nil)
	require.NoError(t, repo.Save(ctx, nil))

	raw, err := mem.Get(ctx, "notifications")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"n1","userId":"u1"}]`, string(raw))
}

// ClearAllData wipes the marketplace collections; the feed is cleared through the engine.
func TestFeedRepository_SurvivesMarketplaceClearAllData(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStorage()
	store := local.NewStore(mem, nil)
	require.NoError(t, store.InitializeSampleData(ctx))

	repo := kvstore.NewFeedRepository(mem, nil)
	feed := []domain.Notification{{ID: "seller_job_1_104", Type: domain.NotificationTypeSellerJob}}
	require.NoError(t, repo.Save(ctx, feed))

	require.NoError(t, store.ClearAllData(ctx))
	users, _ := store.Users(ctx)
	assert.Empty(t, users)

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, feed, got)
}
