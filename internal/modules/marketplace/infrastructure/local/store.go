// Package local is the device-local marketplace store. Each collection is a
// JSON array kept under its own key in a kv.Storage.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/udyami/marketplace/internal/modules/marketplace/domain"
	"github.com/udyami/marketplace/internal/shared/infrastructure/kv"
)

const (
	keyUsers         = "users"
	keyJobs          = "jobs"
	keySellers       = "sellers"
	keyServices      = "services"
	keyFollows       = "follows"
	keyNotifications = "notifications"
)

var collections = []string{keyUsers, keyJobs, keySellers, keyServices, keyFollows, keyNotifications}

type Store struct {
	storage kv.Storage
	logger  *slog.Logger

	// mu serializes read-modify-write cycles on a collection.
	mu sync.Mutex

	now   func() time.Time
	newID func() string
}

var _ domain.Store = (*Store)(nil)

func NewStore(storage kv.Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		storage: storage,
		logger:  logger.With("component", "local_store"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// load reads a collection. Missing or unreadable data is an empty collection.
func load[T any](ctx context.Context, s *Store, key string) []T {
	raw, err := s.storage.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.Error("reading collection", "collection", key, "error", err)
		}
		return []T{}
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Error("decoding collection", "collection", key, "error", err)
		return []T{}
	}
	if items == nil {
		items = []T{}
	}
	return items
}

func save[T any](ctx context.Context, s *Store, key string, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.storage.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, u domain.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	u.ID = s.newID()
	u.CreatedAt, u.UpdatedAt = now, now

	users := append(load[domain.User](ctx, s, keyUsers), u)
	if err := save(ctx, s, keyUsers, users); err != nil {
		return "", err
	}
	s.logger.Info("user created", "id", u.ID)
	return u.ID, nil
}

func (s *Store) Users(ctx context.Context) ([]domain.User, error) {
	return load[domain.User](ctx, s, keyUsers), nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*domain.User, error) {
	return findOne(load[domain.User](ctx, s, keyUsers), func(u domain.User) bool { return u.ID == id })
}

func (s *Store) UserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return findOne(load[domain.User](ctx, s, keyUsers), func(u domain.User) bool { return u.PhoneNumber == phone })
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := load[domain.User](ctx, s, keyUsers)
	i := slices.IndexFunc(users, func(u domain.User) bool { return u.ID == id })
	if i < 0 {
		return domain.ErrNotFound
	}
	patch.Apply(&users[i])
	users[i].UpdatedAt = s.now().UTC()
	return save(ctx, s, keyUsers, users)
}

// Jobs

func (s *Store) CreateJob(ctx context.Context, j domain.Job) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	j.ID = s.newID()
	j.Status = domain.JobOpen
	j.Applicants = []string{}
	j.CreatedAt, j.UpdatedAt = now, now
	if j.PostedAt.IsZero() {
		j.PostedAt = now
	}

	jobs := append(load[domain.Job](ctx, s, keyJobs), j)
	if err := save(ctx, s, keyJobs, jobs); err != nil {
		return "", err
	}
	s.logger.Info("job created", "id", j.ID)
	return j.ID, nil
}

func (s *Store) Jobs(ctx context.Context) ([]domain.Job, error) {
	return load[domain.Job](ctx, s, keyJobs), nil
}

func (s *Store) JobsByUser(ctx context.Context, userID string) ([]domain.Job, error) {
	return filter(load[domain.Job](ctx, s, keyJobs), func(j domain.Job) bool { return j.BuyerID == userID }), nil
}

func (s *Store) UpdateJobStatus(ctx context.Context, id string, status domain.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := load[domain.Job](ctx, s, keyJobs)
	i := slices.IndexFunc(jobs, func(j domain.Job) bool { return j.ID == id })
	if i < 0 {
		return domain.ErrNotFound
	}
	jobs[i].Status = status
	jobs[i].UpdatedAt = s.now().UTC()
	if err := save(ctx, s, keyJobs, jobs); err != nil {
		return err
	}
	s.logger.Info("job status updated", "id", id, "status", status)
	return nil
}

// Sellers

// CreateSeller always starts a seller unrated, unfollowed and unverified.
func (s *Store) CreateSeller(ctx context.Context, seller domain.Seller) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	seller.ID = s.newID()
	seller.Rating = 0
	seller.TotalRatings = 0
	seller.Followers = 0
	seller.Verified = false
	seller.CreatedAt, seller.UpdatedAt = now, now

	sellers := append(load[domain.Seller](ctx, s, keySellers), seller)
	if err := save(ctx, s, keySellers, sellers); err != nil {
		return "", err
	}
	s.logger.Info("seller created", "id", seller.ID)
	return seller.ID, nil
}

func (s *Store) Sellers(ctx context.Context) ([]domain.Seller, error) {
	return load[domain.Seller](ctx, s, keySellers), nil
}

func (s *Store) SellerByID(ctx context.Context, id string) (*domain.Seller, error) {
	return findOne(load[domain.Seller](ctx, s, keySellers), func(x domain.Seller) bool { return x.ID == id })
}

// Services

func (s *Store) CreateService(ctx context.Context, svc domain.Service) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	svc.ID = s.newID()
	svc.Active = true
	if svc.Images == nil {
		svc.Images = []string{}
	}
	svc.CreatedAt, svc.UpdatedAt = now, now

	services := append(load[domain.Service](ctx, s, keyServices), svc)
	if err := save(ctx, s, keyServices, services); err != nil {
		return "", err
	}
	s.logger.Info("service created", "id", svc.ID)
	return svc.ID, nil
}

func (s *Store) Services(ctx context.Context) ([]domain.Service, error) {
	return load[domain.Service](ctx, s, keyServices), nil
}

func (s *Store) ServicesBySeller(ctx context.Context, sellerID string) ([]domain.Service, error) {
	return filter(load[domain.Service](ctx, s, keyServices), func(x domain.Service) bool { return x.SellerID == sellerID }), nil
}

// Follows

// FollowSeller is a no-op when the follow already exists.
func (s *Store) FollowSeller(ctx context.Context, followerID, sellerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	follows := load[domain.Follow](ctx, s, keyFollows)
	if slices.ContainsFunc(follows, isFollow(followerID, sellerID)) {
		return nil
	}
	follows = append(follows, domain.Follow{
		ID:          s.newID(),
		FollowerID:  followerID,
		FollowingID: sellerID,
		CreatedAt:   s.now().UTC(),
	})
	if err := save(ctx, s, keyFollows, follows); err != nil {
		return err
	}
	s.logger.Info("follow created", "follower", followerID, "seller", sellerID)
	return nil
}

func (s *Store) UnfollowSeller(ctx context.Context, followerID, sellerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	follows := slices.DeleteFunc(load[domain.Follow](ctx, s, keyFollows), isFollow(followerID, sellerID))
	return save(ctx, s, keyFollows, follows)
}

func (s *Store) Follows(ctx context.Context) ([]domain.Follow, error) {
	return load[domain.Follow](ctx, s, keyFollows), nil
}

func (s *Store) FollowedSellers(ctx context.Context, userID string) ([]domain.Seller, error) {
	followed := make(map[string]struct{})
	for _, f := range load[domain.Follow](ctx, s, keyFollows) {
		if f.FollowerID == userID {
			followed[f.FollowingID] = struct{}{}
		}
	}
	return filter(load[domain.Seller](ctx, s, keySellers), func(x domain.Seller) bool {
		_, ok := followed[x.ID]
		return ok
	}), nil
}

func isFollow(followerID, sellerID string) func(domain.Follow) bool {
	return func(f domain.Follow) bool { return f.FollowerID == followerID && f.FollowingID == sellerID }
}

// Notifications

func (s *Store) CreateNotification(ctx context.Context, n domain.StoredNotification) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID = s.newID()
	n.Read = false
	n.CreatedAt = s.now().UTC()

	items := append(load[domain.StoredNotification](ctx, s, keyNotifications), n)
	if err := save(ctx, s, keyNotifications, items); err != nil {
		return "", err
	}
	s.logger.Info("notification created", "id", n.ID)
	return n.ID, nil
}

func (s *Store) NotificationsByUser(ctx context.Context, userID string) ([]domain.StoredNotification, error) {
	return filter(load[domain.StoredNotification](ctx, s, keyNotifications), func(n domain.StoredNotification) bool {
		return n.UserID == userID
	}), nil
}

// ClearAllData removes every collection. Each key is removed independently.
func (s *Store) ClearAllData(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, key := range collections {
		if err := s.storage.Remove(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("clearing local data: %w", err)
	}
	s.logger.Info("all data cleared")
	return nil
}

func (s *Store) AllData(ctx context.Context) (*domain.Dataset, error) {
	return &domain.Dataset{
		Users:         load[domain.User](ctx, s, keyUsers),
		Jobs:          load[domain.Job](ctx, s, keyJobs),
		Sellers:       load[domain.Seller](ctx, s, keySellers),
		Services:      load[domain.Service](ctx, s, keyServices),
		Follows:       load[domain.Follow](ctx, s, keyFollows),
		Notifications: load[domain.StoredNotification](ctx, s, keyNotifications),
	}, nil
}

func findOne[T any](items []T, match func(T) bool) (*T, error) {
	i := slices.IndexFunc(items, match)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	return &items[i], nil
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
