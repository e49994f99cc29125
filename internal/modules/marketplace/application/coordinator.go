package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/udyami/marketplace/internal/modules/marketplace/domain"
)

const (
	StatusRemote = "Backend API"
	StatusLocal  = "Local Storage"
)

var storeFallbacks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "marketplace_store_fallbacks_total",
		Help: "Remote store calls that failed and were served by the local store",
	},
	[]string{"op"},
)

// RemoteStore is the backend API adapter.
type RemoteStore interface {
	domain.Store
	HealthCheck(ctx context.Context) error
}

// LocalStore is the device-local store; it is always available.
type LocalStore interface {
	domain.Store
	InitializeSampleData(ctx context.Context) error
}

// Coordinator routes every call to the remote store while it is selected and
// re-issues the call against the local store when the remote one fails.
// Store selection only changes through Initialize, ReconnectToCloud and
// ForceInitializeLocal.
type Coordinator struct {
	remote RemoteStore
	local  LocalStore
	logger *slog.Logger

	mu        sync.RWMutex
	useRemote bool
}

var _ domain.Store = (*Coordinator)(nil)

// NewCoordinator builds a coordinator in local mode. remote may be nil, in
// which case the coordinator never leaves local mode.
func NewCoordinator(remote RemoteStore, local LocalStore, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		remote: remote,
		local:  local,
		logger: logger.With("component", "hybrid_store"),
	}
}

func (c *Coordinator) UsingRemote() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.useRemote
}

func (c *Coordinator) DatabaseStatus() string {
	if c.UsingRemote() {
		return StatusRemote
	}
	return StatusLocal
}

func (c *Coordinator) setRemote(v bool) {
	c.mu.Lock()
	c.useRemote = v
	c.mu.Unlock()
}

func (c *Coordinator) probe(ctx context.Context) bool {
	if c.remote == nil {
		return false
	}
	if err := c.remote.HealthCheck(ctx); err != nil {
		c.logger.Warn("backend api not available", "error", err)
		return false
	}
	return true
}

// Initialize selects the store and seeds sample data into it. Seeding the
// backend is best-effort: a failure is logged and never reaches the local store.
func (c *Coordinator) Initialize(ctx context.Context) error {
	if !c.probe(ctx) {
		c.setRemote(false)
		c.logger.Info("using local database")
		return c.local.InitializeSampleData(ctx)
	}

	c.setRemote(true)
	c.logger.Info("connected to backend api")
	if err := c.seedRemote(ctx); err != nil {
		c.logger.Warn("seeding backend data", "error", err)
	}
	return nil
}

// seedRemote talks to the backend directly so that a failure cannot fall
// back and write the demo users locally.
func (c *Coordinator) seedRemote(ctx context.Context) error {
	users := []domain.User{
		{PhoneNumber: "919876543210", Name: "Test Buyer", Role: domain.RoleBuyer, Language: "en", Location: "Bangalore"},
		{PhoneNumber: "919876543211", Name: "Test Seller", Role: domain.RoleSeller, Language: "en", Location: "Mumbai"},
	}
	for _, u := range users {
		_, err := c.remote.UserByPhone(ctx, u.PhoneNumber)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("looking up %s: %w", u.Name, err)
		}
		if _, err := c.remote.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("seeding %s: %w", u.Name, err)
		}
	}
	c.logger.Info("sample data initialized in backend api")
	return nil
}

// ReconnectToCloud re-probes the backend and selects it when healthy.
func (c *Coordinator) ReconnectToCloud(ctx context.Context) bool {
	ok := c.probe(ctx)
	c.setRemote(ok)
	if ok {
		c.logger.Info("reconnected to backend api")
	}
	return ok
}

// ForceInitializeLocal pins the coordinator to the local store and seeds it.
func (c *Coordinator) ForceInitializeLocal(ctx context.Context) error {
	c.setRemote(false)
	if err := c.local.InitializeSampleData(ctx); err != nil {
		return err
	}
	c.logger.Info("local database initialized with sample data")
	return nil
}

// run executes fn on the selected store. A remote failure other than
// not-found is logged, counted and retried on the local store.
func run[T any](c *Coordinator, op string, fn func(domain.Store) (T, error)) (T, error) {
	if c.UsingRemote() {
		v, err := fn(c.remote)
		if err == nil || errors.Is(err, domain.ErrNotFound) {
			return v, err
		}
		c.logger.Warn("remote call failed, using local store", "op", op, "error", err)
		storeFallbacks.WithLabelValues(op).Inc()
	}
	return fn(c.local)
}

func exec(c *Coordinator, op string, fn func(domain.Store) error) error {
	_, err := run(c, op, func(s domain.Store) (struct{}, error) {
		return struct{}{}, fn(s)
	})
	return err
}

func (c *Coordinator) CreateUser(ctx context.Context, u domain.User) (string, error) {
	return run(c, "create_user", func(s domain.Store) (string, error) { return s.CreateUser(ctx, u) })
}

func (c *Coordinator) Users(ctx context.Context) ([]domain.User, error) {
	return run(c, "users", func(s domain.Store) ([]domain.User, error) { return s.Users(ctx) })
}

func (c *Coordinator) UserByID(ctx context.Context, id string) (*domain.User, error) {
	return run(c, "user_by_id", func(s domain.Store) (*domain.User, error) { return s.UserByID(ctx, id) })
}

func (c *Coordinator) UserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return run(c, "user_by_phone", func(s domain.Store) (*domain.User, error) { return s.UserByPhone(ctx, phone) })
}

func (c *Coordinator) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) error {
	return exec(c, "update_user", func(s domain.Store) error { return s.UpdateUser(ctx, id, patch) })
}

func (c *Coordinator) CreateJob(ctx context.Context, j domain.Job) (string, error) {
	return run(c, "create_job", func(s domain.Store) (string, error) { return s.CreateJob(ctx, j) })
}

func (c *Coordinator) Jobs(ctx context.Context) ([]domain.Job, error) {
	return run(c, "jobs", func(s domain.Store) ([]domain.Job, error) { return s.Jobs(ctx) })
}

func (c *Coordinator) JobsByUser(ctx context.Context, userID string) ([]domain.Job, error) {
	return run(c, "jobs_by_user", func(s domain.Store) ([]domain.Job, error) { return s.JobsByUser(ctx, userID) })
}

func (c *Coordinator) UpdateJobStatus(ctx context.Context, id string, status domain.JobStatus) error {
	return exec(c, "update_job_status", func(s domain.Store) error { return s.UpdateJobStatus(ctx, id, status) })
}

func (c *Coordinator) CreateSeller(ctx context.Context, seller domain.Seller) (string, error) {
	return run(c, "create_seller", func(s domain.Store) (string, error) { return s.CreateSeller(ctx, seller) })
}

func (c *Coordinator) Sellers(ctx context.Context) ([]domain.Seller, error) {
	return run(c, "sellers", func(s domain.Store) ([]domain.Seller, error) { return s.Sellers(ctx) })
}

func (c *Coordinator) SellerByID(ctx context.Context, id string) (*domain.Seller, error) {
	return run(c, "seller_by_id", func(s domain.Store) (*domain.Seller, error) { return s.SellerByID(ctx, id) })
}

func (c *Coordinator) CreateService(ctx context.Context, svc domain.Service) (string, error) {
	return run(c, "create_service", func(s domain.Store) (string, error) { return s.CreateService(ctx, svc) })
}

func (c *Coordinator) Services(ctx context.Context) ([]domain.Service, error) {
	return run(c, "services", func(s domain.Store) ([]domain.Service, error) { return s.Services(ctx) })
}

func (c *Coordinator) ServicesBySeller(ctx context.Context, sellerID string) ([]domain.Service, error) {
	return run(c, "services_by_seller", func(s domain.Store) ([]domain.Service, error) { return s.ServicesBySeller(ctx, sellerID) })
}

func (c *Coordinator) FollowSeller(ctx context.Context, followerID, sellerID string) error {
	return exec(c, "follow_seller", func(s domain.Store) error { return s.FollowSeller(ctx, followerID, sellerID) })
}

func (c *Coordinator) UnfollowSeller(ctx context.Context, followerID, sellerID string) error {
	return exec(c, "unfollow_seller", func(s domain.Store) error { return s.UnfollowSeller(ctx, followerID, sellerID) })
}

func (c *Coordinator) FollowedSellers(ctx context.Context, userID string) ([]domain.Seller, error) {
	return run(c, "followed_sellers", func(s domain.Store) ([]domain.Seller, error) { return s.FollowedSellers(ctx, userID) })
}

func (c *Coordinator) CreateNotification(ctx context.Context, n domain.StoredNotification) (string, error) {
	return run(c, "create_notification", func(s domain.Store) (string, error) { return s.CreateNotification(ctx, n) })
}

func (c *Coordinator) NotificationsByUser(ctx context.Context, userID string) ([]domain.StoredNotification, error) {
	return run(c, "notifications_by_user", func(s domain.Store) ([]domain.StoredNotification, error) {
		return s.NotificationsByUser(ctx, userID)
	})
}

func (c *Coordinator) ClearAllData(ctx context.Context) error {
	return exec(c, "clear_all_data", func(s domain.Store) error { return s.ClearAllData(ctx) })
}

func (c *Coordinator) AllData(ctx context.Context) (*domain.Dataset, error) {
	return run(c, "all_data", func(s domain.Store) (*domain.Dataset, error) { return s.AllData(ctx) })
}
