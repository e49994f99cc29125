package domain

import "context"

// Store is the marketplace persistence surface. The local store, the remote
// adapter and the hybrid coordinator all implement it.
//
// Lookups return ErrNotFound when the record does not exist. Create methods
// return the id assigned by the store.
type Store interface {
	CreateUser(ctx context.Context, u User) (string, error)
	Users(ctx context.Context) ([]User, error)
	UserByID(ctx context.Context, id string) (*User, error)
	UserByPhone(ctx context.Context, phone string) (*User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) error

	CreateJob(ctx context.Context, j Job) (string, error)
	Jobs(ctx context.Context) ([]Job, error)
	JobsByUser(ctx context.Context, userID string) ([]Job, error)
	UpdateJobStatus(ctx context.Context, id string, status JobStatus) error

	CreateSeller(ctx context.Context, s Seller) (string, error)
	Sellers(ctx context.Context) ([]Seller, error)
	SellerByID(ctx context.Context, id string) (*Seller, error)

	CreateService(ctx context.Context, s Service) (string, error)
	Services(ctx context.Context) ([]Service, error)
	ServicesBySeller(ctx context.Context, sellerID string) ([]Service, error)

	FollowSeller(ctx context.Context, followerID, sellerID string) error
	UnfollowSeller(ctx context.Context, followerID, sellerID string) error
	FollowedSellers(ctx context.Context, userID string) ([]Seller, error)

	CreateNotification(ctx context.Context, n StoredNotification) (string, error)
	NotificationsByUser(ctx context.Context, userID string) ([]StoredNotification, error)

	ClearAllData(ctx context.Context) error
	AllData(ctx context.Context) (*Dataset, error)
}
