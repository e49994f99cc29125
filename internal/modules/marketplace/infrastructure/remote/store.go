package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/udyami/marketplace/internal/modules/marketplace/domain"
)

var _ domain.Store = (*Client)(nil)

func seg(s string) string { return url.PathEscape(s) }

// create posts body and returns the id the backend assigned.
func (c *Client) create(ctx context.Context, path string, body any) (string, error) {
	var resp idResponse
	if err := c.call(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: POST %s returned no id", ErrUnavailable, path)
	}
	return string(resp.ID), nil
}

// lookup maps a 404 onto domain.ErrNotFound.
func lookup[T any](ctx context.Context, c *Client, path string) (*T, error) {
	var out T
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrNotFound, err)
		}
		return nil, err
	}
	return &out, nil
}

func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) update(ctx context.Context, path string, body any) error {
	if err := c.call(ctx, http.MethodPut, path, body, nil); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
		}
		return err
	}
	return nil
}

func (c *Client) CreateUser(ctx context.Context, u domain.User) (string, error) {
	return c.create(ctx, "/users", u)
}

func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	return list[domain.User](ctx, c, "/users")
}

func (c *Client) UserByID(ctx context.Context, id string) (*domain.User, error) {
	return lookup[domain.User](ctx, c, "/users/"+seg(id))
}

func (c *Client) UserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return lookup[domain.User](ctx, c, "/users/phone/"+seg(phone))
}

func (c *Client) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) error {
	return c.update(ctx, "/users/"+seg(id), patch)
}

func (c *Client) CreateJob(ctx context.Context, j domain.Job) (string, error) {
	return c.create(ctx, "/jobs", j)
}

func (c *Client) Jobs(ctx context.Context) ([]domain.Job, error) {
	wire, err := list[wireJob](ctx, c, "/jobs")
	if err != nil {
		return nil, err
	}
	return toDomainJobs(wire), nil
}

func (c *Client) JobsByUser(ctx context.Context, userID string) ([]domain.Job, error) {
	wire, err := list[wireJob](ctx, c, "/jobs?userId="+url.QueryEscape(userID))
	if err != nil {
		return nil, err
	}
	return toDomainJobs(wire), nil
}

func (c *Client) UpdateJobStatus(ctx context.Context, id string, status domain.JobStatus) error {
	return c.update(ctx, "/jobs/"+seg(id)+"/status", map[string]domain.JobStatus{"status": status})
}

func (c *Client) CreateSeller(ctx context.Context, s domain.Seller) (string, error) {
	return c.create(ctx, "/sellers", s)
}

func (c *Client) Sellers(ctx context.Context) ([]domain.Seller, error) {
	return list[domain.Seller](ctx, c, "/sellers")
}

func (c *Client) SellerByID(ctx context.Context, id string) (*domain.Seller, error) {
	return lookup[domain.Seller](ctx, c, "/sellers/"+seg(id))
}

func (c *Client) CreateService(ctx context.Context, s domain.Service) (string, error) {
	return c.create(ctx, "/services", s)
}

func (c *Client) Services(ctx context.Context) ([]domain.Service, error) {
	return list[domain.Service](ctx, c, "/services")
}

func (c *Client) ServicesBySeller(ctx context.Context, sellerID string) ([]domain.Service, error) {
	return list[domain.Service](ctx, c, "/services?sellerId="+url.QueryEscape(sellerID))
}

type followRequest struct {
	SellerID   string `json:"sellerId"`
	FollowerID string `json:"followerId"`
}

func (c *Client) FollowSeller(ctx context.Context, followerID, sellerID string) error {
	return c.call(ctx, http.MethodPost, "/follows", followRequest{SellerID: sellerID, FollowerID: followerID}, nil)
}

func (c *Client) UnfollowSeller(ctx context.Context, followerID, sellerID string) error {
	return c.call(ctx, http.MethodDelete, "/follows/"+seg(sellerID)+"/"+seg(followerID), nil, nil)
}

func (c *Client) FollowedSellers(ctx context.Context, userID string) ([]domain.Seller, error) {
	return list[domain.Seller](ctx, c, "/follows/"+seg(userID))
}

func (c *Client) CreateNotification(ctx context.Context, n domain.StoredNotification) (string, error) {
	return c.create(ctx, "/notifications", n)
}

func (c *Client) NotificationsByUser(ctx context.Context, userID string) ([]domain.StoredNotification, error) {
	return list[domain.StoredNotification](ctx, c, "/notifications/"+seg(userID))
}

func (c *Client) ClearAllData(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/clear", nil, nil)
}

func (c *Client) AllData(ctx context.Context) (*domain.Dataset, error) {
	var w wireDataset
	if err := c.call(ctx, http.MethodGet, "/data", nil, &w); err != nil {
		return nil, err
	}
	return w.toDomain(), nil
}
