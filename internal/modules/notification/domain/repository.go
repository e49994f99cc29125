package domain

import "context"

// FeedRepository persists the whole notification feed as one unit.
type FeedRepository interface {
	Load(ctx context.Context) ([]Notification, error)
	Save(ctx context.Context, feed []Notification) error
}

// SellerDirectory lists the sellers that job postings are matched against.
type SellerDirectory interface {
	Sellers(ctx context.Context) ([]Seller, error)
}
