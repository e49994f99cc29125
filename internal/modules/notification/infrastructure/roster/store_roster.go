// Package roster adapts the marketplace seller records into the engine's
// seller directory.
package roster

import (
	"context"

	marketplace "github.com/udyami/marketplace/internal/modules/marketplace/domain"
	"github.com/udyami/marketplace/internal/modules/notification/domain"
)

type SellerSource interface {
	Sellers(ctx context.Context) ([]marketplace.Seller, error)
}

// StoreRoster lists sellers from the marketplace store on every call.
type StoreRoster struct {
	source SellerSource
}

var _ domain.SellerDirectory = (*StoreRoster)(nil)

func NewStoreRoster(source SellerSource) *StoreRoster {
	return &StoreRoster{source: source}
}

func (r *StoreRoster) Sellers(ctx context.Context) ([]domain.Seller, error) {
	records, err := r.source.Sellers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Seller, 0, len(records))
	for _, s := range records {
		out = append(out, domain.Seller{
			ID:       s.ID,
			Name:     s.Name,
			Skills:   s.Skills,
			Location: s.Location,
			Phone:    s.Phone,
		})
	}
	return out, nil
}
