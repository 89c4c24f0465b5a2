// Package catalog defines the read model for the upstream product catalog
// service. The storefront never owns product data; it only snapshots it into
// cart lines at add time.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist upstream.
var ErrNotFound = errors.New("product not found")

// Product is the subset of the catalog service's product detail the checkout
// flow needs.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Brand    string
	ImageURL string
	InStock  bool
}

// Client provides read access to the catalog service.
type Client interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
