package upstream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/techstore-vn/checkout-api/internal/domain/catalog"
)

// batchConcurrency bounds parallel product-detail fetches.
const batchConcurrency = 8

// CatalogClient reads product details from the catalog service. It
// implements catalog.Client.
type CatalogClient struct {
	client
}

var _ catalog.Client = (*CatalogClient)(nil)

// NewCatalogClient creates a catalog service client.
func NewCatalogClient(baseURL string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{client: newClient(baseURL, timeout)}
}

type productResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Brand    string          `json:"brand"`
	ImageURL string          `json:"imageUrl"`
	InStock  bool            `json:"inStock"`
}

// GetByID fetches one product detail.
func (c *CatalogClient) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	var resp productResponse
	if err := c.do(ctx, http.MethodGet, "/api/products/"+id, "", nil, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	return mapProduct(resp), nil
}

// GetByIDs fetches several products concurrently. The catalog service has no
// batch endpoint, so this fans out per-ID fetches with bounded concurrency
// and preserves the input order.
func (c *CatalogClient) GetByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	products := make([]catalog.Product, len(ids))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			p, err := c.GetByID(ctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			products[i] = *p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return products, nil
}

func mapProduct(resp productResponse) *catalog.Product {
	return &catalog.Product{
		ID:       resp.ID,
		Name:     resp.Name,
		Price:    resp.Price,
		Brand:    resp.Brand,
		ImageURL: resp.ImageURL,
		InStock:  resp.InStock,
	}
}
