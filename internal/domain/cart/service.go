package cart

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/techstore-vn/checkout-api/internal/domain/catalog"
)

// ErrInvalidCoupon is returned when a coupon code is rejected before or by
// the sales service.
var ErrInvalidCoupon = errors.New("invalid coupon code")

// Discount holds a server-confirmed discount for an applied coupon.
type Discount struct {
	Amount      decimal.Decimal
	Description string
}

// CouponValidator validates a coupon code against cart items. Discount rules
// are owned by the sales service, so validation is always a network call.
type CouponValidator interface {
	Validate(ctx context.Context, code string, items []Item) (*Discount, error)
}

// CodeFilter is a local negative pre-check for coupon codes. A false answer
// is definitive; a true answer still requires server validation.
type CodeFilter interface {
	MayContain(code string) bool
}

// Store persists carts between sessions.
type Store interface {
	// Get returns the stored cart or nil when none exists for the session.
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Put(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// Service coordinates cart mutations with the cart store, the catalog
// service and coupon validation.
type Service struct {
	store   Store
	catalog catalog.Client
	coupons CouponValidator
	filter  CodeFilter
	taxRate decimal.Decimal
}

// NewService creates a cart Service. filter may be nil, in which case every
// coupon code goes straight to server validation.
func NewService(
	store Store,
	catalogClient catalog.Client,
	coupons CouponValidator,
	filter CodeFilter,
	taxRate decimal.Decimal,
) *Service {
	return &Service{
		store:   store,
		catalog: catalogClient,
		coupons: coupons,
		filter:  filter,
		taxRate: taxRate,
	}
}

// TaxRate returns the configured tax rate applied to post-discount subtotals.
func (s *Service) TaxRate() decimal.Decimal {
	return s.taxRate
}

// Get loads the cart for a session, returning a fresh empty cart when none
// is stored yet.
func (s *Service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	c, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if c == nil {
		return New(sessionID), nil
	}
	return c, nil
}

// AddProduct fetches the product from the catalog and merges it into the
// cart. The catalog response is snapshotted into the cart line so later price
// changes do not silently alter an existing cart.
func (s *Service) AddProduct(ctx context.Context, sessionID, productID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "fetch product")
	}

	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.Add(Item{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  quantity,
		ImageURL:  p.ImageURL,
	}); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// BatchItem is one product reference in a multi-line add.
type BatchItem struct {
	ProductID string
	Quantity  int
}

// AddProducts fetches all referenced products in one concurrent batch and
// merges them into the cart in request order. The add is all-or-nothing: an
// unknown product or invalid quantity fails the whole batch and nothing is
// persisted.
func (s *Service) AddProducts(ctx context.Context, sessionID string, batch []BatchItem) (*Cart, error) {
	ids := make([]string, len(batch))
	for i, b := range batch {
		if b.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		ids[i] = b.ProductID
	}

	products, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "fetch products")
	}

	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for i, p := range products {
		if err := c.Add(Item{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  batch[i].Quantity,
			ImageURL:  p.ImageURL,
		}); err != nil {
			return nil, err
		}
	}
	if err := s.store.Put(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// UpdateQuantity sets the quantity of an existing line. Quantities below 1
// are a no-op: the stored cart is returned unchanged.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*Cart, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.UpdateQuantity(productID, quantity); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return c, nil
	}
	if err := s.store.Put(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// Remove deletes a line from the cart.
func (s *Service) Remove(ctx context.Context, sessionID, productID string) (*Cart, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.Remove(productID); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// Clear empties the cart and removes it from the store.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return errors.Wrap(err, "delete cart")
	}
	return nil
}

// ApplyCoupon validates a coupon code against the sales service and, on
// success, records the normalized code and server-returned discount on the
// cart. On failure the existing coupon state is left untouched.
//
// Re-applying the code already on the cart is idempotent and skips the
// network call. The bloom filter, when configured, rejects codes that are
// definitively absent from the known-code set without a round trip.
func (s *Service) ApplyCoupon(ctx context.Context, sessionID, code string) (*Cart, *Discount, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil, ErrInvalidCoupon
	}

	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if c.IsEmpty() {
		return nil, nil, ErrEmptyCart
	}

	if c.CouponCode == code {
		return c, &Discount{Amount: c.DiscountAmount}, nil
	}

	if s.filter != nil && !s.filter.MayContain(code) {
		return nil, nil, ErrInvalidCoupon
	}

	d, err := s.coupons.Validate(ctx, code, c.Items)
	if err != nil {
		return nil, nil, err
	}

	c.SetCoupon(code, d.Amount)
	if err := s.store.Put(ctx, c); err != nil {
		return nil, nil, errors.Wrap(err, "save cart")
	}
	return c, d, nil
}

// RemoveCoupon drops the applied coupon from the cart.
func (s *Service) RemoveCoupon(ctx context.Context, sessionID string) (*Cart, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.RemoveCoupon()
	if err := s.store.Put(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}
