package cart

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for cart mutations.
var (
	ErrItemNotFound    = errors.New("item not in cart")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrEmptyCart       = errors.New("cart is empty")
)

// Item is a single cart line: a product snapshot taken at the time the item
// was added, plus the selected quantity.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"imageUrl,omitempty"`
}

// Cart holds the items and coupon state for one storefront session.
// Totals are never stored here; they are derived via Snapshot.
type Cart struct {
	SessionID      string          `json:"sessionId"`
	Items          []Item          `json:"items"`
	CouponCode     string          `json:"couponCode,omitempty"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// New returns an empty cart for the given session.
func New(sessionID string) *Cart {
	return &Cart{
		SessionID:      sessionID,
		DiscountAmount: decimal.Zero,
	}
}

// Add merges the given item into the cart. If the product is already present
// its quantity is increased, otherwise the item is appended.
func (c *Cart) Add(item Item) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	c.Items = append(c.Items, item)
	return nil
}

// UpdateQuantity sets the quantity of a cart line. Quantities below 1 leave
// the cart unchanged: removing a line is an explicit Remove, never a
// decrement past the floor.
func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	if quantity < 1 {
		return nil
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return ErrItemNotFound
}

// Remove deletes a cart line by product ID.
func (c *Cart) Remove(productID string) error {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// Clear drops all items and any applied coupon.
func (c *Cart) Clear() {
	c.Items = nil
	c.RemoveCoupon()
}

// SetCoupon records a server-confirmed coupon and its discount amount.
func (c *Cart) SetCoupon(code string, discount decimal.Decimal) {
	c.CouponCode = code
	c.DiscountAmount = discount
}

// RemoveCoupon drops the applied coupon and its discount.
func (c *Cart) RemoveCoupon() {
	c.CouponCode = ""
	c.DiscountAmount = decimal.Zero
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalQuantity returns the sum of quantities across all lines.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}
