package checkout

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/techstore-vn/checkout-api/internal/domain/cart"
)

// PickupAddress is the fixed shipping-address string recorded on
// store-pickup orders instead of a customer address.
const PickupAddress = "Nhận tại cửa hàng"

// Identity is the authenticated customer attached to a request, resolved
// through the auth service. A nil Identity means guest checkout.
type Identity struct {
	UserID   string
	FullName string
	Email    string
}

// OrderLine is one line item sent to the sales service.
type OrderLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// OrderRequest is the authenticated checkout payload: the customer is
// referenced by user ID, contact data lives on their account.
type OrderRequest struct {
	UserID          string        `json:"userId"`
	Items           []OrderLine   `json:"items"`
	ShippingAddress string        `json:"shippingAddress"`
	CouponCode      string        `json:"couponCode,omitempty"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	IsPickup        bool          `json:"isPickup"`
	PickupStoreID   string        `json:"pickupStoreId,omitempty"`
	Notes           string        `json:"notes,omitempty"`
}

// GuestOrderRequest is the guest checkout payload: name, email and phone are
// carried inline instead of a user ID.
type GuestOrderRequest struct {
	CustomerName    string        `json:"customerName"`
	CustomerEmail   string        `json:"customerEmail"`
	CustomerPhone   string        `json:"customerPhone"`
	Items           []OrderLine   `json:"items"`
	ShippingAddress string        `json:"shippingAddress"`
	CouponCode      string        `json:"couponCode,omitempty"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	IsPickup        bool          `json:"isPickup"`
	PickupStoreID   string        `json:"pickupStoreId,omitempty"`
	Notes           string        `json:"notes,omitempty"`
}

// OrderResult is the sales service's confirmation of a created order. Only
// a result carrying the server-assigned OrderID counts as success.
type OrderResult struct {
	OrderID     string
	OrderNumber string
	Total       decimal.Decimal
}

// SalesClient creates orders on the sales service.
type SalesClient interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)
	CreateGuestOrder(ctx context.Context, req GuestOrderRequest) (*OrderResult, error)
}

// Dispatcher converts cart plus form state into exactly one order-creation
// call, authenticated or guest depending on the identity.
type Dispatcher struct {
	sales SalesClient
}

// NewDispatcher creates a Dispatcher backed by the given sales client.
func NewDispatcher(sales SalesClient) *Dispatcher {
	return &Dispatcher{sales: sales}
}

// Dispatch issues the single order-creation call for this attempt. It never
// retries; failures are returned to the caller, which keeps the customer on
// the payment step.
func (d *Dispatcher) Dispatch(ctx context.Context, c *cart.Cart, f Form, id *Identity) (*OrderResult, error) {
	lines := buildLines(c.Items)
	addr := ShippingAddress(f)
	pickup := f.DeliveryMethod == DeliveryPickup

	var (
		res *OrderResult
		err error
	)
	if id != nil {
		res, err = d.sales.CreateOrder(ctx, OrderRequest{
			UserID:          id.UserID,
			Items:           lines,
			ShippingAddress: addr,
			CouponCode:      c.CouponCode,
			PaymentMethod:   f.PaymentMethod,
			IsPickup:        pickup,
			PickupStoreID:   f.PickupStoreID,
			Notes:           f.Notes,
		})
	} else {
		res, err = d.sales.CreateGuestOrder(ctx, GuestOrderRequest{
			CustomerName:    strings.TrimSpace(f.FullName),
			CustomerEmail:   strings.TrimSpace(f.Email),
			CustomerPhone:   strings.Join(strings.Fields(f.Phone), ""),
			Items:           lines,
			ShippingAddress: addr,
			CouponCode:      c.CouponCode,
			PaymentMethod:   f.PaymentMethod,
			IsPickup:        pickup,
			PickupStoreID:   f.PickupStoreID,
			Notes:           f.Notes,
		})
	}
	if err != nil {
		return nil, err
	}
	if res.OrderID == "" {
		return nil, errors.New("sales service returned no order id")
	}
	return res, nil
}

// ShippingAddress renders the address string stored on the order: the fixed
// pickup marker for store pickup, otherwise the joined address parts.
func ShippingAddress(f Form) string {
	if f.DeliveryMethod == DeliveryPickup {
		return PickupAddress
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{f.Address, f.Ward, f.District, f.Province} {
		if v := strings.TrimSpace(p); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func buildLines(items []cart.Item) []OrderLine {
	lines := make([]OrderLine, len(items))
	for i, item := range items {
		lines[i] = OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
		}
	}
	return lines
}
