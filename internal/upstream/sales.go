package upstream

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/techstore-vn/checkout-api/internal/domain/cart"
	"github.com/techstore-vn/checkout-api/internal/domain/checkout"
)

// SalesClient talks to the sales service: order creation (authenticated and
// guest) and coupon validation. It implements checkout.SalesClient and
// cart.CouponValidator.
type SalesClient struct {
	client
}

var (
	_ checkout.SalesClient = (*SalesClient)(nil)
	_ cart.CouponValidator = (*SalesClient)(nil)
)

// NewSalesClient creates a sales service client.
func NewSalesClient(baseURL string, timeout time.Duration) *SalesClient {
	return &SalesClient{client: newClient(baseURL, timeout)}
}

type orderResponse struct {
	ID          string          `json:"id"`
	OrderNumber string          `json:"orderNumber"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// CreateOrder places an authenticated order.
func (c *SalesClient) CreateOrder(ctx context.Context, req checkout.OrderRequest) (*checkout.OrderResult, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders", "", req, &resp); err != nil {
		return nil, err
	}
	return &checkout.OrderResult{
		OrderID:     resp.ID,
		OrderNumber: resp.OrderNumber,
		Total:       resp.TotalAmount,
	}, nil
}

// CreateGuestOrder places a guest order carrying the customer contact data
// inline.
func (c *SalesClient) CreateGuestOrder(ctx context.Context, req checkout.GuestOrderRequest) (*checkout.OrderResult, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders/guest", "", req, &resp); err != nil {
		return nil, err
	}
	return &checkout.OrderResult{
		OrderID:     resp.ID,
		OrderNumber: resp.OrderNumber,
		Total:       resp.TotalAmount,
	}, nil
}

type validateCouponRequest struct {
	Code  string           `json:"code"`
	Items []couponItemBody `json:"items"`
}

type couponItemBody struct {
	ProductID string          `json:"productId"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type validateCouponResponse struct {
	Valid          bool            `json:"valid"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Description    string          `json:"description"`
	Message        string          `json:"message"`
}

// Validate asks the sales service whether the coupon applies to the given
// items. Discount rules are opaque to this client beyond the returned
// amount.
func (c *SalesClient) Validate(ctx context.Context, code string, items []cart.Item) (*cart.Discount, error) {
	req := validateCouponRequest{
		Code:  code,
		Items: make([]couponItemBody, len(items)),
	}
	for i, item := range items {
		req.Items[i] = couponItemBody{
			ProductID: item.ProductID,
			Price:     item.Price,
			Quantity:  item.Quantity,
		}
	}

	var resp validateCouponResponse
	if err := c.do(ctx, http.MethodPost, "/api/coupons/validate", "", req, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnprocessableEntity {
			return nil, cart.ErrInvalidCoupon
		}
		return nil, err
	}
	if !resp.Valid {
		return nil, cart.ErrInvalidCoupon
	}
	return &cart.Discount{
		Amount:      resp.DiscountAmount,
		Description: resp.Description,
	}, nil
}
