package upstream

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/techstore-vn/checkout-api/internal/domain/payment"
)

// PaymentClient talks to the payment service's initiation endpoint. It
// implements payment.Initiator.
type PaymentClient struct {
	client
}

var _ payment.Initiator = (*PaymentClient)(nil)

// NewPaymentClient creates a payment service client.
func NewPaymentClient(baseURL string, timeout time.Duration) *PaymentClient {
	return &PaymentClient{client: newClient(baseURL, timeout)}
}

type initiateRequest struct {
	OrderID  string          `json:"orderId"`
	Amount   decimal.Decimal `json:"amount"`
	Provider string          `json:"provider"`
}

type initiateResponse struct {
	PaymentID  string `json:"paymentId"`
	PaymentURL string `json:"paymentUrl"`
}

// Initiate asks the payment service to start a payment attempt for the
// order. For card payments PaymentURL is the gateway redirect; for bank
// transfers it is the QR image URL. The intent's lifecycle is owned by the
// payment service.
func (c *PaymentClient) Initiate(ctx context.Context, orderID string, amount decimal.Decimal, provider payment.Method) (*payment.Intent, error) {
	var resp initiateResponse
	err := c.do(ctx, http.MethodPost, "/api/payments/initiate", "", initiateRequest{
		OrderID:  orderID,
		Amount:   amount,
		Provider: string(provider),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &payment.Intent{
		PaymentID:  resp.PaymentID,
		PaymentURL: resp.PaymentURL,
	}, nil
}
