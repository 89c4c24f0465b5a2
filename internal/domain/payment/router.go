package payment

import (
	"context"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Method mirrors the checkout payment methods on the wire.
type Method string

const (
	MethodCOD          Method = "cod"
	MethodBankTransfer Method = "bank_transfer"
	MethodCreditCard   Method = "credit_card"
)

// ErrUnknownMethod is returned for a payment method the router does not know.
var ErrUnknownMethod = errors.New("unknown payment method")

// ErrQRUnavailable is returned when bank-transfer initiation yields no QR
// URL. The checkout stays on the payment step so the customer can retry.
var ErrQRUnavailable = errors.New("bank transfer QR unavailable")

// Intent is the payment service's response to an initiation call.
type Intent struct {
	PaymentID  string
	PaymentURL string
}

// Initiator starts a payment attempt for an order with the given provider.
type Initiator interface {
	Initiate(ctx context.Context, orderID string, amount decimal.Decimal, provider Method) (*Intent, error)
}

// Checkpoint is the durable bank-transfer context written once initiation
// succeeds, so a page reload during payment does not lose the QR code or
// the amount the customer must transfer.
type Checkpoint struct {
	SessionID  string          `json:"sessionId"`
	OrderID    string          `json:"orderId"`
	QRImageURL string          `json:"qrImageUrl"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// CheckpointStore persists bank-transfer checkpoints.
type CheckpointStore interface {
	Save(ctx context.Context, cp Checkpoint) error
	// Load returns the stored checkpoint or nil when none exists.
	Load(ctx context.Context, sessionID string) (*Checkpoint, error)
}

// Router maps a created order and its chosen payment method onto one of the
// three payment flows.
type Router struct {
	payments    Initiator
	checkpoints CheckpointStore
	fallbackURL string
	now         func() time.Time
}

// NewRouter creates a Router. fallbackURL is the in-app payment page used
// when card-gateway initiation fails.
func NewRouter(payments Initiator, checkpoints CheckpointStore, fallbackURL string) *Router {
	return &Router{
		payments:    payments,
		checkpoints: checkpoints,
		fallbackURL: fallbackURL,
		now:         time.Now,
	}
}

// Route is entered only after the sales service confirmed the order, so
// every branch except a failed bank transfer is allowed to leave the order
// behind and move on.
//
//   - cod: nothing to initiate, Immediate.
//   - credit_card: ask the gateway for a redirect URL. Initiation failure is
//     non-fatal: the order already exists, so the customer is sent to the
//     in-app fallback page carrying an error flag.
//   - bank_transfer: ask for a QR image URL, checkpoint it, QRPending. No QR
//     means no advancement: the caller surfaces the error and allows retry.
func (r *Router) Route(ctx context.Context, sessionID string, method Method, orderID string, amount decimal.Decimal) (Outcome, error) {
	switch method {
	case MethodCOD:
		return Immediate{OrderID: orderID}, nil

	case MethodCreditCard:
		intent, err := r.payments.Initiate(ctx, orderID, amount, MethodCreditCard)
		if err != nil || intent == nil || intent.PaymentURL == "" {
			zctx.From(ctx).Warn("Card payment initiation failed, using fallback page",
				zap.String("order_id", orderID),
				zap.Error(err),
			)
			return Redirect{URL: r.fallbackPageURL(orderID), Fallback: true}, nil
		}
		return Redirect{URL: intent.PaymentURL}, nil

	case MethodBankTransfer:
		intent, err := r.payments.Initiate(ctx, orderID, amount, MethodBankTransfer)
		if err != nil {
			return nil, errors.Wrap(err, "initiate bank transfer")
		}
		if intent == nil || intent.PaymentURL == "" {
			return nil, ErrQRUnavailable
		}
		cp := Checkpoint{
			SessionID:  sessionID,
			OrderID:    orderID,
			QRImageURL: intent.PaymentURL,
			Amount:     amount,
			CreatedAt:  r.now(),
		}
		if err := r.checkpoints.Save(ctx, cp); err != nil {
			return nil, errors.Wrap(err, "save payment checkpoint")
		}
		return QRPending{OrderID: orderID, QRImageURL: intent.PaymentURL, Amount: amount}, nil

	default:
		return nil, ErrUnknownMethod
	}
}

// Checkpoint returns the stored bank-transfer context for a session, or nil.
func (r *Router) Checkpoint(ctx context.Context, sessionID string) (*Checkpoint, error) {
	return r.checkpoints.Load(ctx, sessionID)
}

func (r *Router) fallbackPageURL(orderID string) string {
	q := url.Values{}
	q.Set("orderId", orderID)
	q.Set("error", "payment_init_failed")
	return r.fallbackURL + "?" + q.Encode()
}
