// Package payment routes a freshly created order into one of the supported
// payment flows and tracks the bank-transfer QR checkpoint.
package payment

import "github.com/shopspring/decimal"

// Outcome is the tagged result of routing an order to its payment flow.
// Exactly one variant is produced per successful routing.
type Outcome interface {
	outcome()
}

// Immediate means no payment interaction is needed now (cash on delivery).
type Immediate struct {
	OrderID string
}

// Redirect sends the browser to an external gateway URL, or to the in-app
// fallback payment page when initiation failed (Fallback true).
type Redirect struct {
	URL      string
	Fallback bool
}

// QRPending shows a bank-transfer QR code and waits for the server-side
// webhook to confirm payment. There is no client-side expiry.
type QRPending struct {
	OrderID    string
	QRImageURL string
	Amount     decimal.Decimal
}

func (Immediate) outcome() {}
func (Redirect) outcome()  {}
func (QRPending) outcome() {}
