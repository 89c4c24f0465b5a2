package payment

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type stubInitiator struct {
	gotOrderID  string
	gotAmount   decimal.Decimal
	gotProvider Method
	intent      *Intent
	err         error
}

func (s *stubInitiator) Initiate(_ context.Context, orderID string, amount decimal.Decimal, provider Method) (*Intent, error) {
	s.gotOrderID = orderID
	s.gotAmount = amount
	s.gotProvider = provider
	return s.intent, s.err
}

type stubCheckpoints struct {
	saved   []Checkpoint
	loaded  *Checkpoint
	saveErr error
}

func (s *stubCheckpoints) Save(_ context.Context, cp Checkpoint) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, cp)
	return nil
}

func (s *stubCheckpoints) Load(_ context.Context, _ string) (*Checkpoint, error) {
	return s.loaded, nil
}

// --- Tests ---

func TestRoute_COD(t *testing.T) {
	init := &stubInitiator{}
	r := NewRouter(init, &stubCheckpoints{}, "/payment")

	out, err := r.Route(context.Background(), "sess-1", MethodCOD, "ord-1", decimal.NewFromInt(100_000))
	require.NoError(t, err)
	assert.Equal(t, Immediate{OrderID: "ord-1"}, out)
	assert.Empty(t, init.gotOrderID, "cod never calls the payment service")
}

func TestRoute_CreditCard(t *testing.T) {
	init := &stubInitiator{intent: &Intent{PaymentID: "pay-1", PaymentURL: "https://gateway.example/1"}}
	r := NewRouter(init, &stubCheckpoints{}, "/payment")

	amount := decimal.NewFromInt(7_337_000)
	out, err := r.Route(context.Background(), "sess-1", MethodCreditCard, "ord-1", amount)
	require.NoError(t, err)

	assert.Equal(t, Redirect{URL: "https://gateway.example/1"}, out)
	assert.Equal(t, MethodCreditCard, init.gotProvider)
	assert.True(t, amount.Equal(init.gotAmount))
}

func TestRoute_CreditCard_Fallback(t *testing.T) {
	cases := []struct {
		name string
		init *stubInitiator
	}{
		{"gateway error", &stubInitiator{err: errors.New("gateway down")}},
		{"nil intent", &stubInitiator{}},
		{"empty payment url", &stubInitiator{intent: &Intent{PaymentID: "pay-1"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRouter(tc.init, &stubCheckpoints{}, "/payment")

			out, err := r.Route(context.Background(), "sess-1", MethodCreditCard, "ord-1", decimal.NewFromInt(100_000))
			require.NoError(t, err, "card initiation failure falls back instead of failing")

			redirect, ok := out.(Redirect)
			require.True(t, ok)
			assert.True(t, redirect.Fallback)
			assert.Equal(t, "/payment?error=payment_init_failed&orderId=ord-1", redirect.URL)
		})
	}
}

func TestRoute_BankTransfer(t *testing.T) {
	init := &stubInitiator{intent: &Intent{PaymentID: "pay-2", PaymentURL: "https://qr.example/ord-1.png"}}
	cps := &stubCheckpoints{}
	r := NewRouter(init, cps, "/payment")
	r.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	amount := decimal.NewFromInt(7_337_000)
	out, err := r.Route(context.Background(), "sess-1", MethodBankTransfer, "ord-1", amount)
	require.NoError(t, err)

	qr, ok := out.(QRPending)
	require.True(t, ok)
	assert.Equal(t, "ord-1", qr.OrderID)
	assert.Equal(t, "https://qr.example/ord-1.png", qr.QRImageURL)
	assert.True(t, amount.Equal(qr.Amount))

	require.Len(t, cps.saved, 1)
	cp := cps.saved[0]
	assert.Equal(t, "sess-1", cp.SessionID)
	assert.Equal(t, "https://qr.example/ord-1.png", cp.QRImageURL)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), cp.CreatedAt)
}

func TestRoute_BankTransfer_Errors(t *testing.T) {
	t.Run("initiation error", func(t *testing.T) {
		r := NewRouter(&stubInitiator{err: errors.New("down")}, &stubCheckpoints{}, "/payment")
		_, err := r.Route(context.Background(), "sess-1", MethodBankTransfer, "ord-1", decimal.NewFromInt(1))
		assert.Error(t, err)
	})

	t.Run("nil intent", func(t *testing.T) {
		r := NewRouter(&stubInitiator{}, &stubCheckpoints{}, "/payment")
		_, err := r.Route(context.Background(), "sess-1", MethodBankTransfer, "ord-1", decimal.NewFromInt(1))
		assert.ErrorIs(t, err, ErrQRUnavailable)
	})

	t.Run("no QR url", func(t *testing.T) {
		r := NewRouter(&stubInitiator{intent: &Intent{PaymentID: "pay-2"}}, &stubCheckpoints{}, "/payment")
		_, err := r.Route(context.Background(), "sess-1", MethodBankTransfer, "ord-1", decimal.NewFromInt(1))
		assert.ErrorIs(t, err, ErrQRUnavailable)
	})

	t.Run("checkpoint save error", func(t *testing.T) {
		init := &stubInitiator{intent: &Intent{PaymentID: "pay-2", PaymentURL: "https://qr.example/x.png"}}
		r := NewRouter(init, &stubCheckpoints{saveErr: errors.New("redis down")}, "/payment")
		_, err := r.Route(context.Background(), "sess-1", MethodBankTransfer, "ord-1", decimal.NewFromInt(1))
		assert.Error(t, err)
	})
}

func TestRoute_UnknownMethod(t *testing.T) {
	r := NewRouter(&stubInitiator{}, &stubCheckpoints{}, "/payment")
	_, err := r.Route(context.Background(), "sess-1", Method("momo"), "ord-1", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrUnknownMethod)
}
