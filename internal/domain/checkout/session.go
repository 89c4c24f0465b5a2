package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Checkout steps. The flow is strictly linear: shipping info, payment
// method, confirmation.
const (
	StepShipping     = 1
	StepPayment      = 2
	StepConfirmation = 3
)

// Status tracks where a checkout session is in its lifecycle.
type Status string

const (
	// StatusFilling: the customer is still editing steps 1-2.
	StatusFilling Status = "filling"
	// StatusSubmitting: an order-creation call is in flight. The stored
	// status is informational; the duplicate-submission guard is the
	// SubmitLock claim.
	StatusSubmitting Status = "submitting"
	// StatusAwaitingPayment: the order exists and a bank transfer is pending.
	StatusAwaitingPayment Status = "awaiting_payment"
	// StatusCompleted: the order exists and needs no further action here.
	StatusCompleted Status = "completed"
)

// Sentinel errors for session transitions.
var (
	ErrSubmissionInFlight = errors.New("a submission is already in flight for this session")
	ErrNotOnPaymentStep   = errors.New("checkout is not on the payment step")
	ErrAlreadyCompleted   = errors.New("checkout already completed")
)

// ValidationError carries the field errors that blocked a step transition or
// submission. It is recoverable: the session stays on the same step.
type ValidationError struct {
	Fields ErrorMap
}

func (e *ValidationError) Error() string {
	return "form validation failed"
}

// Session is one customer's checkout in progress. It is persisted between
// requests; all transitions happen through its methods.
type Session struct {
	ID     string   `json:"id"`
	Step   int      `json:"step"`
	Status Status   `json:"status"`
	Form   Form     `json:"form"`
	Errors ErrorMap `json:"errors,omitempty"`

	// Set once the sales service confirms the order.
	OrderID     string          `json:"orderId,omitempty"`
	OrderNumber string          `json:"orderNumber,omitempty"`
	OrderTotal  decimal.Decimal `json:"orderTotal"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession starts an empty checkout session on step 1 with delivery
// defaults.
func NewSession(id string) *Session {
	return &Session{
		ID:     id,
		Step:   StepShipping,
		Status: StatusFilling,
		Form: Form{
			DeliveryMethod: DeliveryShip,
			PaymentMethod:  PaymentCOD,
		},
		Errors:     ErrorMap{},
		OrderTotal: decimal.Zero,
	}
}

// UpdateForm merges the given form into the session and clears error entries
// the new toggles made irrelevant. No validation happens here; that is
// deferred to the next step transition.
func (s *Session) UpdateForm(f Form) {
	s.Form = f
	if s.Errors == nil {
		s.Errors = ErrorMap{}
	}
	s.Errors.clearIrrelevant(f)
}

// Next validates the current step and advances on success. It only moves
// 1 -> 2; leaving step 2 requires Submit, and step 3 is terminal. On
// validation failure the error map is stored on the session and the step
// does not change.
func (s *Session) Next() error {
	switch s.Step {
	case StepShipping:
		if errs := Validate(s.Form, StepShipping); len(errs) > 0 {
			s.Errors = errs
			return &ValidationError{Fields: errs}
		}
		s.Errors = ErrorMap{}
		s.Step = StepPayment
		return nil
	case StepPayment:
		return ErrNotOnPaymentStep
	default:
		return ErrAlreadyCompleted
	}
}

// Back moves one step backwards. It never validates and never fails; on
// step 1 it is a no-op. A completed checkout cannot be re-opened.
func (s *Session) Back() error {
	if s.Status == StatusCompleted || s.Status == StatusAwaitingPayment {
		return ErrAlreadyCompleted
	}
	if s.Step > StepShipping {
		s.Step--
	}
	return nil
}

// beginSubmit flips the session into the in-flight state. It re-validates
// both editable steps so a crafted request cannot skip the form checks.
func (s *Session) beginSubmit() error {
	if s.Status == StatusSubmitting {
		return ErrSubmissionInFlight
	}
	if s.Status != StatusFilling {
		return ErrAlreadyCompleted
	}
	if s.Step != StepPayment {
		return ErrNotOnPaymentStep
	}

	errs := Validate(s.Form, StepShipping)
	for k, v := range Validate(s.Form, StepPayment) {
		errs[k] = v
	}
	if len(errs) > 0 {
		s.Errors = errs
		return &ValidationError{Fields: errs}
	}

	s.Errors = ErrorMap{}
	s.Status = StatusSubmitting
	return nil
}

// failSubmit returns the session to the payment step after a failed
// order-creation or payment-initiation call so the customer can retry.
func (s *Session) failSubmit() {
	s.Status = StatusFilling
	s.Step = StepPayment
}

// confirm records the created order and moves to the confirmation step.
func (s *Session) confirm(orderID, orderNumber string, total decimal.Decimal, st Status) {
	s.OrderID = orderID
	s.OrderNumber = orderNumber
	s.OrderTotal = total
	s.Step = StepConfirmation
	s.Status = st
}

// SessionStore persists checkout sessions between requests.
type SessionStore interface {
	// Get returns the stored session or nil when none exists.
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
}

// SubmitLock claims exclusive submission rights for a session. The claim
// must be atomic across API instances, and implementations give it a TTL so
// a crash mid-submission cannot block the session until the session itself
// expires.
type SubmitLock interface {
	// Acquire claims the lock, returning false when another submission
	// already holds it.
	Acquire(ctx context.Context, id string) (bool, error)
	// Release frees the claim once the submission reached a terminal state.
	Release(ctx context.Context, id string) error
}
