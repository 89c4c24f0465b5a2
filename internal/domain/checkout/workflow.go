package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/techstore-vn/checkout-api/internal/domain/cart"
	"github.com/techstore-vn/checkout-api/internal/domain/payment"
)

// SubmitError wraps an order-creation failure with the message shown to the
// customer: either the string extracted from the sales service's error body
// or the generic fallback.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string { return e.Message }
func (e *SubmitError) Unwrap() error { return e.Err }

// Attempt is one audit-trail record of a submission, successful or not.
type Attempt struct {
	SessionID      string
	OrderID        string
	UserID         string
	PaymentMethod  PaymentMethod
	DeliveryMethod DeliveryMethod
	Total          decimal.Decimal
	Succeeded      bool
	ErrorMessage   string
	CreatedAt      time.Time
}

// AuditLog records checkout attempts and serves them back as the session's
// attempt history. Recording is best-effort: a failing audit write never
// fails the checkout itself.
type AuditLog interface {
	Record(ctx context.Context, a Attempt) error
	// Recent returns the latest attempts for a session, newest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]Attempt, error)
}

// Workflow coordinates the whole checkout: session transitions, the single
// order-creation call, payment routing, and cart clearing. The submit lock
// is the duplicate-submission guard: it is claimed atomically before any
// order-creation call, so racing submits cannot both dispatch.
type Workflow struct {
	carts       *cart.Service
	sessions    SessionStore
	locks       SubmitLock
	dispatcher  *Dispatcher
	router      *payment.Router
	audit       AuditLog
	userMessage func(error) string
	now         func() time.Time
}

// NewWorkflow creates a checkout Workflow. audit may be nil. userMessage
// converts upstream errors into the customer-facing message.
func NewWorkflow(
	carts *cart.Service,
	sessions SessionStore,
	locks SubmitLock,
	dispatcher *Dispatcher,
	router *payment.Router,
	audit AuditLog,
	userMessage func(error) string,
) *Workflow {
	return &Workflow{
		carts:       carts,
		sessions:    sessions,
		locks:       locks,
		dispatcher:  dispatcher,
		router:      router,
		audit:       audit,
		userMessage: userMessage,
		now:         time.Now,
	}
}

// Session loads the checkout session for the given ID, creating a fresh one
// on step 1 if none is stored yet.
func (w *Workflow) Session(ctx context.Context, id string) (*Session, error) {
	s, err := w.sessions.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "load checkout session")
	}
	if s == nil {
		return NewSession(id), nil
	}
	return s, nil
}

// UpdateForm merges submitted field values into the session form.
func (w *Workflow) UpdateForm(ctx context.Context, id string, f Form) (*Session, error) {
	s, err := w.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusFilling {
		return nil, ErrAlreadyCompleted
	}
	s.UpdateForm(f)
	if err := w.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Next validates the current step and advances. The session is persisted in
// both outcomes so the error map survives a reload.
func (w *Workflow) Next(ctx context.Context, id string) (*Session, error) {
	s, err := w.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	stepErr := s.Next()
	if err := w.save(ctx, s); err != nil {
		return nil, err
	}
	return s, stepErr
}

// Back moves one step backwards without validating.
func (w *Workflow) Back(ctx context.Context, id string) (*Session, error) {
	s, err := w.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Back(); err != nil {
		return s, err
	}
	if err := w.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Submit runs the order placement sequence: in-flight guard, full form
// validation, the single order-creation call, then payment routing. The cart
// is cleared only once the payment branch reached a terminal or in-progress
// state, so a failed bank-transfer initiation keeps the cart intact.
func (w *Workflow) Submit(ctx context.Context, id string, ident *Identity) (*Session, payment.Outcome, error) {
	s, err := w.Session(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	// Claim the in-flight slot before anything else. The claim is atomic in
	// the lock store, so two racing submits cannot both pass no matter how
	// their session reads and writes interleave.
	ok, err := w.locks.Acquire(ctx, id)
	if err != nil {
		return nil, nil, errors.Wrap(err, "acquire submit lock")
	}
	if !ok {
		return s, nil, ErrSubmissionInFlight
	}
	defer func() {
		if err := w.locks.Release(ctx, id); err != nil {
			zctx.From(ctx).Warn("Releasing submit lock failed; the claim expires on its own",
				zap.String("session_id", id), zap.Error(err))
		}
	}()

	// Holding the lock proves no submission is running. A submitting status
	// in the store is leftover from a crash mid-submission, so put the
	// session back on the payment step instead of refusing forever.
	if s.Status == StatusSubmitting {
		s.failSubmit()
	}

	if err := s.beginSubmit(); err != nil {
		// Persist so a blocking error map survives, but keep validation
		// failures out of the store churn for guard errors.
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			if saveErr := w.save(ctx, s); saveErr != nil {
				return nil, nil, saveErr
			}
		}
		return s, nil, err
	}
	if err := w.save(ctx, s); err != nil {
		return nil, nil, err
	}

	c, err := w.carts.Get(ctx, id)
	if err != nil {
		w.abort(ctx, s)
		return s, nil, err
	}
	if c.IsEmpty() {
		w.abort(ctx, s)
		return s, nil, cart.ErrEmptyCart
	}
	snap := c.Snapshot(w.carts.TaxRate())

	res, err := w.dispatcher.Dispatch(ctx, c, s.Form, ident)
	if err != nil {
		w.abort(ctx, s)
		w.record(ctx, s, ident, "", snap.Total, err)
		return s, nil, &SubmitError{Message: w.userMessage(err), Err: err}
	}

	total := res.Total
	if total.IsZero() {
		total = snap.Total
	}

	outcome, err := w.router.Route(ctx, id, payment.Method(s.Form.PaymentMethod), res.OrderID, total)
	if err != nil {
		// Only bank transfer can fail here; the order exists but the
		// customer must retry initiation from the payment step.
		w.abort(ctx, s)
		w.record(ctx, s, ident, res.OrderID, total, err)
		return s, nil, err
	}

	if err := w.carts.Clear(ctx, id); err != nil {
		zctx.From(ctx).Warn("Clearing cart after checkout failed",
			zap.String("session_id", id), zap.Error(err))
	}

	status := StatusCompleted
	if _, ok := outcome.(payment.QRPending); ok {
		status = StatusAwaitingPayment
	}
	s.confirm(res.OrderID, res.OrderNumber, total, status)
	if err := w.save(ctx, s); err != nil {
		return nil, nil, err
	}
	w.record(ctx, s, ident, res.OrderID, total, nil)

	return s, outcome, nil
}

// ConfirmationView is everything the confirmation page renders.
type ConfirmationView struct {
	OrderID       string
	OrderNumber   string
	Status        Status
	PaymentMethod PaymentMethod
	Total         decimal.Decimal
	Explanation   string
	QR            *payment.Checkpoint
	TransferNote  string
}

// ErrNoConfirmedOrder is returned when the confirmation view is requested
// before a backend-confirmed order exists for the session.
var ErrNoConfirmedOrder = errors.New("no confirmed order for session")

// Confirmation builds the confirmation view from already-confirmed state.
// For bank transfers the QR checkpoint is re-read from durable storage so a
// reload during payment keeps the QR code and amount.
func (w *Workflow) Confirmation(ctx context.Context, id string) (*ConfirmationView, error) {
	s, err := w.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.OrderID == "" || s.Step != StepConfirmation {
		return nil, ErrNoConfirmedOrder
	}

	view := &ConfirmationView{
		OrderID:       s.OrderID,
		OrderNumber:   s.OrderNumber,
		Status:        s.Status,
		PaymentMethod: s.Form.PaymentMethod,
		Total:         s.OrderTotal,
		Explanation:   explanation(s.Form.PaymentMethod),
	}

	if s.Form.PaymentMethod == PaymentBankTransfer {
		cp, err := w.router.Checkpoint(ctx, id)
		if err != nil {
			return nil, errors.Wrap(err, "load payment checkpoint")
		}
		view.QR = cp
		view.TransferNote = "Thanh toan don hang " + s.OrderNumber
	}

	return view, nil
}

// Attempts lists the session's recent checkout attempts, newest first. An
// unconfigured audit trail yields an empty list.
func (w *Workflow) Attempts(ctx context.Context, id string, limit int) ([]Attempt, error) {
	if w.audit == nil {
		return nil, nil
	}
	attempts, err := w.audit.Recent(ctx, id, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list checkout attempts")
	}
	return attempts, nil
}

func explanation(m PaymentMethod) string {
	switch m {
	case PaymentCOD:
		return "Quý khách vui lòng thanh toán khi nhận hàng."
	case PaymentCreditCard:
		return "Thanh toán được xử lý qua cổng thẻ. Nếu chưa hoàn tất, quý khách có thể thanh toán lại từ trang đơn hàng."
	case PaymentBankTransfer:
		return "Quét mã QR bên dưới để chuyển khoản đúng số tiền kèm nội dung chuyển khoản. Đơn hàng được xác nhận sau khi nhận được thanh toán."
	default:
		return ""
	}
}

func (w *Workflow) save(ctx context.Context, s *Session) error {
	s.UpdatedAt = w.now()
	if err := w.sessions.Put(ctx, s); err != nil {
		return errors.Wrap(err, "save checkout session")
	}
	return nil
}

// abort returns the session to the editable payment step after a failed
// submission.
func (w *Workflow) abort(ctx context.Context, s *Session) {
	s.failSubmit()
	if err := w.save(ctx, s); err != nil {
		zctx.From(ctx).Error("Restoring session after failed submit", zap.Error(err))
	}
}

func (w *Workflow) record(ctx context.Context, s *Session, ident *Identity, orderID string, total decimal.Decimal, submitErr error) {
	if w.audit == nil {
		return
	}
	a := Attempt{
		SessionID:      s.ID,
		OrderID:        orderID,
		PaymentMethod:  s.Form.PaymentMethod,
		DeliveryMethod: s.Form.DeliveryMethod,
		Total:          total,
		Succeeded:      submitErr == nil,
		CreatedAt:      w.now(),
	}
	if ident != nil {
		a.UserID = ident.UserID
	}
	if submitErr != nil {
		a.ErrorMessage = submitErr.Error()
	}
	if err := w.audit.Record(ctx, a); err != nil {
		zctx.From(ctx).Warn("Recording checkout attempt failed", zap.Error(err))
	}
}
