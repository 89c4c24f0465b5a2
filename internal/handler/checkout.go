package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/techstore-vn/checkout-api/internal/domain/checkout"
	"github.com/techstore-vn/checkout-api/internal/domain/payment"
)

type checkoutResponse struct {
	Step        int               `json:"step"`
	Status      checkout.Status   `json:"status"`
	Form        checkout.Form     `json:"form"`
	Errors      checkout.ErrorMap `json:"errors"`
	OrderID     string            `json:"orderId,omitempty"`
	OrderNumber string            `json:"orderNumber,omitempty"`
}

func sessionResponse(s *checkout.Session) checkoutResponse {
	errs := s.Errors
	if errs == nil {
		errs = checkout.ErrorMap{}
	}
	return checkoutResponse{
		Step:        s.Step,
		Status:      s.Status,
		Form:        s.Form,
		Errors:      errs,
		OrderID:     s.OrderID,
		OrderNumber: s.OrderNumber,
	}
}

func (h *Handler) getCheckout(w http.ResponseWriter, r *http.Request) {
	s, err := h.workflow.Session(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

// updateFormRequest uses pointer fields so a partial PUT only touches the
// fields the request actually carried.
type updateFormRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`

	Address  *string `json:"address"`
	Ward     *string `json:"ward"`
	District *string `json:"district"`
	Province *string `json:"province"`

	DeliveryMethod *checkout.DeliveryMethod `json:"deliveryMethod"`
	PickupStoreID  *string                  `json:"pickupStoreId"`

	PaymentMethod *checkout.PaymentMethod `json:"paymentMethod"`
	CardNumber    *string                 `json:"cardNumber"`
	CardExpiry    *string                 `json:"cardExpiry"`
	CardCVV       *string                 `json:"cardCvv"`

	Notes *string `json:"notes"`
}

func (req *updateFormRequest) merge(f checkout.Form) checkout.Form {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&f.FullName, req.FullName)
	set(&f.Email, req.Email)
	set(&f.Phone, req.Phone)
	set(&f.Address, req.Address)
	set(&f.Ward, req.Ward)
	set(&f.District, req.District)
	set(&f.Province, req.Province)
	set(&f.PickupStoreID, req.PickupStoreID)
	set(&f.CardNumber, req.CardNumber)
	set(&f.CardExpiry, req.CardExpiry)
	set(&f.CardCVV, req.CardCVV)
	set(&f.Notes, req.Notes)
	if req.DeliveryMethod != nil {
		f.DeliveryMethod = *req.DeliveryMethod
	}
	if req.PaymentMethod != nil {
		f.PaymentMethod = *req.PaymentMethod
	}
	return f
}

func (h *Handler) updateForm(w http.ResponseWriter, r *http.Request) {
	var req updateFormRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.DeliveryMethod != nil && !checkout.ValidDeliveryMethod(*req.DeliveryMethod) {
		badRequest(w, "unknown delivery method")
		return
	}
	if req.PaymentMethod != nil && !checkout.ValidPaymentMethod(*req.PaymentMethod) {
		badRequest(w, "unknown payment method")
		return
	}

	cur, err := h.workflow.Session(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.workflow.UpdateForm(r.Context(), sessionID(r), req.merge(cur.Form))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

func (h *Handler) nextStep(w http.ResponseWriter, r *http.Request) {
	s, err := h.workflow.Next(r.Context(), sessionID(r))
	if err != nil {
		// Validation failures still return the session state so the
		// storefront can render the error map inline.
		var vErr *checkout.ValidationError
		if s != nil && errors.As(err, &vErr) {
			writeJSON(w, http.StatusUnprocessableEntity, sessionResponse(s))
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

func (h *Handler) prevStep(w http.ResponseWriter, r *http.Request) {
	s, err := h.workflow.Back(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

// outcomeResponse is the tagged payment outcome on the wire.
type outcomeResponse struct {
	Type        string           `json:"type"`
	OrderID     string           `json:"orderId,omitempty"`
	RedirectURL string           `json:"redirectUrl,omitempty"`
	Fallback    bool             `json:"fallback,omitempty"`
	QRImageURL  string           `json:"qrImageUrl,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
}

type submitResponse struct {
	checkoutResponse
	Outcome outcomeResponse `json:"outcome"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	s, outcome, err := h.workflow.Submit(r.Context(), sessionID(r), identity(r))
	if err != nil {
		var vErr *checkout.ValidationError
		if s != nil && errors.As(err, &vErr) {
			writeJSON(w, http.StatusUnprocessableEntity, sessionResponse(s))
			return
		}
		writeError(w, r, err)
		return
	}

	resp := submitResponse{checkoutResponse: sessionResponse(s)}
	switch o := outcome.(type) {
	case payment.Immediate:
		resp.Outcome = outcomeResponse{Type: "immediate", OrderID: o.OrderID}
	case payment.Redirect:
		resp.Outcome = outcomeResponse{Type: "redirect", RedirectURL: o.URL, Fallback: o.Fallback}
	case payment.QRPending:
		amount := o.Amount
		resp.Outcome = outcomeResponse{
			Type:       "qr_pending",
			OrderID:    o.OrderID,
			QRImageURL: o.QRImageURL,
			Amount:     &amount,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// attemptHistoryLimit caps the attempt history returned per session.
const attemptHistoryLimit = 10

type attemptResponse struct {
	OrderID        string                  `json:"orderId,omitempty"`
	PaymentMethod  checkout.PaymentMethod  `json:"paymentMethod"`
	DeliveryMethod checkout.DeliveryMethod `json:"deliveryMethod"`
	Total          decimal.Decimal         `json:"total"`
	Succeeded      bool                    `json:"succeeded"`
	ErrorMessage   string                  `json:"errorMessage,omitempty"`
	CreatedAt      time.Time               `json:"createdAt"`
}

// attempts renders the session's checkout attempt history from the audit
// trail, newest first. Without a configured audit store the list is empty.
func (h *Handler) attempts(w http.ResponseWriter, r *http.Request) {
	list, err := h.workflow.Attempts(r.Context(), sessionID(r), attemptHistoryLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]attemptResponse, 0, len(list))
	for _, a := range list {
		resp = append(resp, attemptResponse{
			OrderID:        a.OrderID,
			PaymentMethod:  a.PaymentMethod,
			DeliveryMethod: a.DeliveryMethod,
			Total:          a.Total,
			Succeeded:      a.Succeeded,
			ErrorMessage:   a.ErrorMessage,
			CreatedAt:      a.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"attempts": resp})
}

type confirmationResponse struct {
	OrderID       string                 `json:"orderId"`
	OrderNumber   string                 `json:"orderNumber"`
	Status        checkout.Status        `json:"status"`
	PaymentMethod checkout.PaymentMethod `json:"paymentMethod"`
	Total         decimal.Decimal        `json:"total"`
	Explanation   string                 `json:"explanation"`
	QRImageURL    string                 `json:"qrImageUrl,omitempty"`
	TransferNote  string                 `json:"transferNote,omitempty"`
}

func (h *Handler) confirmation(w http.ResponseWriter, r *http.Request) {
	view, err := h.workflow.Confirmation(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := confirmationResponse{
		OrderID:       view.OrderID,
		OrderNumber:   view.OrderNumber,
		Status:        view.Status,
		PaymentMethod: view.PaymentMethod,
		Total:         view.Total,
		Explanation:   view.Explanation,
		TransferNote:  view.TransferNote,
	}
	if view.QR != nil {
		resp.QRImageURL = view.QR.QRImageURL
	}
	writeJSON(w, http.StatusOK, resp)
}
