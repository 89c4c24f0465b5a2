// Package handler exposes the checkout API over HTTP. Handlers are thin:
// they decode JSON, resolve the session and identity, delegate to the
// domain services, and map errors onto status codes.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/techstore-vn/checkout-api/internal/domain/cart"
	"github.com/techstore-vn/checkout-api/internal/domain/catalog"
	"github.com/techstore-vn/checkout-api/internal/domain/checkout"
	"github.com/techstore-vn/checkout-api/internal/domain/payment"
)

// IdentityResolver resolves a bearer token into a customer identity.
type IdentityResolver interface {
	Identity(ctx context.Context, token string) (*checkout.Identity, error)
}

// Handler wires the cart service and checkout workflow into HTTP routes.
type Handler struct {
	carts    *cart.Service
	workflow *checkout.Workflow
	auth     IdentityResolver
}

// New constructs a Handler.
func New(carts *cart.Service, workflow *checkout.Workflow, auth IdentityResolver) *Handler {
	return &Handler{
		carts:    carts,
		workflow: workflow,
		auth:     auth,
	}
}

// Routes returns the API router. Every route runs behind the session and
// identity middlewares.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.withSession, h.withIdentity)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Post("/items", h.addItem)
		r.Patch("/items/{productID}", h.updateQuantity)
		r.Delete("/items/{productID}", h.removeItem)
		r.Post("/coupon", h.applyCoupon)
		r.Delete("/coupon", h.removeCoupon)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Get("/", h.getCheckout)
		r.Put("/form", h.updateForm)
		r.Post("/next", h.nextStep)
		r.Post("/back", h.prevStep)
		r.Post("/submit", h.submit)
		r.Get("/confirmation", h.confirmation)
		r.Get("/attempts", h.attempts)
	})

	return r
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Code: http.StatusBadRequest, Message: msg})
}

// writeError maps domain errors onto status codes. Everything recoverable
// gets a message the storefront can display; unexpected errors are logged
// and masked.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *checkout.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: vErr.Error(),
			Fields:  vErr.Fields,
		})
		return
	}

	var subErr *checkout.SubmitError
	if errors.As(err, &subErr) {
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Code:    http.StatusBadGateway,
			Message: subErr.Message,
		})
		return
	}

	switch {
	case errors.Is(err, cart.ErrItemNotFound), errors.Is(err, catalog.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Code: http.StatusNotFound, Message: err.Error()})
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, cart.ErrInvalidCoupon):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: http.StatusUnprocessableEntity, Message: err.Error()})
	case errors.Is(err, cart.ErrEmptyCart):
		writeJSON(w, http.StatusConflict, errorResponse{Code: http.StatusConflict, Message: err.Error()})
	case errors.Is(err, checkout.ErrSubmissionInFlight),
		errors.Is(err, checkout.ErrNotOnPaymentStep),
		errors.Is(err, checkout.ErrAlreadyCompleted):
		writeJSON(w, http.StatusConflict, errorResponse{Code: http.StatusConflict, Message: err.Error()})
	case errors.Is(err, checkout.ErrNoConfirmedOrder):
		writeJSON(w, http.StatusNotFound, errorResponse{Code: http.StatusNotFound, Message: err.Error()})
	case errors.Is(err, payment.ErrQRUnavailable):
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Code:    http.StatusBadGateway,
			Message: "Không tạo được mã QR thanh toán. Vui lòng thử lại.",
		})
	default:
		zctx.From(r.Context()).Error("Unhandled handler error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "internal server error",
		})
	}
}
