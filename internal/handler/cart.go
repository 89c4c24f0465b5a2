package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/techstore-vn/checkout-api/internal/domain/cart"
)

type cartResponse struct {
	SessionID      string          `json:"sessionId"`
	Items          []cart.Item     `json:"items"`
	CouponCode     string          `json:"couponCode,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
}

func (h *Handler) cartResponse(c *cart.Cart) cartResponse {
	snap := c.Snapshot(h.carts.TaxRate())
	items := c.Items
	if items == nil {
		items = []cart.Item{}
	}
	return cartResponse{
		SessionID:      c.SessionID,
		Items:          items,
		CouponCode:     c.CouponCode,
		Subtotal:       snap.Subtotal,
		DiscountAmount: snap.DiscountAmount,
		Tax:            snap.Tax,
		Total:          snap.Total,
	}
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse(c))
}

type addItemLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// addItemRequest carries either a single product reference or an items array
// for a multi-line add (restoring a saved build list in one call).
type addItemRequest struct {
	ProductID string        `json:"productId"`
	Quantity  int           `json:"quantity"`
	Items     []addItemLine `json:"items"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	if len(req.Items) > 0 {
		h.addItems(w, r, req.Items)
		return
	}

	if req.ProductID == "" {
		badRequest(w, "productId is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	c, err := h.carts.AddProduct(r.Context(), sessionID(r), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse(c))
}

// addItems is the multi-line variant: products are fetched in one concurrent
// batch and the add is all-or-nothing.
func (h *Handler) addItems(w http.ResponseWriter, r *http.Request, lines []addItemLine) {
	batch := make([]cart.BatchItem, len(lines))
	for i, ln := range lines {
		if ln.ProductID == "" {
			badRequest(w, "productId is required")
			return
		}
		if ln.Quantity == 0 {
			ln.Quantity = 1
		}
		batch[i] = cart.BatchItem{ProductID: ln.ProductID, Quantity: ln.Quantity}
	}

	c, err := h.carts.AddProducts(r.Context(), sessionID(r), batch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse(c))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	c, err := h.carts.UpdateQuantity(r.Context(), sessionID(r), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse(c))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Remove(r.Context(), sessionID(r), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse(c))
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

type applyCouponResponse struct {
	cartResponse
	Description string `json:"description,omitempty"`
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	c, d, err := h.carts.ApplyCoupon(r.Context(), sessionID(r), req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, applyCouponResponse{
		cartResponse: h.cartResponse(c),
		Description:  d.Description,
	})
}

func (h *Handler) removeCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveCoupon(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse(c))
}
