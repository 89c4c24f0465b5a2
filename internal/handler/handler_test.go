package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techstore-vn/checkout-api/internal/domain/cart"
	"github.com/techstore-vn/checkout-api/internal/domain/catalog"
	"github.com/techstore-vn/checkout-api/internal/domain/checkout"
	"github.com/techstore-vn/checkout-api/internal/domain/payment"
)

// --- Mock implementations ---

type memCartStore struct {
	carts map[string]*cart.Cart
}

func (m *memCartStore) Get(_ context.Context, id string) (*cart.Cart, error) { return m.carts[id], nil }
func (m *memCartStore) Put(_ context.Context, c *cart.Cart) error {
	m.carts[c.SessionID] = c
	return nil
}
func (m *memCartStore) Delete(_ context.Context, id string) error {
	delete(m.carts, id)
	return nil
}

type memSessionStore struct {
	sessions map[string]*checkout.Session
}

func (m *memSessionStore) Get(_ context.Context, id string) (*checkout.Session, error) {
	return m.sessions[id], nil
}
func (m *memSessionStore) Put(_ context.Context, s *checkout.Session) error {
	m.sessions[s.ID] = s
	return nil
}

type fakeCatalog struct {
	products map[string]catalog.Product
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (f *fakeCatalog) GetByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		p, err := f.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

type fakeValidator struct {
	discounts map[string]cart.Discount
}

func (f *fakeValidator) Validate(_ context.Context, code string, _ []cart.Item) (*cart.Discount, error) {
	d, ok := f.discounts[code]
	if !ok {
		return nil, cart.ErrInvalidCoupon
	}
	return &d, nil
}

type fakeSales struct {
	authReqs  []checkout.OrderRequest
	guestReqs []checkout.GuestOrderRequest
	result    *checkout.OrderResult
	err       error
}

func (f *fakeSales) CreateOrder(_ context.Context, req checkout.OrderRequest) (*checkout.OrderResult, error) {
	f.authReqs = append(f.authReqs, req)
	return f.result, f.err
}

func (f *fakeSales) CreateGuestOrder(_ context.Context, req checkout.GuestOrderRequest) (*checkout.OrderResult, error) {
	f.guestReqs = append(f.guestReqs, req)
	return f.result, f.err
}

type fakeInitiator struct {
	intent *payment.Intent
	err    error
}

func (f *fakeInitiator) Initiate(_ context.Context, _ string, _ decimal.Decimal, _ payment.Method) (*payment.Intent, error) {
	return f.intent, f.err
}

type memCheckpointStore struct {
	saved map[string]payment.Checkpoint
}

func (m *memCheckpointStore) Save(_ context.Context, cp payment.Checkpoint) error {
	m.saved[cp.SessionID] = cp
	return nil
}

func (m *memCheckpointStore) Load(_ context.Context, id string) (*payment.Checkpoint, error) {
	cp, ok := m.saved[id]
	if !ok {
		return nil, nil
	}
	return &cp, nil
}

type fakeAuth struct {
	tokens map[string]*checkout.Identity
}

func (f *fakeAuth) Identity(_ context.Context, token string) (*checkout.Identity, error) {
	ident, ok := f.tokens[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return ident, nil
}

type fakeSubmitLock struct {
	held map[string]bool
}

func (f *fakeSubmitLock) Acquire(_ context.Context, id string) (bool, error) {
	if f.held[id] {
		return false, nil
	}
	f.held[id] = true
	return true, nil
}

func (f *fakeSubmitLock) Release(_ context.Context, id string) error {
	delete(f.held, id)
	return nil
}

type fakeAudit struct {
	attempts []checkout.Attempt
}

func (f *fakeAudit) Record(_ context.Context, a checkout.Attempt) error {
	f.attempts = append(f.attempts, a)
	return nil
}

func (f *fakeAudit) Recent(_ context.Context, sessionID string, limit int) ([]checkout.Attempt, error) {
	var out []checkout.Attempt
	for i := len(f.attempts) - 1; i >= 0 && len(out) < limit; i-- {
		if f.attempts[i].SessionID == sessionID {
			out = append(out, f.attempts[i])
		}
	}
	return out, nil
}

// --- Helpers ---

type fixture struct {
	srv   *httptest.Server
	sales *fakeSales
	init  *fakeInitiator
	audit *fakeAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalogStub := &fakeCatalog{products: map[string]catalog.Product{
		"p-1": {ID: "p-1", Name: "Màn hình LG 27 inch", Price: decimal.NewFromInt(1_000_000), InStock: true},
		"p-2": {ID: "p-2", Name: "Bàn phím cơ", Price: decimal.NewFromInt(500_000), InStock: true},
	}}
	validator := &fakeValidator{discounts: map[string]cart.Discount{
		"GIAM50K": {Amount: decimal.NewFromInt(50_000), Description: "Giảm 50.000₫"},
	}}
	sales := &fakeSales{result: &checkout.OrderResult{OrderID: "ord-1", OrderNumber: "DH-0001"}}
	init := &fakeInitiator{}
	auth := &fakeAuth{tokens: map[string]*checkout.Identity{
		"tok-42": {UserID: "user-42", FullName: "Nguyễn Văn An", Email: "an@example.com"},
	}}

	carts := cart.NewService(&memCartStore{carts: map[string]*cart.Cart{}}, catalogStub, validator, nil, decimal.NewFromFloat(0.1))
	router := payment.NewRouter(init, &memCheckpointStore{saved: map[string]payment.Checkpoint{}}, "/payment")
	audit := &fakeAudit{}
	workflow := checkout.NewWorkflow(
		carts,
		&memSessionStore{sessions: map[string]*checkout.Session{}},
		&fakeSubmitLock{held: map[string]bool{}},
		checkout.NewDispatcher(sales),
		router,
		audit,
		func(err error) string { return err.Error() },
	)

	srv := httptest.NewServer(New(carts, workflow, auth).Routes())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, sales: sales, init: init, audit: audit}
}

func (f *fixture) do(t *testing.T, method, path, session, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	require.NoError(t, err)
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func fillShippingForm() map[string]any {
	return map[string]any{
		"fullName":       "Nguyễn Văn An",
		"email":          "an.nguyen@example.com",
		"phone":          "0912345678",
		"address":        "12 Lý Thường Kiệt",
		"ward":           "Phường Cửa Nam",
		"district":       "Quận Hoàn Kiếm",
		"province":       "Hà Nội",
		"deliveryMethod": "delivery",
		"paymentMethod":  "cod",
	}
}

// --- Tests ---

func TestSessionHeader(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/cart", nil)
	require.NoError(t, err)
	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	minted := resp.Header.Get(SessionHeader)
	assert.NotEmpty(t, minted, "server mints a session ID when the client has none")

	req.Header.Set(SessionHeader, "sess-known")
	resp, err = f.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "sess-known", resp.Header.Get(SessionHeader))
}

func TestGetCart_Empty(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/cart", "sess-1", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	items, ok := body["items"].([]any)
	require.True(t, ok, "items must be a JSON array, never null")
	assert.Empty(t, items)
	assert.Equal(t, "0", body["total"])
}

func TestCartTotals(t *testing.T) {
	f := newFixture(t)

	_, _ = f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{"productId": "p-1", "quantity": 1})
	resp, body := f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{"productId": "p-2", "quantity": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "2000000", body["subtotal"])
	assert.Equal(t, "200000", body["tax"])
	assert.Equal(t, "2200000", body["total"])
}

func TestAddItem_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{"productId": "missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddItem_DefaultsQuantity(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{"productId": "p-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(1), items[0].(map[string]any)["quantity"])
}

func TestAddItems_Batch(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{
		"items": []map[string]any{
			{"productId": "p-1", "quantity": 1},
			{"productId": "p-2", "quantity": 2},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := body["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "2000000", body["subtotal"])
	assert.Equal(t, "2200000", body["total"])
}

func TestAddItems_BatchUnknownProductAddsNothing(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{
		"items": []map[string]any{
			{"productId": "p-1", "quantity": 1},
			{"productId": "missing", "quantity": 1},
		},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body := f.do(t, http.MethodGet, "/cart", "sess-1", "", nil)
	assert.Empty(t, body["items"], "a batch is all-or-nothing")
}

func TestAddItems_BatchMissingProductID(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{
		"items": []map[string]any{{"quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{"productId": "p-1", "quantity": 1})

	resp, body := f.do(t, http.MethodPatch, "/cart/items/p-1", "sess-1", "", map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "3000000", body["subtotal"])

	resp, body = f.do(t, http.MethodDelete, "/cart/items/p-1", "sess-1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])

	resp, _ = f.do(t, http.MethodDelete, "/cart/items/p-1", "sess-1", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCoupon(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{"productId": "p-1", "quantity": 1})

	resp, body := f.do(t, http.MethodPost, "/cart/coupon", "sess-1", "", map[string]any{"code": "giam50k"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "GIAM50K", body["couponCode"], "code is normalized before validation")
	assert.Equal(t, "50000", body["discountAmount"])
	// (1,000,000 - 50,000) * 1.1
	assert.Equal(t, "1045000", body["total"])
	assert.Equal(t, "Giảm 50.000₫", body["description"])

	resp, _ = f.do(t, http.MethodPost, "/cart/coupon", "sess-1", "", map[string]any{"code": "BOGUS"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = f.do(t, http.MethodDelete, "/cart/coupon", "sess-1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, body["couponCode"])
	assert.Equal(t, "1100000", body["total"])
}

func TestCoupon_EmptyCart(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, http.MethodPost, "/cart/coupon", "sess-1", "", map[string]any{"code": "GIAM50K"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCheckout_NextValidation(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/checkout/next", "sess-1", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errs, "fullName")
	assert.Contains(t, errs, "phone")
	assert.Equal(t, float64(1), body["step"], "validation failure keeps the customer on step 1")
}

func TestCheckout_FullFlow_COD(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{"productId": "p-1", "quantity": 1})
	_, _ = f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{"productId": "p-2", "quantity": 2})

	resp, _ := f.do(t, http.MethodPut, "/checkout/form", "sess-1", "", fillShippingForm())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/checkout/next", "sess-1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["step"])

	resp, body = f.do(t, http.MethodPost, "/checkout/submit", "sess-1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, float64(3), body["step"])
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, "DH-0001", body["orderNumber"])

	outcome := body["outcome"].(map[string]any)
	assert.Equal(t, "immediate", outcome["type"])
	assert.Equal(t, "ord-1", outcome["orderId"])

	// The order went out as guest: no token was sent.
	require.Len(t, f.sales.guestReqs, 1)
	assert.Equal(t, "Nguyễn Văn An", f.sales.guestReqs[0].CustomerName)

	_, cartBody := f.do(t, http.MethodGet, "/cart", "sess-1", "", nil)
	assert.Empty(t, cartBody["items"], "cart cleared after checkout")

	resp, conf := f.do(t, http.MethodGet, "/checkout/confirmation", "sess-1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "DH-0001", conf["orderNumber"])
	assert.NotEmpty(t, conf["explanation"])
	assert.Nil(t, conf["qrImageUrl"])
}

func TestCheckout_AuthenticatedSubmit(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{"productId": "p-1", "quantity": 1})
	_, _ = f.do(t, http.MethodPut, "/checkout/form", "sess-1", "tok-42", fillShippingForm())
	_, _ = f.do(t, http.MethodPost, "/checkout/next", "sess-1", "tok-42", nil)

	resp, _ := f.do(t, http.MethodPost, "/checkout/submit", "sess-1", "tok-42", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, f.sales.authReqs, 1)
	assert.Equal(t, "user-42", f.sales.authReqs[0].UserID)
	assert.Empty(t, f.sales.guestReqs)
}

func TestCheckout_BadTokenFallsBackToGuest(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{"productId": "p-1", "quantity": 1})
	_, _ = f.do(t, http.MethodPut, "/checkout/form", "sess-1", "expired-token", fillShippingForm())
	_, _ = f.do(t, http.MethodPost, "/checkout/next", "sess-1", "expired-token", nil)

	resp, _ := f.do(t, http.MethodPost, "/checkout/submit", "sess-1", "expired-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, f.sales.guestReqs, 1)
	assert.Empty(t, f.sales.authReqs)
}

func TestCheckout_BankTransferFlow(t *testing.T) {
	f := newFixture(t)
	f.init.intent = &payment.Intent{PaymentID: "pay-1", PaymentURL: "https://qr.example/ord-1.png"}

	_, _ = f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{"productId": "p-1", "quantity": 1})
	form := fillShippingForm()
	form["paymentMethod"] = "bank_transfer"
	_, _ = f.do(t, http.MethodPut, "/checkout/form", "sess-1", "", form)
	_, _ = f.do(t, http.MethodPost, "/checkout/next", "sess-1", "", nil)

	resp, body := f.do(t, http.MethodPost, "/checkout/submit", "sess-1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "awaiting_payment", body["status"])

	outcome := body["outcome"].(map[string]any)
	assert.Equal(t, "qr_pending", outcome["type"])
	assert.Equal(t, "https://qr.example/ord-1.png", outcome["qrImageUrl"])
	assert.Equal(t, "1100000", outcome["amount"])

	resp, conf := f.do(t, http.MethodGet, "/checkout/confirmation", "sess-1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://qr.example/ord-1.png", conf["qrImageUrl"])
	assert.Equal(t, "Thanh toan don hang DH-0001", conf["transferNote"])
}

func TestCheckout_BankTransferUnavailable(t *testing.T) {
	f := newFixture(t)
	f.init.intent = &payment.Intent{PaymentID: "pay-1"} // no QR URL

	_, _ = f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{"productId": "p-1", "quantity": 1})
	form := fillShippingForm()
	form["paymentMethod"] = "bank_transfer"
	_, _ = f.do(t, http.MethodPut, "/checkout/form", "sess-1", "", form)
	_, _ = f.do(t, http.MethodPost, "/checkout/next", "sess-1", "", nil)

	resp, body := f.do(t, http.MethodPost, "/checkout/submit", "sess-1", "", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Không tạo được mã QR thanh toán. Vui lòng thử lại.", body["message"])

	_, cartBody := f.do(t, http.MethodGet, "/cart", "sess-1", "", nil)
	assert.NotEmpty(t, cartBody["items"], "cart survives a failed QR initiation")
}

func TestCheckout_SubmitUpstreamError(t *testing.T) {
	f := newFixture(t)
	f.sales.result = nil
	f.sales.err = errors.New("Sản phẩm đã hết hàng")

	_, _ = f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{"productId": "p-1", "quantity": 1})
	_, _ = f.do(t, http.MethodPut, "/checkout/form", "sess-1", "", fillShippingForm())
	_, _ = f.do(t, http.MethodPost, "/checkout/next", "sess-1", "", nil)

	resp, body := f.do(t, http.MethodPost, "/checkout/submit", "sess-1", "", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Sản phẩm đã hết hàng", body["message"])
}

func TestCheckout_SubmitOnWrongStep(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{"productId": "p-1", "quantity": 1})

	resp, _ := f.do(t, http.MethodPost, "/checkout/submit", "sess-1", "", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCheckout_SubmitEmptyCart(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPut, "/checkout/form", "sess-1", "", fillShippingForm())
	_, _ = f.do(t, http.MethodPost, "/checkout/next", "sess-1", "", nil)

	resp, _ := f.do(t, http.MethodPost, "/checkout/submit", "sess-1", "", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCheckout_UpdateForm_RejectsUnknownMethods(t *testing.T) {
	f := newFixture(t)

	form := fillShippingForm()
	form["paymentMethod"] = "paypal"
	resp, _ := f.do(t, http.MethodPut, "/checkout/form", "sess-1", "", form)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	form = fillShippingForm()
	form["deliveryMethod"] = "drone"
	resp, _ = f.do(t, http.MethodPut, "/checkout/form", "sess-1", "", form)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckout_UpdateForm_PartialMerge(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPut, "/checkout/form", "sess-1", "", fillShippingForm())

	resp, body := f.do(t, http.MethodPut, "/checkout/form", "sess-1", "", map[string]any{
		"phone": "0987654321",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	form := body["form"].(map[string]any)
	assert.Equal(t, "0987654321", form["phone"])
	assert.Equal(t, "Nguyễn Văn An", form["fullName"], "fields absent from the request keep their value")
	assert.Equal(t, "12 Lý Thường Kiệt", form["address"])
	assert.Equal(t, "cod", form["paymentMethod"])
}

func TestCheckout_Attempts(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/checkout/attempts", "sess-1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	attempts, ok := body["attempts"].([]any)
	require.True(t, ok, "attempts must be a JSON array, never null")
	assert.Empty(t, attempts)

	_, _ = f.do(t, http.MethodPost, "/cart/items", "sess-1", "", map[string]any{"productId": "p-1", "quantity": 1})
	_, _ = f.do(t, http.MethodPut, "/checkout/form", "sess-1", "", fillShippingForm())
	_, _ = f.do(t, http.MethodPost, "/checkout/next", "sess-1", "", nil)
	resp, _ = f.do(t, http.MethodPost, "/checkout/submit", "sess-1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = f.do(t, http.MethodGet, "/checkout/attempts", "sess-1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	attempts = body["attempts"].([]any)
	require.Len(t, attempts, 1)

	a := attempts[0].(map[string]any)
	assert.Equal(t, "ord-1", a["orderId"])
	assert.Equal(t, true, a["succeeded"])
	assert.Equal(t, "cod", a["paymentMethod"])
}

func TestCheckout_Back(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPut, "/checkout/form", "sess-1", "", fillShippingForm())
	_, _ = f.do(t, http.MethodPost, "/checkout/next", "sess-1", "", nil)

	resp, body := f.do(t, http.MethodPost, "/checkout/back", "sess-1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["step"])
}

func TestConfirmation_BeforeOrder(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, http.MethodGet, "/checkout/confirmation", "sess-1", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
