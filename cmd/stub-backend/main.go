// Command stub-backend is a fake of the catalog, sales, payment and auth
// services used by the integration test harness. It serves a small fixed
// product set, accepts orders, validates one known coupon code and hands out
// static payment intents.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Brand    string          `json:"brand"`
	ImageURL string          `json:"imageUrl"`
	InStock  bool            `json:"inStock"`
}

var products = map[string]product{
	"cpu-14400f": {
		ID: "cpu-14400f", Name: "CPU Intel Core i5-14400F",
		Price: decimal.NewFromInt(4_290_000), Brand: "Intel", InStock: true,
	},
	"ram-fury-16": {
		ID: "ram-fury-16", Name: "RAM Kingston Fury Beast 16GB DDR4",
		Price: decimal.NewFromInt(1_190_000), Brand: "Kingston", InStock: true,
	},
	"ssd-nv2-1tb": {
		ID: "ssd-nv2-1tb", Name: "SSD Kingston NV2 1TB NVMe",
		Price: decimal.NewFromInt(1_590_000), Brand: "Kingston", InStock: true,
	},
	"oos-4090": {
		ID: "oos-4090", Name: "VGA RTX 4090 24GB",
		Price: decimal.NewFromInt(49_990_000), Brand: "NVIDIA", InStock: false,
	},
}

const (
	knownCoupon = "GIAM50K"
	knownToken  = "integration-token"
)

var orderSeq atomic.Int64

func main() {
	addr := flag.String("addr", "0.0.0.0:9090", "listen address")
	flag.Parse()

	lg := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	r := chi.NewRouter()
	r.Get("/api/products/{id}", getProduct)
	r.Post("/api/orders", createOrder)
	r.Post("/api/orders/guest", createOrder)
	r.Post("/api/coupons/validate", validateCoupon)
	r.Post("/api/payments/initiate", initiatePayment)
	r.Get("/api/auth/profile", getProfile)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	lg.Info("stub backend listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, r); err != nil {
		lg.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func getProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := products[chi.URLParam(r, "id")]
	if !ok {
		respond(w, http.StatusNotFound, map[string]string{"error": "Không tìm thấy sản phẩm"})
		return
	}
	respond(w, http.StatusOK, p)
}

type orderLine struct {
	ProductID string          `json:"productId"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

type orderRequest struct {
	Items      []orderLine `json:"items"`
	CouponCode string      `json:"couponCode"`
}

func createOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Items) == 0 {
		respond(w, http.StatusBadRequest, map[string]string{"error": "Đơn hàng không hợp lệ"})
		return
	}

	total := decimal.Zero
	for _, line := range req.Items {
		if p, ok := products[line.ProductID]; ok && !p.InStock {
			respond(w, http.StatusUnprocessableEntity, map[string]any{
				"data": map[string]string{"error": "Sản phẩm đã hết hàng"},
			})
			return
		}
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	if strings.EqualFold(req.CouponCode, knownCoupon) {
		total = total.Sub(decimal.NewFromInt(50_000))
	}
	// VAT on the post-discount subtotal, rounded to whole dong.
	total = total.Mul(decimal.NewFromFloat(1.1)).Round(0)

	n := orderSeq.Add(1)
	respond(w, http.StatusOK, map[string]any{
		"id":          uuid.New().String(),
		"orderNumber": fmt.Sprintf("DH-%s-%04d", time.Now().Format("20060102"), n),
		"totalAmount": total,
	})
}

type couponRequest struct {
	Code string `json:"code"`
}

func validateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "Yêu cầu không hợp lệ"})
		return
	}
	if !strings.EqualFold(req.Code, knownCoupon) {
		respond(w, http.StatusUnprocessableEntity, map[string]string{"error": "Mã giảm giá không hợp lệ"})
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"valid":          true,
		"discountAmount": 50_000,
		"description":    "Giảm 50.000₫ cho đơn hàng",
	})
}

type initiateRequest struct {
	OrderID  string `json:"orderId"`
	Provider string `json:"provider"`
}

func initiatePayment(w http.ResponseWriter, r *http.Request) {
	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "Yêu cầu không hợp lệ"})
		return
	}

	id := uuid.New().String()
	switch req.Provider {
	case "bank_transfer":
		respond(w, http.StatusOK, map[string]string{
			"paymentId":  id,
			"paymentUrl": "https://qr.stub.local/" + req.OrderID + ".png",
		})
	case "credit_card":
		respond(w, http.StatusOK, map[string]string{
			"paymentId":  id,
			"paymentUrl": "https://gateway.stub.local/pay/" + id,
		})
	default:
		respond(w, http.StatusBadRequest, map[string]string{"error": "Nhà cung cấp không được hỗ trợ"})
	}
}

func getProfile(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if auth != "Bearer "+knownToken {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "Phiên đăng nhập đã hết hạn"})
		return
	}
	respond(w, http.StatusOK, map[string]string{
		"id":       "user-integration",
		"fullName": "Nguyễn Văn An",
		"email":    "an.nguyen@example.com",
	})
}
