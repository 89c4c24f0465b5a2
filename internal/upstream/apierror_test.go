package upstream

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
)

func TestExtractMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"top-level error", `{"error":"Sản phẩm đã hết hàng"}`, "Sản phẩm đã hết hàng"},
		{"top-level message", `{"message":"Mã giảm giá đã hết hạn"}`, "Mã giảm giá đã hết hạn"},
		{"nested data.error", `{"data":{"error":"Số lượng vượt quá tồn kho"}}`, "Số lượng vượt quá tồn kho"},
		{"nested data.message", `{"data":{"message":"Đơn hàng không hợp lệ"}}`, "Đơn hàng không hợp lệ"},
		{"error wins over message", `{"message":"b","error":"a"}`, "a"},
		{"top-level wins over nested", `{"data":{"error":"nested"},"message":"top"}`, "top"},
		{"non-string error is skipped", `{"error":{"code":42},"message":"fallback"}`, "fallback"},
		{"non-object data is skipped", `{"data":"oops","message":"m"}`, "m"},
		{"unknown keys ignored", `{"status":500,"trace":"abc","error":"x"}`, "x"},
		{"empty strings do not win", `{"error":"","message":"m"}`, "m"},
		{"no known fields", `{"status":500}`, ""},
		{"empty object", `{}`, ""},
		{"not json", `<html>502 Bad Gateway</html>`, ""},
		{"empty body", ``, ""},
		{"json array", `["err"]`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractMessage([]byte(tc.body)))
		})
	}
}

func TestUserMessage(t *testing.T) {
	t.Run("extracted message", func(t *testing.T) {
		err := &APIError{Status: 422, Path: "/api/orders", Message: "Sản phẩm đã hết hàng"}
		assert.Equal(t, "Sản phẩm đã hết hàng", UserMessage(err))
	})

	t.Run("wrapped api error", func(t *testing.T) {
		err := errors.Wrap(&APIError{Status: 400, Message: "Thiếu thông tin"}, "create order")
		assert.Equal(t, "Thiếu thông tin", UserMessage(err))
	})

	t.Run("api error without message", func(t *testing.T) {
		assert.Equal(t, GenericOrderMessage, UserMessage(&APIError{Status: 500, Path: "/api/orders"}))
	})

	t.Run("network error", func(t *testing.T) {
		assert.Equal(t, GenericOrderMessage, UserMessage(errors.New("connection refused")))
	})
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "upstream /api/orders: 422: hết hàng",
		(&APIError{Status: 422, Path: "/api/orders", Message: "hết hàng"}).Error())
	assert.Equal(t, "upstream /api/orders: 502",
		(&APIError{Status: 502, Path: "/api/orders"}).Error())
}
