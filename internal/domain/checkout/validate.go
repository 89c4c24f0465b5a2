package checkout

import (
	"regexp"
	"strings"
)

// ErrorMap maps form field names to user-facing validation messages.
type ErrorMap map[string]string

var (
	phoneRe = regexp.MustCompile(`^[0-9]{10,11}$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Validate checks the fields relevant to the given step and returns the
// offending fields, if any. It is a pure function of the form: conditional
// requirements follow the delivery and payment toggles, so callers evaluate
// it fresh at each step transition instead of tracking per-field dirty state.
//
// Step 1 covers customer and shipping fields; step 2 covers card fields when
// paying by card. Step 3 has nothing left to validate.
func Validate(f Form, step int) ErrorMap {
	errs := ErrorMap{}

	switch step {
	case 1:
		if strings.TrimSpace(f.FullName) == "" {
			errs["fullName"] = "Vui lòng nhập họ tên"
		}

		phone := strings.Join(strings.Fields(f.Phone), "")
		if phone == "" {
			errs["phone"] = "Vui lòng nhập số điện thoại"
		} else if !phoneRe.MatchString(phone) {
			errs["phone"] = "Số điện thoại không hợp lệ"
		}

		// Email and address are only needed when the order ships.
		if f.DeliveryMethod != DeliveryPickup {
			if strings.TrimSpace(f.Email) == "" {
				errs["email"] = "Vui lòng nhập email"
			} else if !emailRe.MatchString(strings.TrimSpace(f.Email)) {
				errs["email"] = "Email không hợp lệ"
			}
			if strings.TrimSpace(f.Address) == "" {
				errs["address"] = "Vui lòng nhập địa chỉ"
			}
			if strings.TrimSpace(f.Ward) == "" {
				errs["ward"] = "Vui lòng chọn phường/xã"
			}
			if strings.TrimSpace(f.District) == "" {
				errs["district"] = "Vui lòng chọn quận/huyện"
			}
			if strings.TrimSpace(f.Province) == "" {
				errs["province"] = "Vui lòng chọn tỉnh/thành phố"
			}
		}

	case 2:
		if f.PaymentMethod == PaymentCreditCard {
			if strings.TrimSpace(f.CardNumber) == "" {
				errs["cardNumber"] = "Vui lòng nhập số thẻ"
			}
			if strings.TrimSpace(f.CardExpiry) == "" {
				errs["cardExpiry"] = "Vui lòng nhập ngày hết hạn"
			}
			if strings.TrimSpace(f.CardCVV) == "" {
				errs["cardCvv"] = "Vui lòng nhập mã CVV"
			}
		}
	}

	return errs
}

// cardFields and shippingFields are the error-map keys cleared when the
// corresponding toggle changes.
var (
	cardFields     = []string{"cardNumber", "cardExpiry", "cardCvv"}
	shippingFields = []string{"email", "address", "ward", "district", "province"}
)

// clearIrrelevant drops error entries made irrelevant by the current
// toggles: card errors when the payment method is no longer credit card,
// shipping errors when the order switched to store pickup.
func (e ErrorMap) clearIrrelevant(f Form) {
	if f.PaymentMethod != PaymentCreditCard {
		for _, k := range cardFields {
			delete(e, k)
		}
	}
	if f.DeliveryMethod == DeliveryPickup {
		for _, k := range shippingFields {
			delete(e, k)
		}
	}
}
