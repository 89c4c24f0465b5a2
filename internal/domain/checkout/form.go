// Package checkout implements the storefront checkout workflow: the 3-step
// form state machine, order submission dispatch, and coordination with
// payment routing.
package checkout

// DeliveryMethod selects how the customer receives the order.
type DeliveryMethod string

const (
	DeliveryShip   DeliveryMethod = "delivery"
	DeliveryPickup DeliveryMethod = "pickup"
)

// PaymentMethod selects how the customer pays for the order.
type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "cod"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCreditCard   PaymentMethod = "credit_card"
)

// Form holds every field the customer fills in across the checkout steps.
// Which fields are required depends on the delivery and payment toggles; see
// Validate.
type Form struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`

	Address  string `json:"address"`
	Ward     string `json:"ward"`
	District string `json:"district"`
	Province string `json:"province"`

	DeliveryMethod DeliveryMethod `json:"deliveryMethod"`
	PickupStoreID  string         `json:"pickupStoreId,omitempty"`

	PaymentMethod PaymentMethod `json:"paymentMethod"`
	CardNumber    string        `json:"cardNumber,omitempty"`
	CardExpiry    string        `json:"cardExpiry,omitempty"`
	CardCVV       string        `json:"cardCvv,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// ValidDeliveryMethod reports whether m is a known delivery method.
func ValidDeliveryMethod(m DeliveryMethod) bool {
	return m == DeliveryShip || m == DeliveryPickup
}

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	return m == PaymentCOD || m == PaymentBankTransfer || m == PaymentCreditCard
}
