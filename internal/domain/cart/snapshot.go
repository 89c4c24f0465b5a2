package cart

import "github.com/shopspring/decimal"

// Snapshot is the derived pricing view of a cart. It is recomputed from the
// items and coupon state on every read and never persisted, so the displayed
// total cannot drift from its inputs.
type Snapshot struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
}

// Snapshot computes subtotal, discount, tax and total for the cart at the
// given tax rate. Tax applies to the post-discount subtotal. Amounts are in
// VND, which has no minor unit, so everything rounds to whole dong.
func (c *Cart) Snapshot(taxRate decimal.Decimal) Snapshot {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		line := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}

	// Discount never exceeds the subtotal.
	discount := decimal.Min(c.DiscountAmount, subtotal)
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(taxRate).Round(0)
	total := taxable.Add(tax)

	return Snapshot{
		Subtotal:       subtotal.Round(0),
		DiscountAmount: discount.Round(0),
		Tax:            tax,
		Total:          total.Round(0),
	}
}
