// Package pricing derives cart totals from a cart snapshot and an optional applied discount.
package pricing

import (
	"github.com/shopspring/decimal"

	"storefront-service/internal/domain"
)

var (
	// FreeShippingThreshold is the running subtotal above which shipping is free.
	FreeShippingThreshold = decimal.NewFromInt(500)
	// FlatShippingFee is charged on any non-empty running subtotal at or below the threshold.
	FlatShippingFee = decimal.NewFromInt(25)

	hundred = decimal.NewFromInt(100)
)

// Totals is the full price breakdown of a cart.
// Shipping is the fee applied to the post-discount running subtotal.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	Shipping       float64 `json:"shipping"`
	Total          float64 `json:"total"`
}

// Calculate computes the totals of items with applied (which may be nil).
func Calculate(items []domain.CartItem, applied *domain.Discount) Totals {
	subtotal := subtotal(items)
	discount := discountAmount(subtotal, applied)

	running := subtotal.Sub(discount)
	shipping := shippingFor(running)
	total := decimal.Max(decimal.Zero, running.Add(shipping))

	return Totals{
		Subtotal:       subtotal.InexactFloat64(),
		DiscountAmount: discount.InexactFloat64(),
		Shipping:       shipping.InexactFloat64(),
		Total:          total.InexactFloat64(),
	}
}

// Subtotal returns the sum of price times quantity over items.
func Subtotal(items []domain.CartItem) float64 {
	return subtotal(items).InexactFloat64()
}

// ShippingFor returns the shipping fee for a running subtotal.
func ShippingFor(amount float64) float64 {
	return shippingFor(decimal.NewFromFloat(amount)).InexactFloat64()
}

// DiscountAmount returns the credit applied discount grants against subtotal.
// Fixed discounts are not clamped to the subtotal; only the final total is floored.
func DiscountAmount(subtotal float64, applied *domain.Discount) float64 {
	return discountAmount(decimal.NewFromFloat(subtotal), applied).InexactFloat64()
}

func subtotal(items []domain.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt32(item.Quantity))
		sum = sum.Add(line)
	}
	return sum
}

func shippingFor(amount decimal.Decimal) decimal.Decimal {
	if amount.IsZero() || amount.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingFee
}

func discountAmount(subtotal decimal.Decimal, applied *domain.Discount) decimal.Decimal {
	if applied == nil {
		return decimal.Zero
	}
	switch applied.DiscountType {
	case domain.DiscountShipping:
		// Credits back the fee the pre-discount subtotal would pay.
		return shippingFor(subtotal)
	case domain.DiscountPercentage:
		return subtotal.Mul(Value(applied)).Div(hundred)
	case domain.DiscountFixed:
		return Value(applied)
	default:
		return decimal.Zero
	}
}

// Value parses the decimal value of a discount. Malformed values count as zero.
func Value(d *domain.Discount) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(d.DiscountValue)
	if err != nil {
		return decimal.Zero
	}
	return v
}
