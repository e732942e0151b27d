package domain

import "time"

// DiscountType selects how a discount adjusts the cart.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
	DiscountShipping   DiscountType = "shipping"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed || t == DiscountShipping
}

// Discount represents a coupon code record.
// Amounts are kept as decimal strings exactly as stored; StartDate and EndDate are kept as
// their textual form because stored values may or may not carry a timezone marker.
type Discount struct {
	ID                int64        `json:"id"`
	Code              string       `json:"code"`
	Description       string       `json:"description"`
	DiscountType      DiscountType `json:"discount_type"`
	DiscountValue     string       `json:"discount_value"`
	MinPurchaseAmount *string      `json:"min_purchase_amount,omitempty"`
	MaxDiscountAmount *string      `json:"max_discount_amount,omitempty"`
	UsageLimit        *int32       `json:"usage_limit,omitempty"`
	UsageCount        int32        `json:"usage_count"`
	StartDate         *string      `json:"start_date,omitempty"`
	EndDate           *string      `json:"end_date,omitempty"`
	IsActive          bool         `json:"is_active"`
	CreatedAt         time.Time    `json:"created_at"`

	Percentage *float64 `json:"percentage,omitempty"` // Set for percentage discounts once validated
}

// LimitReached reports whether a usage limit is set and already consumed.
func (d Discount) LimitReached() bool {
	return d.UsageLimit != nil && *d.UsageLimit > 0 && d.UsageCount >= *d.UsageLimit
}
