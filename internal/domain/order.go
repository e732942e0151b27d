package domain

import "time"

// OrderStatus is the fulfillment state of an order. Transitions are unordered.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
	// OrderStatusProcessing only appears on legacy rows and counts as pending in analytics.
	OrderStatusProcessing OrderStatus = "Processing"
)

const (
	// PaymentCashOnDelivery is the only payment method offered at checkout.
	PaymentCashOnDelivery = "Cash on Delivery"

	orderDateLayout = "Jan 2, 2006"
)

// Valid reports whether s is one of the statuses an admin may set.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem is a line of an order. Name, price and subtotal are snapshots taken at placement.
type OrderItem struct {
	ID           int64   `json:"id"`
	OrderID      int64   `json:"order_id"`
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductPrice float64 `json:"product_price"`
	Quantity     int32   `json:"quantity"`
	Subtotal     float64 `json:"subtotal"`

	Image string `json:"image,omitempty"` // Injected from the catalog at sync time
}

// Order represents a placed order with its line items.
// Financial fields are fixed at creation; only Status changes afterwards.
type Order struct {
	ID              int64       `json:"id"`
	OrderNumber     string      `json:"order_number"`
	UserID          int64       `json:"user_id"`
	Status          OrderStatus `json:"status"`
	Subtotal        float64     `json:"subtotal"`
	DiscountAmount  float64     `json:"discount_amount"`
	Total           float64     `json:"total"`
	ShippingAddress string      `json:"shipping_address"`
	PaymentMethod   string      `json:"payment_method"`
	CreatedAt       time.Time   `json:"created_at"`
	Items           []OrderItem `json:"items"`

	Date string `json:"date"`
}

// FormatOrderDate renders the display date of an order.
func FormatOrderDate(t time.Time) string {
	return t.Local().Format(orderDateLayout)
}

// OrderDraft carries everything needed to persist a new order in one transaction.
type OrderDraft struct {
	UserID          int64
	OrderNumber     string
	Subtotal        float64
	DiscountAmount  float64
	Total           float64
	ShippingAddress string
	PaymentMethod   string
	Items           []OrderItem
	DiscountID      *int64 // Usage is incremented only when set
}
