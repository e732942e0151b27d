package storefront

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront-service/internal/catalog"
	"storefront-service/internal/domain"
	"storefront-service/internal/pricing"
)

var (
	personNameRE = regexp.MustCompile(`^[a-zA-Z\s\x{00C0}-\x{017F}]+$`)
	mobileRE     = regexp.MustCompile(`^0[567][0-9]{8}$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNameRE.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("dzmobile", func(fl validator.FieldLevel) bool {
		return mobileRE.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("wilaya", func(fl validator.FieldLevel) bool {
		return IsWilaya(fl.Field().String())
	})
	return v
}

// ShippingInfo is the checkout form.
type ShippingInfo struct {
	Name   string `json:"name" validate:"required,personname"`
	Wilaya string `json:"wilaya" validate:"required,wilaya"`
	Phone  string `json:"phone" validate:"required,dzmobile"`
	Notes  string `json:"notes" validate:"max=1000"`
}

// Address renders the shipping address stored on the order.
func (s ShippingInfo) Address() string {
	return fmt.Sprintf("%s, %s, %s", strings.TrimSpace(s.Name), s.Wilaya, strings.TrimSpace(s.Phone))
}

// ValidateShipping checks the checkout form.
func ValidateShipping(info ShippingInfo) error {
	return validate.Struct(info)
}

// OrderNumber derives the human order number from the last six digits of the unix
// millisecond clock. It is not guaranteed unique; the store rejects duplicates.
func OrderNumber(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "SN-" + ms
}

// AddToCart adds an active catalog product to the cart.
func (c *Client) AddToCart(productID int64, qty int32) (domain.CartItem, error) {
	p, ok := c.svc.Catalog.Snapshot().Product(productID)
	if !ok || !p.IsActive {
		return domain.CartItem{}, fmt.Errorf("%w: %d", ErrUnknownProduct, productID)
	}
	c.cart.Add(p, qty)
	for _, it := range c.cart.Items() {
		if it.ID == productID {
			return it, nil
		}
	}
	return domain.CartItem{Product: p, Quantity: qty}, nil
}

// AppliedDiscount returns the applied discount, or nil.
func (c *Client) AppliedDiscount() *domain.Discount {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.applied == nil {
		return nil
	}
	d := *c.applied
	return &d
}

// ApplyDiscount validates code against the current subtotal and applies it.
// Only one discount can be applied at a time.
func (c *Client) ApplyDiscount(ctx context.Context, code string) (*domain.Discount, error) {
	if c.AppliedDiscount() != nil {
		return nil, ErrDiscountAlreadyApplied
	}
	items := c.cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	d, err := c.svc.Discounts.Validate(ctx, code, pricing.Subtotal(items))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.applied != nil {
		return nil, ErrDiscountAlreadyApplied
	}
	c.applied = d
	c.logger.Info("discount applied", zap.String("code", d.Code), zap.String("type", string(d.DiscountType)))
	out := *d
	return &out, nil
}

func (c *Client) RemoveDiscount() {
	c.mu.Lock()
	c.applied = nil
	c.mu.Unlock()
}

// Totals prices the current cart with the applied discount.
func (c *Client) Totals() pricing.Totals {
	return pricing.Calculate(c.cart.Items(), c.AppliedDiscount())
}

// PlaceOrder persists the cart as a Pending order. The store writes the order, its items,
// the stock decrements and the discount usage in one transaction. On success the cart and
// discount are cleared and the view moves to orders; on failure nothing local changes.
func (c *Client) PlaceOrder(ctx context.Context, info ShippingInfo) (*domain.Order, error) {
	userID, ok := c.dbID()
	if !ok {
		return nil, ErrLoginRequired
	}
	items := c.cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if err := ValidateShipping(info); err != nil {
		return nil, err
	}

	applied := c.AppliedDiscount()
	totals := pricing.Calculate(items, applied)
	draft := domain.OrderDraft{
		UserID:          userID,
		OrderNumber:     OrderNumber(c.svc.Now()),
		Subtotal:        totals.Subtotal,
		DiscountAmount:  totals.DiscountAmount,
		Total:           totals.Total,
		ShippingAddress: info.Address(),
		PaymentMethod:   domain.PaymentCashOnDelivery,
		Items:           make([]domain.OrderItem, 0, len(items)),
	}
	for _, it := range items {
		draft.Items = append(draft.Items, domain.OrderItem{
			ProductID:    it.ID,
			ProductName:  it.Name,
			ProductPrice: it.Price,
			Quantity:     it.Quantity,
			Subtotal:     it.LineTotal(),
		})
	}
	if applied != nil {
		id := applied.ID
		draft.DiscountID = &id
	}

	order, err := c.svc.Store.PlaceOrder(ctx, draft)
	if err != nil {
		c.logger.Error("order placement failed", zap.String("order_number", draft.OrderNumber), zap.Error(err))
		return nil, err
	}

	c.cart.Clear()
	c.mu.Lock()
	c.applied = nil
	c.view = domain.ViewOrders
	c.mu.Unlock()
	c.logger.Info("order placed",
		zap.Int64("order_id", order.ID), zap.String("order_number", order.OrderNumber), zap.Float64("total", order.Total))

	if _, err := c.svc.Catalog.Refresh(ctx, "order-placed"); err != nil && !errors.Is(err, catalog.ErrRefreshInProgress) {
		c.logger.Warn("catalog refresh after order incomplete", zap.Error(err))
	}
	return order, nil
}
