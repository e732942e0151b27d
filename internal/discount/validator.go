// Package discount checks whether a coupon code may be applied to a cart.
package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront-service/internal/domain"
	"storefront-service/internal/pricing"
	"storefront-service/internal/store"
)

// Rejection reasons. Each is shown to the shopper as is.
var (
	ErrInvalidCode       = errors.New("discount: invalid discount code")
	ErrNotActiveYet      = errors.New("discount: this discount code is not active yet")
	ErrExpired           = errors.New("discount: this discount code has expired")
	ErrUsageLimitReached = errors.New("discount: this discount code has reached its usage limit")
	ErrMinimumNotMet     = errors.New("discount: minimum purchase not met")
)

// MinimumPurchaseError reports the minimum subtotal a code requires.
type MinimumPurchaseError struct {
	Minimum decimal.Decimal
}

func (e *MinimumPurchaseError) Error() string {
	return fmt.Sprintf("discount: minimum purchase of $%s required", e.Minimum.StringFixed(2))
}

func (e *MinimumPurchaseError) Is(target error) bool {
	return target == ErrMinimumNotMet
}

// Validator is a dry run: it never writes usage counts.
type Validator struct {
	discounts store.DiscountStorer
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Validator)

// WithClock replaces the wall clock used for the validity window.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(v *Validator) { v.logger = logger }
}

func NewValidator(discounts store.DiscountStorer, opts ...Option) *Validator {
	v := &Validator{discounts: discounts, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// NormalizeCode upper-cases and trims a user-entered code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate looks up code and checks it against subtotal. Checks run in a fixed order:
// start date, end date, usage limit, minimum purchase.
func (v *Validator) Validate(ctx context.Context, code string, subtotal float64) (*domain.Discount, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	d, err := v.discounts.GetActiveDiscountByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, store.ErrDiscountNotFound) {
			v.logger.Warn("discount lookup failed", zap.String("code", code), zap.Error(err))
		}
		return nil, ErrInvalidCode
	}

	now := v.now().UTC()
	if start, ok := v.parseDate(d.StartDate); ok && now.Before(start) {
		return nil, ErrNotActiveYet
	}
	if end, ok := v.parseDate(d.EndDate); ok && now.After(end) {
		return nil, ErrExpired
	}
	if d.LimitReached() {
		return nil, ErrUsageLimitReached
	}
	if d.MinPurchaseAmount != nil && *d.MinPurchaseAmount != "" {
		minimum, err := decimal.NewFromString(*d.MinPurchaseAmount)
		if err == nil && decimal.NewFromFloat(subtotal).LessThan(minimum) {
			return nil, &MinimumPurchaseError{Minimum: minimum}
		}
	}

	if d.DiscountType == domain.DiscountPercentage {
		pct := pricing.Value(d).InexactFloat64()
		d.Percentage = &pct
	}
	return d, nil
}

// parseDate reads a stored timestamp. Values without a zone are taken as UTC.
// Unparseable values are logged and treated as unset.
func (v *Validator) parseDate(raw *string) (time.Time, bool) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(strings.TrimSpace(*raw), time.UTC)
	if err != nil {
		v.logger.Warn("unparseable discount date", zap.String("value", *raw), zap.Error(err))
		return time.Time{}, false
	}
	return t, true
}
