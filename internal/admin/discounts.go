package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront-service/internal/discount"
	"storefront-service/internal/domain"
)

var ErrDiscountValueRequired = errors.New("admin: discount value is required")

const (
	defaultUsageLimit  int32 = 100
	defaultDiscountRun       = 30 * 24 * time.Hour
	// timestampLayout matches the timestamp-without-zone columns; values are written in UTC.
	timestampLayout = "2006-01-02 15:04:05"
)

// DiscountInput is the new discount code form.
type DiscountInput struct {
	Code              string              `json:"code" validate:"required,max=50"`
	Description       string              `json:"description"`
	DiscountType      domain.DiscountType `json:"discount_type" validate:"required,oneof=percentage fixed shipping"`
	DiscountValue     string              `json:"discount_value"`
	MinPurchaseAmount string              `json:"min_purchase_amount"`
	UsageLimit        int32               `json:"usage_limit" validate:"gte=0"`
	EndDate           *time.Time          `json:"end_date"`
}

func (s *Service) ListDiscounts(ctx context.Context) ([]domain.Discount, error) {
	return s.store.ListDiscounts(ctx)
}

// CreateDiscount stores an active code starting now. Shipping codes store a zero value,
// the usage limit defaults to 100 and the end date to thirty days from now.
func (s *Service) CreateDiscount(ctx context.Context, in DiscountInput) (*domain.Discount, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	value := strings.TrimSpace(in.DiscountValue)
	if in.DiscountType == domain.DiscountShipping {
		value = "0.00"
	} else if _, err := decimal.NewFromString(value); err != nil {
		return nil, ErrDiscountValueRequired
	}

	minPurchase := "0"
	if v := strings.TrimSpace(in.MinPurchaseAmount); v != "" {
		if _, err := decimal.NewFromString(v); err == nil {
			minPurchase = v
		}
	}

	limit := in.UsageLimit
	if limit <= 0 {
		limit = defaultUsageLimit
	}

	now := s.now().UTC()
	end := now.Add(defaultDiscountRun)
	if in.EndDate != nil {
		end = in.EndDate.UTC()
	}
	start := now.Format(timestampLayout)
	endStr := end.Format(timestampLayout)

	created, err := s.store.CreateDiscount(ctx, &domain.Discount{
		Code:              discount.NormalizeCode(in.Code),
		Description:       strings.TrimSpace(in.Description),
		DiscountType:      in.DiscountType,
		DiscountValue:     value,
		MinPurchaseAmount: &minPurchase,
		UsageLimit:        &limit,
		StartDate:         &start,
		EndDate:           &endStr,
		IsActive:          true,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("discount created", zap.String("code", created.Code), zap.String("type", string(created.DiscountType)))
	return created, nil
}

func (s *Service) DeleteDiscount(ctx context.Context, id int64) error {
	return s.store.DeleteDiscount(ctx, id)
}
