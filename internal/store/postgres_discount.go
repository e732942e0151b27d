package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-service/internal/domain"
)

// Dates are read back as text: stored values may or may not carry a zone and are parsed by the caller.
const (
	discountColumns = `id, code, description, discount_type, discount_value, min_purchase_amount,
		max_discount_amount, usage_limit, usage_count, start_date::text, end_date::text, is_active, created_at`

	getActiveDiscountByCodeQuery = `
		SELECT ` + discountColumns + `
		FROM discount_codes
		WHERE code = $1 AND is_active = TRUE
		LIMIT 1;
	`
	listDiscountsQuery = `
		SELECT ` + discountColumns + `
		FROM discount_codes
		ORDER BY created_at DESC;
	`
	createDiscountQuery = `
		INSERT INTO discount_codes
			(code, description, discount_type, discount_value, min_purchase_amount, max_discount_amount,
			 usage_limit, start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::timestamp, $9::timestamp, $10)
		RETURNING ` + discountColumns + `;
	`
	deleteDiscountQuery = `DELETE FROM discount_codes WHERE id = $1;`
)

func scanDiscount(row rowScanner) (domain.Discount, error) {
	var d domain.Discount
	err := row.Scan(
		&d.ID, &d.Code, &d.Description, &d.DiscountType, &d.DiscountValue, &d.MinPurchaseAmount,
		&d.MaxDiscountAmount, &d.UsageLimit, &d.UsageCount, &d.StartDate, &d.EndDate, &d.IsActive, &d.CreatedAt,
	)
	return d, err
}

// --- DiscountStorer Implementation ---

func (s *PostgresStore) GetActiveDiscountByCode(ctx context.Context, code string) (*domain.Discount, error) {
	d, err := scanDiscount(s.db.QueryRowContext(ctx, getActiveDiscountByCodeQuery, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDiscountNotFound
		}
		return nil, fmt.Errorf("store: GetActiveDiscountByCode failed to scan row: %w", err)
	}
	return &d, nil
}

func (s *PostgresStore) ListDiscounts(ctx context.Context) ([]domain.Discount, error) {
	rows, err := s.db.QueryContext(ctx, listDiscountsQuery)
	if err != nil {
		return nil, fmt.Errorf("store: ListDiscounts failed to query discounts: %w", err)
	}
	defer rows.Close()

	discounts := make([]domain.Discount, 0)
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, fmt.Errorf("store: ListDiscounts failed to scan discount row: %w", err)
		}
		discounts = append(discounts, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListDiscounts iteration error: %w", err)
	}
	return discounts, nil
}

func (s *PostgresStore) CreateDiscount(ctx context.Context, discount *domain.Discount) (*domain.Discount, error) {
	row := s.db.QueryRowContext(ctx, createDiscountQuery,
		discount.Code, discount.Description, string(discount.DiscountType), discount.DiscountValue,
		discount.MinPurchaseAmount, discount.MaxDiscountAmount, discount.UsageLimit,
		discount.StartDate, discount.EndDate, discount.IsActive,
	)
	created, err := scanDiscount(row)
	if err != nil {
		if isUniqueViolation(err, "discount_codes_code_key", "code") {
			return nil, ErrDiscountCodeExists
		}
		return nil, fmt.Errorf("store: CreateDiscount failed to scan row: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) DeleteDiscount(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, deleteDiscountQuery, id)
	if err != nil {
		return fmt.Errorf("store: DeleteDiscount failed to execute delete: %w", err)
	}
	return affectedOrErr(result, ErrDiscountNotFound, "DeleteDiscount")
}
