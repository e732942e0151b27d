package store

import (
	"context"
	"fmt"

	"storefront-service/internal/domain"
)

const (
	listReviewsQuery = `
		SELECT r.id, r.product_id, COALESCE(r.user_id, 0), r.rating, r.comment, r.helpful_count, r.created_at,
			COALESCE(u.name, 'Anonymous')
		FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC;
	`
	createReviewQuery = `
		INSERT INTO reviews (product_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, helpful_count, created_at;
	`
)

// --- ReviewStorer Implementation ---

func (s *PostgresStore) ListReviews(ctx context.Context, productID int64) ([]domain.Review, error) {
	rows, err := s.db.QueryContext(ctx, listReviewsQuery, productID)
	if err != nil {
		return nil, fmt.Errorf("store: ListReviews failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var r domain.Review
		if err := rows.Scan(&r.ID, &r.ProductID, &r.UserID, &r.Rating, &r.Comment, &r.HelpfulCount,
			&r.CreatedAt, &r.UserName); err != nil {
			return nil, fmt.Errorf("store: ListReviews failed to scan review row: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListReviews iteration error: %w", err)
	}
	return reviews, nil
}

// CreateReview inserts review and fills in its generated fields.
func (s *PostgresStore) CreateReview(ctx context.Context, review *domain.Review) error {
	err := s.db.QueryRowContext(ctx, createReviewQuery,
		review.ProductID, review.UserID, review.Rating, review.Comment,
	).Scan(&review.ID, &review.HelpfulCount, &review.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: CreateReview failed to scan row: %w", err)
	}
	return nil
}
