package store

import (
	"context"
	"fmt"

	"storefront-service/internal/domain"
)

const (
	listWishlistProductsQuery = `
		SELECT ` + productColumns + `, ` + productImagesAgg + `
		FROM wishlist w
		JOIN products p ON p.id = w.product_id
		LEFT JOIN product_images pi ON pi.product_id = p.id
		WHERE w.user_id = $1
		GROUP BY p.id, w.created_at
		ORDER BY w.created_at ASC;
	`
	addToWishlistQuery      = `INSERT INTO wishlist (user_id, product_id) VALUES ($1, $2) ON CONFLICT (user_id, product_id) DO NOTHING;`
	removeFromWishlistQuery = `DELETE FROM wishlist WHERE user_id = $1 AND product_id = $2;`
)

// --- WishlistStorer Implementation ---

func (s *PostgresStore) ListWishlistProducts(ctx context.Context, userID int64) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, listWishlistProductsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("store: ListWishlistProducts failed to query wishlist: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows, true)
		if err != nil {
			return nil, fmt.Errorf("store: ListWishlistProducts failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListWishlistProducts iteration error: %w", err)
	}
	return products, nil
}

// AddToWishlist is idempotent.
func (s *PostgresStore) AddToWishlist(ctx context.Context, userID, productID int64) error {
	if _, err := s.db.ExecContext(ctx, addToWishlistQuery, userID, productID); err != nil {
		return fmt.Errorf("store: AddToWishlist failed: %w", err)
	}
	return nil
}

// RemoveFromWishlist is idempotent.
func (s *PostgresStore) RemoveFromWishlist(ctx context.Context, userID, productID int64) error {
	if _, err := s.db.ExecContext(ctx, removeFromWishlistQuery, userID, productID); err != nil {
		return fmt.Errorf("store: RemoveFromWishlist failed: %w", err)
	}
	return nil
}
