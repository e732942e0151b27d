package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"storefront-service/internal/domain"
)

const (
	productColumns = `p.id, p.name, p.slug, p.description, p.price, p.compare_price, p.category_id,
		p.stock_quantity, p.low_stock_threshold, p.sku, p.rating, p.reviews_count,
		p.is_featured, p.is_active, p.created_at`

	productImagesAgg = `COALESCE(json_agg(json_build_object('image_url', pi.image_url, 'is_primary', pi.is_primary)
			ORDER BY pi.sort_order, pi.id) FILTER (WHERE pi.id IS NOT NULL), '[]')`

	listProductsWithImagesQuery = `
		SELECT ` + productColumns + `, ` + productImagesAgg + `
		FROM products p
		LEFT JOIN product_images pi ON pi.product_id = p.id
		GROUP BY p.id
		ORDER BY p.created_at DESC;
	`
	getProductByIDQuery = `
		SELECT ` + productColumns + `, ` + productImagesAgg + `
		FROM products p
		LEFT JOIN product_images pi ON pi.product_id = p.id
		WHERE p.id = $1
		GROUP BY p.id;
	`
	createProductQuery = `
		INSERT INTO products AS p
			(name, slug, description, price, compare_price, category_id, stock_quantity,
			 low_stock_threshold, sku, is_featured, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + productColumns + `;
	`
	updateProductQuery = `
		UPDATE products AS p
		SET name = $1, slug = $2, description = $3, price = $4, compare_price = $5, category_id = $6,
			stock_quantity = $7, low_stock_threshold = $8, sku = $9, is_featured = $10, is_active = $11
		WHERE p.id = $12
		RETURNING ` + productColumns + `;
	`
	deleteProductQuery        = `DELETE FROM products WHERE id = $1;`
	deleteProductImagesQuery  = `DELETE FROM product_images WHERE product_id = $1;`
	insertProductImageQuery   = `INSERT INTO product_images (product_id, image_url, is_primary, sort_order) VALUES ($1, $2, $3, $4);`
	adjustStockQuery          = `UPDATE products SET stock_quantity = GREATEST(stock_quantity + $1, 0) WHERE id = $2 RETURNING stock_quantity;`
	updateProductRatingQuery  = `UPDATE products SET rating = $1, reviews_count = $2 WHERE id = $3;`
	countLowStockProductQuery = `SELECT COUNT(*) FROM products WHERE stock_quantity < $1;`
)

func scanProduct(row rowScanner, withImages bool) (domain.Product, error) {
	var p domain.Product
	dest := []any{
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.ComparePrice, &p.CategoryID,
		&p.StockQuantity, &p.LowStockThreshold, &p.SKU, &p.Rating, &p.ReviewsCount,
		&p.IsFeatured, &p.IsActive, &p.CreatedAt,
	}
	var imagesJSON []byte
	if withImages {
		dest = append(dest, &imagesJSON)
	}
	if err := row.Scan(dest...); err != nil {
		return p, err
	}
	p.ProductImages = []domain.ProductImage{}
	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &p.ProductImages); err != nil {
			return p, fmt.Errorf("decode product images: %w", err)
		}
	}
	return p, nil
}

// --- ProductStorer Implementation ---

func (s *PostgresStore) ListProductsWithImages(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, listProductsWithImagesQuery)
	if err != nil {
		return nil, fmt.Errorf("store: ListProductsWithImages failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows, true)
		if err != nil {
			return nil, fmt.Errorf("store: ListProductsWithImages failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListProductsWithImages iteration error: %w", err)
	}
	return products, nil
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, getProductByIDQuery, id), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed to scan row: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, createProductQuery,
		product.Name, product.Slug, product.Description, product.Price, product.ComparePrice,
		product.CategoryID, product.StockQuantity, product.LowStockThreshold, product.SKU,
		product.IsFeatured, product.IsActive,
	)
	created, err := scanProduct(row, false)
	if err != nil {
		if isUniqueViolation(err, "products_sku_key", "sku") {
			return nil, ErrProductSKUExists
		}
		return nil, fmt.Errorf("store: CreateProduct failed to scan row: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, updateProductQuery,
		product.Name, product.Slug, product.Description, product.Price, product.ComparePrice,
		product.CategoryID, product.StockQuantity, product.LowStockThreshold, product.SKU,
		product.IsFeatured, product.IsActive, product.ID,
	)
	updated, err := scanProduct(row, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		if isUniqueViolation(err, "products_sku_key", "sku") {
			return nil, ErrProductSKUExists
		}
		return nil, fmt.Errorf("store: UpdateProduct failed to scan row: %w", err)
	}
	return &updated, nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, deleteProductQuery, id)
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to execute delete: %w", err)
	}
	return affectedOrErr(result, ErrProductNotFound, "DeleteProduct")
}

func (s *PostgresStore) ReplaceProductImages(ctx context.Context, productID int64, images []domain.ProductImage) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteProductImagesQuery, productID); err != nil {
			return fmt.Errorf("store: ReplaceProductImages failed to clear images: %w", err)
		}
		for i, img := range images {
			if _, err := tx.ExecContext(ctx, insertProductImageQuery, productID, img.ImageURL, img.IsPrimary, i); err != nil {
				return fmt.Errorf("store: ReplaceProductImages failed to insert image %d: %w", i, err)
			}
		}
		return nil
	})
}

// AdjustStock applies delta in a single statement; the result never drops below zero.
func (s *PostgresStore) AdjustStock(ctx context.Context, productID int64, delta int32) (int32, error) {
	var stock int32
	err := s.db.QueryRowContext(ctx, adjustStockQuery, delta, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("store: AdjustStock failed: %w", err)
	}
	return stock, nil
}

func (s *PostgresStore) UpdateRating(ctx context.Context, productID int64, rating float64, reviewsCount int32) error {
	result, err := s.db.ExecContext(ctx, updateProductRatingQuery, rating, reviewsCount, productID)
	if err != nil {
		return fmt.Errorf("store: UpdateRating failed: %w", err)
	}
	return affectedOrErr(result, ErrProductNotFound, "UpdateRating")
}

func (s *PostgresStore) CountLowStock(ctx context.Context, below int32) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countLowStockProductQuery, below).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: CountLowStock failed: %w", err)
	}
	return n, nil
}
