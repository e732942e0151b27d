package store

import (
	"context"
	"fmt"

	"storefront-service/internal/domain"
)

const (
	listCategoriesQuery = `
		SELECT id, name, slug, description, image, created_at
		FROM categories
		ORDER BY name ASC;
	`
	createCategoryQuery = `
		INSERT INTO categories (name, slug, description, image)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, slug, description, image, created_at;
	`
	deleteCategoryQuery = `DELETE FROM categories WHERE id = $1;`
)

// --- CategoryStorer Implementation ---

func (s *PostgresStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, listCategoriesQuery)
	if err != nil {
		return nil, fmt.Errorf("store: ListCategories failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: ListCategories failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListCategories iteration error: %w", err)
	}
	return categories, nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	row := s.db.QueryRowContext(ctx, createCategoryQuery,
		category.Name, category.Slug, category.Description, category.Image)

	var created domain.Category
	err := row.Scan(&created.ID, &created.Name, &created.Slug, &created.Description, &created.Image, &created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "categories_name_key", "name") || isUniqueViolation(err, "categories_slug_key", "slug") {
			return nil, ErrCategoryNameExists
		}
		return nil, fmt.Errorf("store: CreateCategory failed to scan row: %w", err)
	}
	return &created, nil
}

// DeleteCategory removes a category. Products that referenced it keep existing with a NULL category.
func (s *PostgresStore) DeleteCategory(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, deleteCategoryQuery, id)
	if err != nil {
		return fmt.Errorf("store: DeleteCategory failed to execute delete: %w", err)
	}
	return affectedOrErr(result, ErrCategoryNotFound, "DeleteCategory")
}
