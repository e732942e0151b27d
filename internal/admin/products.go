package admin

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"storefront-service/internal/domain"
)

var (
	ErrNoImages = errors.New("admin: at least one product image is required")

	nonSlugRE = regexp.MustCompile(`[^a-z0-9]+`)
	spaceRE   = regexp.MustCompile(`\s+`)
)

const defaultLowStockThreshold = 10

// ProductInput is the add/edit product form.
type ProductInput struct {
	Name              string   `json:"name" validate:"required,max=255"`
	Slug              string   `json:"slug" validate:"omitempty,max=255"`
	Description       string   `json:"description"`
	Price             float64  `json:"price" validate:"gte=0"`
	ComparePrice      *float64 `json:"compare_price" validate:"omitempty,gte=0"`
	CategoryID        *int64   `json:"category_id" validate:"omitempty,gt=0"`
	StockQuantity     int32    `json:"stock_quantity" validate:"gte=0"`
	LowStockThreshold *int32   `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	SKU               string   `json:"sku" validate:"omitempty,max=100"`
	IsFeatured        bool     `json:"is_featured"`
	IsActive          *bool    `json:"is_active"`
	Images            []string `json:"images"`
}

// ProductSlug lower-cases name and collapses every run of other characters into a dash.
func ProductSlug(name string) string {
	return strings.Trim(nonSlugRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-"), "-")
}

// CategorySlug lower-cases name and replaces whitespace runs with a dash.
func CategorySlug(name string) string {
	return spaceRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

func (s *Service) productFromInput(in ProductInput) (*domain.Product, []domain.ProductImage, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, nil, err
	}

	var images []domain.ProductImage
	for _, url := range in.Images {
		if url = strings.TrimSpace(url); url != "" {
			images = append(images, domain.ProductImage{ImageURL: url, IsPrimary: len(images) == 0})
		}
	}
	if len(images) == 0 {
		return nil, nil, ErrNoImages
	}

	p := &domain.Product{
		Name:              strings.TrimSpace(in.Name),
		Slug:              strings.TrimSpace(in.Slug),
		Description:       strings.TrimSpace(in.Description),
		Price:             in.Price,
		ComparePrice:      in.ComparePrice,
		CategoryID:        in.CategoryID,
		StockQuantity:     in.StockQuantity,
		LowStockThreshold: defaultLowStockThreshold,
		SKU:               strings.TrimSpace(in.SKU),
		IsFeatured:        in.IsFeatured,
		IsActive:          true,
	}
	if p.Slug == "" {
		p.Slug = ProductSlug(p.Name)
	}
	if p.SKU == "" {
		p.SKU = fmt.Sprintf("SKU-%d", s.now().UnixMilli())
	}
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return p, images, nil
}

// CreateProduct inserts a product and its images; the first image is primary.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	p, images, err := s.productFromInput(in)
	if err != nil {
		return nil, err
	}
	created, err := s.store.CreateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceProductImages(ctx, created.ID, images); err != nil {
		return nil, fmt.Errorf("admin: product %d created without images: %w", created.ID, err)
	}
	created.ProductImages = images
	s.logger.Info("product created", zap.Int64("product_id", created.ID), zap.String("sku", created.SKU))
	s.refresh(ctx, "product-created")
	return created, nil
}

// UpdateProduct rewrites product id and swaps its image set.
func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*domain.Product, error) {
	p, images, err := s.productFromInput(in)
	if err != nil {
		return nil, err
	}
	p.ID = id
	updated, err := s.store.UpdateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceProductImages(ctx, id, images); err != nil {
		return nil, err
	}
	updated.ProductImages = images
	s.logger.Info("product updated", zap.Int64("product_id", id))
	s.refresh(ctx, "product-updated")
	return updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.Int64("product_id", id))
	s.refresh(ctx, "product-deleted")
	return nil
}

// CategoryInput is the new category form.
type CategoryInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
	Image       *string `json:"image" validate:"omitempty,url"`
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	created, err := s.store.CreateCategory(ctx, &domain.Category{
		Name:        name,
		Slug:        CategorySlug(name),
		Description: in.Description,
		Image:       in.Image,
	})
	if err != nil {
		return nil, err
	}
	s.refresh(ctx, "category-created")
	return created, nil
}

// DeleteCategory removes a category; its products become uncategorized.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx, "category-deleted")
	return nil
}
