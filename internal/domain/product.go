package domain

import (
	"time"
)

// Stock status labels derived from a product's stock quantity.
const (
	StockStatusInStock    = "In Stock"
	StockStatusLowStock   = "Low Stock"
	StockStatusOutOfStock = "Out of Stock"

	// UncategorizedLabel is shown for products whose category is missing or was deleted.
	UncategorizedLabel = "Uncategorized"

	lowStockCeiling = 10
	newProductAge   = 30 * 24 * time.Hour
)

// Category represents a product category in the system.
// The json tags correspond to the fields expected in API responses/requests.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"` // Pointer for nullable fields
	Image       *string   `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductImage is one entry of a product's ordered image set.
type ProductImage struct {
	ImageURL  string `json:"image_url"`
	IsPrimary bool   `json:"is_primary"`
}

// Product represents a product in the catalog.
// Fields below CreatedAt are derived on every catalog fetch and never persisted.
type Product struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	Slug              string         `json:"slug"`
	Description       string         `json:"description"`
	Price             float64        `json:"price"`
	ComparePrice      *float64       `json:"compare_price,omitempty"`
	CategoryID        *int64         `json:"category_id,omitempty"` // Nullable: categories can be deleted
	StockQuantity     int32          `json:"stock_quantity"`
	LowStockThreshold int32          `json:"low_stock_threshold"`
	SKU               string         `json:"sku"`
	Rating            float64        `json:"rating"`
	ReviewsCount      int32          `json:"reviews_count"`
	IsFeatured        bool           `json:"is_featured"`
	IsActive          bool           `json:"is_active"`
	ProductImages     []ProductImage `json:"product_images,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`

	Category    string   `json:"category"`
	Image       string   `json:"image,omitempty"`
	Images      []string `json:"images"`
	StockStatus string   `json:"stockStatus"`
	IsNew       bool     `json:"isNew"`
}

// StockStatusFor maps a stock quantity onto its display label.
func StockStatusFor(quantity int32) string {
	switch {
	case quantity > lowStockCeiling:
		return StockStatusInStock
	case quantity > 0:
		return StockStatusLowStock
	default:
		return StockStatusOutOfStock
	}
}

// IsNewAt reports whether a product created at createdAt still counts as new at now.
func IsNewAt(createdAt, now time.Time) bool {
	return now.Sub(createdAt) < newProductAge
}

// PrimaryImage returns the first image flagged primary, else the first image, else "".
func PrimaryImage(images []ProductImage) string {
	for _, img := range images {
		if img.IsPrimary {
			return img.ImageURL
		}
	}
	if len(images) > 0 {
		return images[0].ImageURL
	}
	return ""
}

// ImageURLs flattens the image set into its ordered URL list.
func ImageURLs(images []ProductImage) []string {
	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.ImageURL)
	}
	return urls
}

// OnOffer reports whether the product has a compare-at price above its price.
func (p Product) OnOffer() bool {
	return p.ComparePrice != nil && *p.ComparePrice > p.Price
}

// CartItem is a product snapshot plus the quantity the shopper wants.
type CartItem struct {
	Product
	Quantity int32 `json:"quantity"`
}

// LineTotal returns price times quantity.
func (c CartItem) LineTotal() float64 {
	return c.Price * float64(c.Quantity)
}
