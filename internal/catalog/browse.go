package catalog

import (
	"sort"
	"strings"

	"storefront-service/internal/domain"
)

// SortOrder selects the product listing order.
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"

	DefaultPageSize = 8
	RelatedLimit    = 4
)

// Query holds the storefront listing filters. Zero values match everything.
type Query struct {
	CategoryID  *int64    `json:"category_id,omitempty"`
	Search      string    `json:"search,omitempty"`
	MinPrice    *float64  `json:"min_price,omitempty"`
	MaxPrice    *float64  `json:"max_price,omitempty"`
	InStockOnly bool      `json:"in_stock_only,omitempty"`
	NewOnly     bool      `json:"new_only,omitempty"`
	OffersOnly  bool      `json:"offers_only,omitempty"`
	Sort        SortOrder `json:"sort,omitempty"`
}

func (q Query) matches(p domain.Product) bool {
	if !p.IsActive {
		return false
	}
	if q.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *q.CategoryID) {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) && !strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	if q.InStockOnly && p.StockQuantity <= 0 {
		return false
	}
	if q.NewOnly && !p.IsNew {
		return false
	}
	if q.OffersOnly && !p.OnOffer() {
		return false
	}
	return true
}

// Filter returns the active products matching q in the requested order.
func Filter(products []domain.Product, q Query) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if q.matches(p) {
			out = append(out, p)
		}
	}

	switch q.Sort {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	}
	return out
}

// Page is one page of a product listing. Page numbers start at 1.
type Page struct {
	Items      []domain.Product `json:"items"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	Total      int              `json:"total"`
}

// Paginate slices products into pages of size perPage (DefaultPageSize when < 1).
// Pages beyond the last return no items.
func Paginate(products []domain.Product, page, perPage int) Page {
	if perPage < 1 {
		perPage = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	total := len(products)
	result := Page{
		Items:      []domain.Product{},
		Page:       page,
		TotalPages: (total + perPage - 1) / perPage,
		Total:      total,
	}
	start := (page - 1) * perPage
	if start >= total {
		return result
	}
	end := start + perPage
	if end > total {
		end = total
	}
	result.Items = products[start:end]
	return result
}

// Related returns up to limit other products sharing product's category, in catalog order.
func Related(product domain.Product, all []domain.Product, limit int) []domain.Product {
	out := make([]domain.Product, 0, limit)
	for _, p := range all {
		if len(out) == limit {
			break
		}
		if p.ID == product.ID || !sameCategory(p.CategoryID, product.CategoryID) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func sameCategory(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
