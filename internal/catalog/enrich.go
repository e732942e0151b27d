package catalog

import (
	"time"

	"storefront-service/internal/domain"
)

// CategoryNames builds the id to display name lookup.
func CategoryNames(categories []domain.Category) map[int64]string {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names
}

// EnrichProduct fills the display fields of p. now is the wall clock of the fetch.
func EnrichProduct(p domain.Product, names map[int64]string, now time.Time) domain.Product {
	p.Category = domain.UncategorizedLabel
	if p.CategoryID != nil {
		if name, ok := names[*p.CategoryID]; ok {
			p.Category = name
		}
	}
	p.Image = domain.PrimaryImage(p.ProductImages)
	p.Images = domain.ImageURLs(p.ProductImages)
	p.StockStatus = domain.StockStatusFor(p.StockQuantity)
	p.IsNew = domain.IsNewAt(p.CreatedAt, now)
	return p
}

// EnrichProducts returns enriched copies of products.
func EnrichProducts(products []domain.Product, categories []domain.Category, now time.Time) []domain.Product {
	names := CategoryNames(categories)
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		out = append(out, EnrichProduct(p, names, now))
	}
	return out
}

// EnrichOrders sets each order's display date and each item's image from products.
func EnrichOrders(orders []domain.Order, products []domain.Product) []domain.Order {
	images := make(map[int64]string, len(products))
	for _, p := range products {
		images[p.ID] = p.Image
	}

	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		o.Date = domain.FormatOrderDate(o.CreatedAt)
		items := make([]domain.OrderItem, len(o.Items))
		for i, item := range o.Items {
			item.Image = images[item.ProductID]
			items[i] = item
		}
		o.Items = items
		out = append(out, o)
	}
	return out
}
