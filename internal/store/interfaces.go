package store

import (
	"context"

	"storefront-service/internal/domain"
)

// CategoryStorer defines the database operations for categories.
type CategoryStorer interface {
	ListCategories(ctx context.Context) ([]domain.Category, error) // Ordered by name
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// ProductStorer defines the database operations for products and their images.
type ProductStorer interface {
	// ListProductsWithImages returns every product joined with its image set, newest first.
	ListProductsWithImages(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	// ReplaceProductImages swaps the image set of a product for images, in order.
	ReplaceProductImages(ctx context.Context, productID int64, images []domain.ProductImage) error
	// AdjustStock atomically adds delta to the stock quantity, flooring the result at zero.
	AdjustStock(ctx context.Context, productID int64, delta int32) (int32, error)
	UpdateRating(ctx context.Context, productID int64, rating float64, reviewsCount int32) error
	CountLowStock(ctx context.Context, below int32) (int, error)
}

// OrderStorer defines the database operations for orders and their line items.
type OrderStorer interface {
	// ListOrdersWithItems returns every order joined with its line items, newest first.
	ListOrdersWithItems(ctx context.Context) ([]domain.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	// UpdateOrderStatus is a compare-and-set on the current status.
	UpdateOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error
	// PlaceOrder persists an order, its items, the stock decrements and the discount usage
	// increment in a single transaction.
	PlaceOrder(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error)
	ListRecentOrders(ctx context.Context, limit int) ([]domain.Order, error)
}

// DiscountStorer defines the database operations for discount codes.
type DiscountStorer interface {
	// GetActiveDiscountByCode returns the single active discount whose code equals code.
	GetActiveDiscountByCode(ctx context.Context, code string) (*domain.Discount, error)
	ListDiscounts(ctx context.Context) ([]domain.Discount, error)
	CreateDiscount(ctx context.Context, discount *domain.Discount) (*domain.Discount, error)
	DeleteDiscount(ctx context.Context, id int64) error
}

// UserStorer defines the database operations for application user profiles.
type UserStorer interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.UserRecord, error)
	CreateUser(ctx context.Context, user *domain.UserRecord) (*domain.UserRecord, error)
	UpdateUserProfile(ctx context.Context, user *domain.UserRecord) (*domain.UserRecord, error)
	ListUsers(ctx context.Context) ([]domain.UserRecord, error)
	UpdateUserRole(ctx context.Context, id int64, role domain.Role) error
	CountUsers(ctx context.Context) (int, error)
}

// WishlistStorer defines the database operations for wishlist membership.
type WishlistStorer interface {
	ListWishlistProducts(ctx context.Context, userID int64) ([]domain.Product, error)
	AddToWishlist(ctx context.Context, userID, productID int64) error
	RemoveFromWishlist(ctx context.Context, userID, productID int64) error
}

// ReviewStorer defines the database operations for product reviews.
type ReviewStorer interface {
	ListReviews(ctx context.Context, productID int64) ([]domain.Review, error)
	CreateReview(ctx context.Context, review *domain.Review) error
}

// Gateway groups every collection of the remote data service.
type Gateway interface {
	CategoryStorer
	ProductStorer
	OrderStorer
	DiscountStorer
	UserStorer
	WishlistStorer
	ReviewStorer
}

// IdentityStorer defines the database operations behind the auth subsystem.
type IdentityStorer interface {
	CreateIdentity(ctx context.Context, identity *domain.AuthIdentity) error
	GetIdentityByEmail(ctx context.Context, email string) (*domain.AuthIdentity, error)
	GetIdentityByID(ctx context.Context, id string) (*domain.AuthIdentity, error)
}
