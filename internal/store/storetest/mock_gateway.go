// Package storetest provides a testify mock of the store gateway for package tests.
package storetest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

// MockGateway is a mock implementation of store.Gateway and store.IdentityStorer
type MockGateway struct {
	mock.Mock
}

var (
	_ store.Gateway        = (*MockGateway)(nil)
	_ store.IdentityStorer = (*MockGateway)(nil)
)

func (m *MockGateway) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	var out []domain.Category
	if arg0 := args.Get(0); arg0 != nil {
		out = arg0.([]domain.Category)
	}
	return out, args.Error(1)
}

func (m *MockGateway) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockGateway) DeleteCategory(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockGateway) ListProductsWithImages(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	var out []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		out = arg0.([]domain.Product)
	}
	return out, args.Error(1)
}

func (m *MockGateway) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockGateway) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockGateway) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockGateway) DeleteProduct(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockGateway) ReplaceProductImages(ctx context.Context, productID int64, images []domain.ProductImage) error {
	return m.Called(ctx, productID, images).Error(0)
}

func (m *MockGateway) AdjustStock(ctx context.Context, productID int64, delta int32) (int32, error) {
	args := m.Called(ctx, productID, delta)
	return int32(args.Int(0)), args.Error(1)
}

func (m *MockGateway) UpdateRating(ctx context.Context, productID int64, rating float64, reviewsCount int32) error {
	return m.Called(ctx, productID, rating, reviewsCount).Error(0)
}

func (m *MockGateway) CountLowStock(ctx context.Context, below int32) (int, error) {
	args := m.Called(ctx, below)
	return args.Int(0), args.Error(1)
}

func (m *MockGateway) ListOrdersWithItems(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	var out []domain.Order
	if arg0 := args.Get(0); arg0 != nil {
		out = arg0.([]domain.Order)
	}
	return out, args.Error(1)
}

func (m *MockGateway) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockGateway) UpdateOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *MockGateway) PlaceOrder(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockGateway) ListRecentOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	args := m.Called(ctx, limit)
	var out []domain.Order
	if arg0 := args.Get(0); arg0 != nil {
		out = arg0.([]domain.Order)
	}
	return out, args.Error(1)
}

func (m *MockGateway) GetActiveDiscountByCode(ctx context.Context, code string) (*domain.Discount, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Discount), args.Error(1)
}

func (m *MockGateway) ListDiscounts(ctx context.Context) ([]domain.Discount, error) {
	args := m.Called(ctx)
	var out []domain.Discount
	if arg0 := args.Get(0); arg0 != nil {
		out = arg0.([]domain.Discount)
	}
	return out, args.Error(1)
}

func (m *MockGateway) CreateDiscount(ctx context.Context, discount *domain.Discount) (*domain.Discount, error) {
	args := m.Called(ctx, discount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Discount), args.Error(1)
}

func (m *MockGateway) DeleteDiscount(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockGateway) GetUserByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserRecord), args.Error(1)
}

func (m *MockGateway) CreateUser(ctx context.Context, user *domain.UserRecord) (*domain.UserRecord, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserRecord), args.Error(1)
}

func (m *MockGateway) UpdateUserProfile(ctx context.Context, user *domain.UserRecord) (*domain.UserRecord, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserRecord), args.Error(1)
}

func (m *MockGateway) ListUsers(ctx context.Context) ([]domain.UserRecord, error) {
	args := m.Called(ctx)
	var out []domain.UserRecord
	if arg0 := args.Get(0); arg0 != nil {
		out = arg0.([]domain.UserRecord)
	}
	return out, args.Error(1)
}

func (m *MockGateway) UpdateUserRole(ctx context.Context, id int64, role domain.Role) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *MockGateway) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockGateway) ListWishlistProducts(ctx context.Context, userID int64) ([]domain.Product, error) {
	args := m.Called(ctx, userID)
	var out []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		out = arg0.([]domain.Product)
	}
	return out, args.Error(1)
}

func (m *MockGateway) AddToWishlist(ctx context.Context, userID, productID int64) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *MockGateway) RemoveFromWishlist(ctx context.Context, userID, productID int64) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *MockGateway) ListReviews(ctx context.Context, productID int64) ([]domain.Review, error) {
	args := m.Called(ctx, productID)
	var out []domain.Review
	if arg0 := args.Get(0); arg0 != nil {
		out = arg0.([]domain.Review)
	}
	return out, args.Error(1)
}

func (m *MockGateway) CreateReview(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *MockGateway) CreateIdentity(ctx context.Context, identity *domain.AuthIdentity) error {
	return m.Called(ctx, identity).Error(0)
}

func (m *MockGateway) GetIdentityByEmail(ctx context.Context, email string) (*domain.AuthIdentity, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthIdentity), args.Error(1)
}

func (m *MockGateway) GetIdentityByID(ctx context.Context, id string) (*domain.AuthIdentity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthIdentity), args.Error(1)
}
