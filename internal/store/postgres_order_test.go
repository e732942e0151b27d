package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"storefront-service/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDraft(discountID *int64) domain.OrderDraft {
	return domain.OrderDraft{
		UserID:          11,
		OrderNumber:     "SN-123456",
		Subtotal:        300,
		DiscountAmount:  30,
		Total:           295,
		ShippingAddress: "Amina Benali, Alger, 0551234567",
		PaymentMethod:   domain.PaymentCashOnDelivery,
		DiscountID:      discountID,
		Items: []domain.OrderItem{
			{ProductID: 1, ProductName: "Headphones", ProductPrice: 100, Quantity: 2, Subtotal: 200},
			{ProductID: 2, ProductName: "Speaker", ProductPrice: 100, Quantity: 1, Subtotal: 100},
		},
	}
}

func expectOrderInsert(mock sqlmock.Sqlmock, draft domain.OrderDraft, now time.Time) {
	mock.ExpectQuery(regexp.QuoteMeta(insertOrderQuery)).
		WithArgs(draft.OrderNumber, draft.UserID, draft.Subtotal, draft.DiscountAmount, draft.Total,
			draft.ShippingAddress, draft.PaymentMethod).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at"}).AddRow(int64(50), "Pending", now))
}

func expectItemInserts(mock sqlmock.Sqlmock, draft domain.OrderDraft) {
	for i, item := range draft.Items {
		mock.ExpectQuery(regexp.QuoteMeta(insertOrderItemQuery)).
			WithArgs(int64(50), item.ProductID, item.ProductName, item.ProductPrice, item.Quantity, item.Subtotal).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100 + i)))
		mock.ExpectExec(regexp.QuoteMeta(decrementStockQuery)).
			WithArgs(item.Quantity, item.ProductID).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
}

func TestPostgresStore_PlaceOrder(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	now := time.Now().Truncate(time.Millisecond)
	draft := sampleDraft(PtrTo(int64(9)))

	mock.ExpectBegin()
	expectOrderInsert(mock, draft, now)
	expectItemInserts(mock, draft)
	mock.ExpectExec(regexp.QuoteMeta(incrementDiscountUsageQuery)).WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := store.PlaceOrder(context.Background(), draft)

	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, int64(50), order.ID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "SN-123456", order.OrderNumber)
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(100), order.Items[0].ID)
	assert.Equal(t, int64(50), order.Items[1].OrderID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PlaceOrder_WithoutDiscount(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	draft := sampleDraft(nil)

	mock.ExpectBegin()
	expectOrderInsert(mock, draft, time.Now())
	expectItemInserts(mock, draft)
	mock.ExpectCommit()

	_, err := store.PlaceOrder(context.Background(), draft)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet(), "No discount update should run without a discount id")
}

func TestPostgresStore_PlaceOrder_DiscountExhaustedRollsBack(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	draft := sampleDraft(PtrTo(int64(9)))

	mock.ExpectBegin()
	expectOrderInsert(mock, draft, time.Now())
	expectItemInserts(mock, draft)
	mock.ExpectExec(regexp.QuoteMeta(incrementDiscountUsageQuery)).WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	order, err := store.PlaceOrder(context.Background(), draft)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDiscountExhausted), "Error should be ErrDiscountExhausted")
	assert.Nil(t, order)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PlaceOrder_DuplicateNumber(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	draft := sampleDraft(nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(insertOrderQuery)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "orders_order_number_key"})
	mock.ExpectRollback()

	_, err := store.PlaceOrder(context.Background(), draft)

	assert.ErrorIs(t, err, ErrOrderNumberExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListOrdersWithItems(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	now := time.Now().Truncate(time.Millisecond)
	cols := []string{"id", "order_number", "user_id", "status", "subtotal", "discount_amount", "total",
		"shipping_address", "payment_method", "created_at", "items"}
	rows := sqlmock.NewRows(cols).
		AddRow(int64(2), "SN-000002", int64(11), "Shipped", 120.0, 0.0, 145.0, "addr", "Cash on Delivery", now,
			[]byte(`[{"id":7,"order_id":2,"product_id":1,"product_name":"Cable","product_price":60,"quantity":2,"subtotal":120}]`)).
		AddRow(int64(1), "SN-000001", int64(11), "Pending", 600.0, 0.0, 600.0, "addr", "Cash on Delivery", now,
			[]byte(`[]`))

	mock.ExpectQuery(regexp.QuoteMeta(listOrdersWithItemsQuery)).WillReturnRows(rows)

	orders, err := store.ListOrdersWithItems(context.Background())

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, domain.OrderStatusShipped, orders[0].Status)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, int32(2), orders[0].Items[0].Quantity)
	assert.Equal(t, 60.0, orders[0].Items[0].ProductPrice)
	assert.Empty(t, orders[1].Items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateOrderStatus(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(updateOrderStatusQuery)).WithArgs("Cancelled", int64(500), "Pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateOrderStatus(context.Background(), 500, domain.OrderStatusPending, domain.OrderStatusCancelled)

	assert.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateOrderStatus_StatusChanged(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	// Another writer already cancelled the order.
	mock.ExpectExec(regexp.QuoteMeta(updateOrderStatusQuery)).WithArgs("Cancelled", int64(500), "Pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateOrderStatus(context.Background(), 500, domain.OrderStatusPending, domain.OrderStatusCancelled)

	assert.ErrorIs(t, err, ErrOrderStatusChanged)
	require.NoError(t, mock.ExpectationsWereMet())
}
