package store

import (
	"context"
	"database/sql"
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

var discountRowColumns = []string{
	"id", "code", "description", "discount_type", "discount_value", "min_purchase_amount",
	"max_discount_amount", "usage_limit", "usage_count", "start_date", "end_date", "is_active", "created_at",
}

func TestPostgresStore_GetActiveDiscountByCode(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	now := time.Now().Truncate(time.Millisecond)
	rows := sqlmock.NewRows(discountRowColumns).
		AddRow(int64(3), "SAVE10", "Ten percent", "percentage", "10", "100.00", nil,
			int64(100), int32(4), "2024-01-01 00:00:00", nil, true, now)

	mock.ExpectQuery(regexp.QuoteMeta(getActiveDiscountByCodeQuery)).WithArgs("SAVE10").WillReturnRows(rows)

	d, err := store.GetActiveDiscountByCode(context.Background(), "SAVE10")

	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, domain.DiscountPercentage, d.DiscountType)
	require.NotNil(t, d.MinPurchaseAmount)
	assert.Equal(t, "100.00", *d.MinPurchaseAmount)
	assert.Nil(t, d.MaxDiscountAmount)
	require.NotNil(t, d.UsageLimit)
	assert.Equal(t, int32(100), *d.UsageLimit)
	require.NotNil(t, d.StartDate)
	assert.Equal(t, "2024-01-01 00:00:00", *d.StartDate)
	assert.Nil(t, d.EndDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetActiveDiscountByCode_NotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(getActiveDiscountByCodeQuery)).WithArgs("NOPE").WillReturnError(sql.ErrNoRows)

	d, err := store.GetActiveDiscountByCode(context.Background(), "NOPE")

	assert.True(t, errors.Is(err, ErrDiscountNotFound), "Error should be ErrDiscountNotFound")
	assert.Nil(t, d)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateDiscount_CodeExists(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	d := &domain.Discount{Code: "SAVE10", DiscountType: domain.DiscountPercentage, DiscountValue: "10", IsActive: true}

	mock.ExpectQuery(regexp.QuoteMeta(createDiscountQuery)).
		WillReturnError(&pq.Error{Code: "23505", Detail: "Key (code)=(SAVE10) already exists."})

	created, err := store.CreateDiscount(context.Background(), d)

	assert.ErrorIs(t, err, ErrDiscountCodeExists)
	assert.Nil(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddToWishlist_Idempotent(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(addToWishlistQuery)).WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.AddToWishlist(context.Background(), 1, 2), "A repeated add must not fail")
	require.NoError(t, mock.ExpectationsWereMet())
}
