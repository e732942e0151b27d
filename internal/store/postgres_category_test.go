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

// Helper function to create a mock DB and PostgresStore for testing
func newMockDBAndStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStore) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	store := NewPostgresStore(db, nil)
	require.NotNil(t, store, "Store should not be nil")

	return db, mock, store
}

// Helper function to get a pointer (useful for optional fields in domain structs)
func PtrTo[T any](v T) *T {
	return &v
}

var categoryRowColumns = []string{"id", "name", "slug", "description", "image", "created_at"}

func TestPostgresStore_CreateCategory(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	now := time.Now().Truncate(time.Millisecond)
	categoryToCreate := &domain.Category{
		Name:        "Audio",
		Slug:        "audio",
		Description: PtrTo("Headphones and speakers"),
	}

	rows := sqlmock.NewRows(categoryRowColumns).
		AddRow(int64(1), "Audio", "audio", "Headphones and speakers", nil, now)

	mock.ExpectQuery(regexp.QuoteMeta(createCategoryQuery)).
		WithArgs(categoryToCreate.Name, categoryToCreate.Slug, categoryToCreate.Description, categoryToCreate.Image).
		WillReturnRows(rows)

	created, err := store.CreateCategory(context.Background(), categoryToCreate)

	require.NoError(t, err, "CreateCategory should not return an error")
	require.NotNil(t, created)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "audio", created.Slug)
	require.NotNil(t, created.Description)
	assert.Equal(t, "Headphones and speakers", *created.Description)
	assert.Nil(t, created.Image)
	assert.WithinDuration(t, now, created.CreatedAt, time.Second)

	require.NoError(t, mock.ExpectationsWereMet(), "SQLmock expectations were not met")
}

func TestPostgresStore_CreateCategory_NameExists(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	categoryToCreate := &domain.Category{Name: "Audio", Slug: "audio"}

	pqErr := &pq.Error{Code: "23505", Constraint: "categories_name_key"}
	mock.ExpectQuery(regexp.QuoteMeta(createCategoryQuery)).
		WithArgs(categoryToCreate.Name, categoryToCreate.Slug, categoryToCreate.Description, categoryToCreate.Image).
		WillReturnError(pqErr)

	created, err := store.CreateCategory(context.Background(), categoryToCreate)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCategoryNameExists), "Error should be ErrCategoryNameExists")
	assert.Nil(t, created)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCategories(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	now := time.Now().Truncate(time.Millisecond)
	rows := sqlmock.NewRows(categoryRowColumns).
		AddRow(int64(1), "Audio", "audio", nil, nil, now).
		AddRow(int64(2), "Wearables", "wearables", "Watches", "https://img/w.png", now)

	mock.ExpectQuery(regexp.QuoteMeta(listCategoriesQuery)).WillReturnRows(rows)

	categories, err := store.ListCategories(context.Background())

	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Audio", categories[0].Name)
	assert.Nil(t, categories[0].Description)
	require.NotNil(t, categories[1].Image)
	assert.Equal(t, "https://img/w.png", *categories[1].Image)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCategories_Empty(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(listCategoriesQuery)).WillReturnRows(sqlmock.NewRows(categoryRowColumns))

	categories, err := store.ListCategories(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, categories, "An empty list should not be nil")
	assert.Empty(t, categories)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteCategory(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(deleteCategoryQuery)).WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.DeleteCategory(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteCategory_NotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(deleteCategoryQuery)).WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteCategory(context.Background(), 99)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCategoryNotFound), "Error should be ErrCategoryNotFound")
	require.NoError(t, mock.ExpectationsWereMet())
}
