package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Predefined errors for store operations
var (
	ErrCategoryNotFound    = errors.New("store: category not found")
	ErrCategoryNameExists  = errors.New("store: category name already exists")
	ErrProductNotFound     = errors.New("store: product not found")
	ErrProductSKUExists    = errors.New("store: product SKU already exists")
	ErrOrderNotFound       = errors.New("store: order not found")
	ErrOrderNumberExists   = errors.New("store: order number already exists")
	ErrOrderStatusChanged  = errors.New("store: order status changed concurrently")
	ErrDiscountNotFound    = errors.New("store: discount not found")
	ErrDiscountCodeExists  = errors.New("store: discount code already exists")
	ErrDiscountExhausted   = errors.New("store: discount usage limit reached")
	ErrUserNotFound        = errors.New("store: user not found")
	ErrUserEmailExists     = errors.New("store: user email already exists")
	ErrIdentityNotFound    = errors.New("store: identity not found")
	ErrIdentityEmailExists = errors.New("store: identity email already exists")
)

const uniqueViolation = "23505"

//go:embed schema.sql
var schemaSQL string

// PostgresStore implements every storer interface of this package using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// Ensure PostgresStore implements all interfaces
var (
	_ Gateway        = (*PostgresStore)(nil)
	_ IdentityStorer = (*PostgresStore)(nil)
)

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, logger: logger}
}

// EnsureSchema creates the tables the storefront relies on when they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store: EnsureSchema failed: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Info("closing database connection pool")
	if err := s.db.Close(); err != nil {
		s.logger.Error("failed to close database connection pool", zap.Error(err))
		return err
	}
	return nil
}

// isUniqueViolation reports whether err is a unique violation touching the given column.
func isUniqueViolation(err error, constraint, column string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return false
	}
	return strings.Contains(pqErr.Constraint, constraint) || strings.Contains(pqErr.Detail, "Key ("+column+")")
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// withTx runs fn inside a transaction, rolling back on any error.
func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("transaction rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: failed to commit transaction: %w", err)
	}
	return nil
}

func affectedOrErr(result sql.Result, notFound error, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: %s failed to get rows affected: %w", op, err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
