package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-service/internal/domain"
)

const (
	userColumns = `id, name, email, role, avatar, phone, address, created_at`

	getUserByEmailQuery = `SELECT ` + userColumns + ` FROM users WHERE email = $1;`
	createUserQuery     = `
		INSERT INTO users (name, email, role)
		VALUES ($1, $2, COALESCE($3, 'customer'))
		RETURNING ` + userColumns + `;
	`
	updateUserProfileQuery = `
		UPDATE users SET name = $1, phone = $2, address = $3, avatar = $4
		WHERE id = $5
		RETURNING ` + userColumns + `;
	`
	listUsersQuery      = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC;`
	updateUserRoleQuery = `UPDATE users SET role = $1 WHERE id = $2;`
	countUsersQuery     = `SELECT COUNT(*) FROM users;`
)

func scanUser(row rowScanner) (domain.UserRecord, error) {
	var u domain.UserRecord
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Avatar, &u.Phone, &u.Address, &u.CreatedAt)
	return u, err
}

// --- UserStorer Implementation ---

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, getUserByEmailQuery, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store: GetUserByEmail failed to scan row: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *domain.UserRecord) (*domain.UserRecord, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, createUserQuery, user.Name, user.Email, user.Role))
	if err != nil {
		if isUniqueViolation(err, "users_email_key", "email") {
			return nil, ErrUserEmailExists
		}
		return nil, fmt.Errorf("store: CreateUser failed to scan row: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) UpdateUserProfile(ctx context.Context, user *domain.UserRecord) (*domain.UserRecord, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, updateUserProfileQuery,
		user.Name, user.Phone, user.Address, user.Avatar, user.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store: UpdateUserProfile failed to scan row: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]domain.UserRecord, error) {
	rows, err := s.db.QueryContext(ctx, listUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("store: ListUsers failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.UserRecord, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("store: ListUsers failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListUsers iteration error: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) UpdateUserRole(ctx context.Context, id int64, role domain.Role) error {
	result, err := s.db.ExecContext(ctx, updateUserRoleQuery, string(role), id)
	if err != nil {
		return fmt.Errorf("store: UpdateUserRole failed to execute update: %w", err)
	}
	return affectedOrErr(result, ErrUserNotFound, "UpdateUserRole")
}

func (s *PostgresStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countUsersQuery).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: CountUsers failed: %w", err)
	}
	return n, nil
}
