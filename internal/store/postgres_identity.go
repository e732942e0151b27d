package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-service/internal/domain"
)

const (
	identityColumns = `id, email, password_hash, full_name, role, created_at`

	createIdentityQuery = `
		INSERT INTO auth_identities (id, email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at;
	`
	getIdentityByEmailQuery = `SELECT ` + identityColumns + ` FROM auth_identities WHERE email = $1;`
	getIdentityByIDQuery    = `SELECT ` + identityColumns + ` FROM auth_identities WHERE id = $1;`
)

func (s *PostgresStore) getIdentity(ctx context.Context, op, query string, arg any) (*domain.AuthIdentity, error) {
	var id domain.AuthIdentity
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&id.ID, &id.Email, &id.PasswordHash, &id.Metadata.FullName, &id.Metadata.Role, &id.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("store: %s failed to scan row: %w", op, err)
	}
	return &id, nil
}

// --- IdentityStorer Implementation ---

func (s *PostgresStore) CreateIdentity(ctx context.Context, identity *domain.AuthIdentity) error {
	err := s.db.QueryRowContext(ctx, createIdentityQuery,
		identity.ID, identity.Email, identity.PasswordHash, identity.Metadata.FullName, identity.Metadata.Role,
	).Scan(&identity.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "auth_identities_email_key", "email") {
			return ErrIdentityEmailExists
		}
		return fmt.Errorf("store: CreateIdentity failed to scan row: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetIdentityByEmail(ctx context.Context, email string) (*domain.AuthIdentity, error) {
	return s.getIdentity(ctx, "GetIdentityByEmail", getIdentityByEmailQuery, email)
}

func (s *PostgresStore) GetIdentityByID(ctx context.Context, id string) (*domain.AuthIdentity, error) {
	return s.getIdentity(ctx, "GetIdentityByID", getIdentityByIDQuery, id)
}
