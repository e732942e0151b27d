package admin

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"storefront-service/internal/domain"
)

var ErrInvalidRole = errors.New("admin: unknown role")

func (s *Service) ListUsers(ctx context.Context) ([]domain.UserRecord, error) {
	return s.store.ListUsers(ctx)
}

// SearchUsers lists users whose name or email contains term, case-insensitively.
func (s *Service) SearchUsers(ctx context.Context, term string) ([]domain.UserRecord, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return FilterUsers(users, term), nil
}

func FilterUsers(users []domain.UserRecord, term string) []domain.UserRecord {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return users
	}
	out := make([]domain.UserRecord, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Name), term) || strings.Contains(strings.ToLower(u.Email), term) {
			out = append(out, u)
		}
	}
	return out
}

// ToggledRole returns the role a toggle moves current to.
func ToggledRole(current domain.Role) domain.Role {
	if current == domain.RoleAdmin {
		return domain.RoleCustomer
	}
	return domain.RoleAdmin
}

func (s *Service) SetUserRole(ctx context.Context, id int64, role domain.Role) error {
	if role != domain.RoleAdmin && role != domain.RoleCustomer {
		return ErrInvalidRole
	}
	if err := s.store.UpdateUserRole(ctx, id, role); err != nil {
		return err
	}
	s.logger.Info("user role changed", zap.Int64("user_id", id), zap.String("role", string(role)))
	return nil
}
