package storefront

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"storefront-service/internal/domain"
)

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=32"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

// SignIn authenticates and returns the resolved profile.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	sess, err := c.svc.Auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.publish(domain.AuthEvent{Type: domain.AuthSignedIn, Session: sess})
	c.logger.Info("signed in", zap.String("identity_id", sess.User.ID))
	return c.User(), nil
}

// SignUp creates the auth identity and its users row, then signs in. A failed users row
// insert is logged; the profile then falls back to session metadata.
func (c *Client) SignUp(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	sess, err := c.svc.Auth.SignUp(ctx, email, password, domain.UserMetadata{
		FullName: name,
		Role:     string(domain.RoleCustomer),
	})
	if err != nil {
		return nil, err
	}

	role := string(domain.RoleCustomer)
	if _, err := c.svc.Store.CreateUser(ctx, &domain.UserRecord{
		Name:  name,
		Email: sess.User.Email,
		Role:  &role,
	}); err != nil {
		c.logger.Error("users row insert failed after sign-up",
			zap.String("identity_id", sess.User.ID), zap.Error(err))
	}

	c.publish(domain.AuthEvent{Type: domain.AuthSignedIn, Session: sess})
	return c.User(), nil
}

// SignOut ends the session. Local state is cleared even when revocation fails.
func (c *Client) SignOut(ctx context.Context) {
	if token := c.Token(); token != "" {
		if err := c.svc.Auth.SignOut(ctx, token); err != nil {
			c.logger.Warn("sign-out revocation failed", zap.Error(err))
		}
	}
	c.publish(domain.AuthEvent{Type: domain.AuthSignedOut})
}

// RefreshSession rotates the access token.
func (c *Client) RefreshSession(ctx context.Context) (*domain.Session, error) {
	token := c.Token()
	if token == "" {
		return nil, ErrLoginRequired
	}
	sess, err := c.svc.Auth.Refresh(ctx, token)
	if err != nil {
		c.publish(domain.AuthEvent{Type: domain.AuthSignedOut})
		return nil, err
	}
	c.publish(domain.AuthEvent{Type: domain.AuthTokenRefreshed, Session: sess})
	return sess, nil
}

// UpdateProfile writes the editable fields and re-resolves the profile.
func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) (*domain.User, error) {
	id, ok := c.dbID()
	if !ok {
		return nil, ErrLoginRequired
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	user := c.User()
	if _, err := c.svc.Store.UpdateUserProfile(ctx, &domain.UserRecord{
		ID:      id,
		Name:    strings.TrimSpace(in.Name),
		Email:   user.Email,
		Avatar:  user.Avatar,
		Phone:   in.Phone,
		Address: in.Address,
	}); err != nil {
		return nil, err
	}
	c.publish(domain.AuthEvent{Type: domain.AuthUserUpdated, Session: c.currentSession()})
	return c.User(), nil
}
