// Package session turns authenticated sessions into storefront user profiles.
package session

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront-service/internal/domain"
)

// DefaultTimeout bounds every profile and session lookup.
const DefaultTimeout = 3 * time.Second

const fallbackName = "User"

// ProfileSource looks up the users row of a signed-in identity.
type ProfileSource interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.UserRecord, error)
}

// SessionSource resolves an access token into a session.
type SessionSource interface {
	CurrentSession(ctx context.Context, token string) (*domain.Session, error)
}

// Resolver never fails: slow or failed lookups degrade to a profile built from the
// session itself. Lookups that lose the race keep running and their results are dropped.
type Resolver struct {
	profiles ProfileSource
	sessions SessionSource
	timeout  time.Duration
	logger   *zap.Logger

	group singleflight.Group
}

func NewResolver(profiles ProfileSource, sessions SessionSource, timeout time.Duration, logger *zap.Logger) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{profiles: profiles, sessions: sessions, timeout: timeout, logger: logger}
}

type lookup[T any] struct {
	val T
	err error
}

// race runs fn detached from ctx cancellation and waits at most timeout for it.
func race[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, bool, error) {
	done := make(chan lookup[T], 1)
	detached := context.WithoutCancel(ctx)
	go func() {
		v, err := fn(detached)
		done <- lookup[T]{val: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case res := <-done:
		return res.val, true, res.err
	case <-timer.C:
		return zero, false, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// Resolve returns the profile of sess, or nil when sess is nil.
// Concurrent calls for the same identity share one lookup.
func (r *Resolver) Resolve(ctx context.Context, sess *domain.Session) *domain.User {
	if sess == nil {
		return nil
	}
	v, _, _ := r.group.Do(sess.User.ID, func() (interface{}, error) {
		return r.resolve(ctx, sess), nil
	})
	u := *v.(*domain.User)
	return &u
}

func (r *Resolver) resolve(ctx context.Context, sess *domain.Session) *domain.User {
	row, settled, err := race(ctx, r.timeout, func(ctx context.Context) (*domain.UserRecord, error) {
		return r.profiles.GetUserByEmail(ctx, sess.User.Email)
	})
	switch {
	case !settled:
		r.logger.Warn("profile lookup timed out, using session profile",
			zap.String("identity_id", sess.User.ID), zap.Duration("timeout", r.timeout))
		return Fallback(sess)
	case err != nil:
		r.logger.Info("profile lookup failed, using session profile",
			zap.String("identity_id", sess.User.ID), zap.Error(err))
		return Fallback(sess)
	case row == nil:
		return Fallback(sess)
	}
	return Merge(sess, row)
}

// CurrentSession looks up token under the same deadline. Any failure means no session.
func (r *Resolver) CurrentSession(ctx context.Context, token string) *domain.Session {
	if token == "" {
		return nil
	}
	sess, settled, err := race(ctx, r.timeout, func(ctx context.Context) (*domain.Session, error) {
		return r.sessions.CurrentSession(ctx, token)
	})
	if !settled {
		r.logger.Warn("session lookup timed out", zap.Duration("timeout", r.timeout))
		return nil
	}
	if err != nil {
		r.logger.Debug("no current session", zap.Error(err))
		return nil
	}
	return sess
}

// Merge combines the identity of sess with its users row.
func Merge(sess *domain.Session, row *domain.UserRecord) *domain.User {
	dbID := row.ID
	created := row.CreatedAt
	role := domain.RoleCustomer
	if row.Role != nil && *row.Role != "" {
		role = domain.Role(*row.Role)
	}
	return &domain.User{
		ID:        sess.User.ID,
		DBID:      &dbID,
		Name:      row.Name,
		Email:     row.Email,
		Role:      role,
		Avatar:    row.Avatar,
		Phone:     row.Phone,
		Address:   row.Address,
		CreatedAt: &created,
	}
}

// Fallback builds a profile from session metadata alone. It has no database id.
func Fallback(sess *domain.Session) *domain.User {
	name := sess.User.Metadata.FullName
	if name == "" {
		name = fallbackName
	}
	role := domain.RoleCustomer
	if sess.User.Metadata.Role != "" {
		role = domain.Role(sess.User.Metadata.Role)
	}
	return &domain.User{
		ID:    sess.User.ID,
		Name:  name,
		Email: sess.User.Email,
		Role:  role,
	}
}
