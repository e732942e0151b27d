// Package admin implements the back-office operations: catalog maintenance, discount codes,
// user roles and the sales dashboards.
package admin

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront-service/internal/catalog"
	"storefront-service/internal/store"
)

// Catalog is the synchronizer surface admin mutations refresh.
type Catalog interface {
	Snapshot() *catalog.Snapshot
	Refresh(ctx context.Context, reason string) (*catalog.Snapshot, error)
}

type Service struct {
	store    store.Gateway
	catalog  Catalog
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(gw store.Gateway, c Catalog, opts ...Option) *Service {
	s := &Service{
		store:    gw,
		catalog:  c,
		validate: validator.New(),
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// refresh publishes a mutation to every client. A dropped or partial refresh is logged only.
func (s *Service) refresh(ctx context.Context, reason string) {
	if _, err := s.catalog.Refresh(ctx, reason); err != nil && !errors.Is(err, catalog.ErrRefreshInProgress) {
		s.logger.Warn("catalog refresh after admin change incomplete", zap.String("reason", reason), zap.Error(err))
	}
}
