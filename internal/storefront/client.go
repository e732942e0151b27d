// Package storefront holds the per-browser state of the shop: profile, cart, wishlist,
// applied discount and current view.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"storefront-service/internal/catalog"
	"storefront-service/internal/domain"
	"storefront-service/internal/session"
	"storefront-service/internal/store"
)

var (
	ErrLoginRequired          = errors.New("storefront: login required")
	ErrForbidden              = errors.New("storefront: admin role required")
	ErrUnknownView            = errors.New("storefront: unknown view")
	ErrUnknownProduct         = errors.New("storefront: product not in catalog")
	ErrEmptyCart              = errors.New("storefront: cart is empty")
	ErrDiscountAlreadyApplied = errors.New("storefront: a discount is already applied")
)

const authTopic = "auth:state"

// eventTimeout bounds the work done for one auth event, including the wishlist load.
const eventTimeout = 10 * time.Second

// DefaultBootRefreshAfter is how old the catalog must be before a booting client refreshes it.
const DefaultBootRefreshAfter = 30 * time.Second

// Auth is the auth gateway as seen by a client.
type Auth interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, email, password string, meta domain.UserMetadata) (*domain.Session, error)
	SignOut(ctx context.Context, token string) error
	Refresh(ctx context.Context, token string) (*domain.Session, error)
}

// Catalog is the synchronizer surface a client reads and refreshes.
type Catalog interface {
	Snapshot() *catalog.Snapshot
	Refresh(ctx context.Context, reason string) (*catalog.Snapshot, error)
}

// DiscountValidator checks a code against the current cart subtotal.
type DiscountValidator interface {
	Validate(ctx context.Context, code string, subtotal float64) (*domain.Discount, error)
}

// Services are the shared collaborators of every client.
type Services struct {
	Store     store.Gateway
	Auth      Auth
	Resolver  *session.Resolver
	Catalog   Catalog
	Discounts DiscountValidator
	Logger    *zap.Logger
	Now       func() time.Time
	// BootRefreshAfter skips the boot refresh while the snapshot is younger than this.
	BootRefreshAfter time.Duration
}

func (s Services) withDefaults() Services {
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.BootRefreshAfter <= 0 {
		s.BootRefreshAfter = DefaultBootRefreshAfter
	}
	return s
}

// Client is the state of one browser. Auth transitions are delivered on a private event
// bus and applied one at a time in delivery order.
type Client struct {
	id     string
	svc    Services
	logger *zap.Logger
	cart   *Cart
	bus    EventBus.Bus

	mu       sync.RWMutex
	token    string
	sess     *domain.Session
	user     *domain.User
	wishlist []domain.Product
	applied  *domain.Discount
	view     domain.View

	bootOnce sync.Once
	ready    chan struct{}
	lastSeen atomic.Int64
}

func NewClient(id string, svc Services) *Client {
	svc = svc.withDefaults()
	c := &Client{
		id:     id,
		svc:    svc,
		logger: svc.Logger.With(zap.String("client_id", id)),
		cart:   NewCart(),
		bus:    EventBus.New(),
		view:   domain.ViewHome,
		ready:  make(chan struct{}),
	}
	c.Touch()
	if err := c.bus.SubscribeAsync(authTopic, c.onAuthEvent, true); err != nil {
		c.logger.Error("auth event subscription failed", zap.Error(err))
	}
	return c
}

func (c *Client) ID() string { return c.id }

func (c *Client) Cart() *Cart { return c.cart }

// Touch records activity for idle eviction.
func (c *Client) Touch() { c.lastSeen.Store(c.svc.Now().UnixNano()) }

func (c *Client) LastSeen() time.Time { return time.Unix(0, c.lastSeen.Load()) }

func (c *Client) catalogNeedsRefresh() bool {
	snap := c.svc.Catalog.Snapshot()
	if snap.FetchedAt.IsZero() || len(snap.Stale) > 0 {
		return true
	}
	return c.svc.Now().Sub(snap.FetchedAt) >= c.svc.BootRefreshAfter
}

// Boot starts a catalog refresh and the session lookup for token concurrently. The refresh
// is skipped when the current snapshot is complete and recent.
// Ready closes once the session lookup settles, whatever the catalog is doing.
func (c *Client) Boot(ctx context.Context, token string) {
	c.bootOnce.Do(func() {
		detached := context.WithoutCancel(ctx)
		if c.catalogNeedsRefresh() {
			go func() {
				if _, err := c.svc.Catalog.Refresh(detached, "boot"); err != nil && !errors.Is(err, catalog.ErrRefreshInProgress) {
					c.logger.Warn("boot catalog refresh incomplete", zap.Error(err))
				}
			}()
		}
		go func() {
			defer close(c.ready)
			sess := c.svc.Resolver.CurrentSession(detached, token)
			c.applySession(detached, sess)
			c.logger.Debug("client booted", zap.Bool("signed_in", sess != nil))
		}()
	})
}

// Ready is closed once the boot-time session resolution has settled.
func (c *Client) Ready() <-chan struct{} { return c.ready }

func (c *Client) User() *domain.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Token is the access token of the current session, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) View() domain.View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// SetView switches the current view. Admin views need an admin, account views need a user.
func (c *Client) SetView(v domain.View) error {
	if !v.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownView, v)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case v.IsAdmin() && !c.user.IsAdmin():
		return ErrForbidden
	case v.RequiresUser() && c.user == nil:
		return ErrLoginRequired
	}
	c.view = v
	return nil
}

func (c *Client) dbID() (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil || c.user.DBID == nil {
		return 0, false
	}
	return *c.user.DBID, true
}

// publish delivers an auth event and waits until it has been applied.
func (c *Client) publish(evt domain.AuthEvent) {
	c.bus.Publish(authTopic, evt)
	c.bus.WaitAsync()
}

func (c *Client) onAuthEvent(evt domain.AuthEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	c.logger.Debug("auth event", zap.String("type", string(evt.Type)), zap.Bool("session", evt.Session != nil))
	c.applySession(ctx, evt.Session)
}

// applySession resolves sess into a profile, or clears every user-bound piece of state
// when sess is nil.
func (c *Client) applySession(ctx context.Context, sess *domain.Session) {
	if sess == nil {
		c.mu.Lock()
		c.token = ""
		c.sess = nil
		c.user = nil
		c.wishlist = nil
		c.applied = nil
		if c.view.RequiresUser() {
			c.view = domain.ViewHome
		}
		c.mu.Unlock()
		return
	}

	user := c.svc.Resolver.Resolve(ctx, sess)
	c.mu.Lock()
	c.token = sess.AccessToken
	c.sess = sess
	c.user = user
	if c.view.IsAdmin() && !user.IsAdmin() {
		c.view = domain.ViewHome
	}
	c.mu.Unlock()

	if user.DBID != nil {
		if _, err := c.LoadWishlist(ctx); err != nil {
			c.logger.Warn("wishlist load failed", zap.Error(err))
		}
	}
}

func (c *Client) currentSession() *domain.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess
}

// Close stops event delivery for the client.
func (c *Client) Close() {
	c.bus.WaitAsync()
	if err := c.bus.Unsubscribe(authTopic, c.onAuthEvent); err != nil {
		c.logger.Debug("auth event unsubscribe failed", zap.Error(err))
	}
}
