// Package catalog keeps the shared in-memory view of categories, products and orders.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront-service/internal/domain"
)

var (
	// ErrRefreshInProgress is returned when a refresh is requested while one is running.
	// The request is dropped, not queued.
	ErrRefreshInProgress = errors.New("catalog: refresh already in progress")
	// ErrPartialSync means at least one slice failed and kept its previous contents.
	ErrPartialSync = errors.New("catalog: partial sync")
	// ErrSyncFailed means every slice failed; the previous snapshot is still served.
	ErrSyncFailed = errors.New("catalog: sync failed")
)

// Slice names one independently fetched part of the catalog.
type Slice string

const (
	SliceCategories Slice = "categories"
	SliceProducts   Slice = "products"
	SliceOrders     Slice = "orders"
)

const (
	stateIdle int32 = iota
	stateRunning
)

// Source is the subset of the gateway the synchronizer reads from.
type Source interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListProductsWithImages(ctx context.Context) ([]domain.Product, error)
	ListOrdersWithItems(ctx context.Context) ([]domain.Order, error)
}

// Snapshot is an immutable view of the catalog. Never modify a published snapshot.
type Snapshot struct {
	Categories []domain.Category `json:"categories"`
	Products   []domain.Product  `json:"products"`
	Orders     []domain.Order    `json:"orders"`
	FetchedAt  time.Time         `json:"fetched_at"`
	// Stale lists the slices carried over from an earlier snapshot because their fetch failed.
	Stale []Slice `json:"stale,omitempty"`
}

// Product returns the product with id from the snapshot.
func (s *Snapshot) Product(id int64) (domain.Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Order returns the order with id from the snapshot.
func (s *Snapshot) Order(id int64) (domain.Order, bool) {
	for _, o := range s.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

// ActiveProducts returns the products flagged active.
func (s *Snapshot) ActiveProducts() []domain.Product {
	out := make([]domain.Product, 0, len(s.Products))
	for _, p := range s.Products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out
}

// Synchronizer owns the catalog snapshot and refreshes it from a Source.
type Synchronizer struct {
	source Source
	cache  SnapshotCache
	logger *zap.Logger
	now    func() time.Time

	state    atomic.Int32
	current  atomic.Pointer[Snapshot]
	publishM sync.Mutex
	// patches holds confirmed status writes a refresh started before them cannot have seen.
	patches  map[int64]orderPatch
	patchSeq uint64

	listenersMu sync.RWMutex
	listeners   map[int]func(*Snapshot)
	nextID      int
}

type orderPatch struct {
	status domain.OrderStatus
	seq    uint64
}

type Option func(*Synchronizer)

func WithCache(cache SnapshotCache) Option {
	return func(s *Synchronizer) { s.cache = cache }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Synchronizer) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

func NewSynchronizer(source Source, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		source:    source,
		logger:    zap.NewNop(),
		now:       time.Now,
		listeners: make(map[int]func(*Snapshot)),
		patches:   make(map[int64]orderPatch),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&Snapshot{
		Categories: []domain.Category{},
		Products:   []domain.Product{},
		Orders:     []domain.Order{},
	})
	return s
}

// Snapshot returns the current snapshot. It is never nil.
func (s *Synchronizer) Snapshot() *Snapshot {
	return s.current.Load()
}

// Syncing reports whether a refresh is in flight.
func (s *Synchronizer) Syncing() bool {
	return s.state.Load() == stateRunning
}

// Subscribe registers fn to be called after every published snapshot.
// The returned func removes the subscription.
func (s *Synchronizer) Subscribe(fn func(*Snapshot)) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

// WarmStart seeds an empty synchronizer from the cache. It reports whether a snapshot was loaded.
// Derived product fields are recomputed against the current clock.
func (s *Synchronizer) WarmStart(ctx context.Context) bool {
	if s.cache == nil {
		return false
	}
	snap, err := s.cache.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("catalog warm start failed", zap.Error(err))
		}
		return false
	}

	fresh := *snap
	fresh.Products = EnrichProducts(snap.Products, snap.Categories, s.now())
	snap = &fresh

	s.publishM.Lock()
	cur := s.current.Load()
	loaded := cur.FetchedAt.IsZero()
	if loaded {
		s.current.Store(snap)
	}
	s.publishM.Unlock()

	if loaded {
		s.logger.Info("catalog seeded from cache",
			zap.Int("products", len(snap.Products)), zap.Time("fetched_at", snap.FetchedAt))
		s.notify(snap)
	}
	return loaded
}

type fetchResult struct {
	categories []domain.Category
	products   []domain.Product
	orders     []domain.Order
	errs       map[Slice]error
}

// Refresh fetches all three slices concurrently and publishes the merged snapshot.
// Each fetch settles on its own; a failed slice keeps its previous contents and is reported
// through ErrPartialSync or ErrSyncFailed. The returned snapshot is always usable.
func (s *Synchronizer) Refresh(ctx context.Context, reason string) (*Snapshot, error) {
	if !s.state.CompareAndSwap(stateIdle, stateRunning) {
		s.logger.Debug("catalog refresh dropped", zap.String("reason", reason))
		return s.Snapshot(), ErrRefreshInProgress
	}
	defer s.state.Store(stateIdle)

	start := s.now()
	s.publishM.Lock()
	seen := s.patchSeq
	s.publishM.Unlock()

	res := s.fetch(ctx)

	s.publishM.Lock()
	prev := s.current.Load()
	next := s.merge(prev, res, start, seen)
	s.current.Store(next)
	s.publishM.Unlock()

	s.notify(next)

	fields := []zap.Field{
		zap.String("reason", reason),
		zap.Int("categories", len(next.Categories)),
		zap.Int("products", len(next.Products)),
		zap.Int("orders", len(next.Orders)),
		zap.Duration("took", s.now().Sub(start)),
	}
	if len(res.errs) == 0 {
		s.logger.Info("catalog refreshed", fields...)
		s.storeCache(ctx, next)
		return next, nil
	}

	errs := make([]error, 0, len(res.errs))
	for _, slice := range []Slice{SliceCategories, SliceProducts, SliceOrders} {
		if err, ok := res.errs[slice]; ok {
			errs = append(errs, fmt.Errorf("%s: %w", slice, err))
		}
	}
	sentinel := ErrPartialSync
	if len(res.errs) == 3 {
		sentinel = ErrSyncFailed
	}
	err := fmt.Errorf("%w: %w", sentinel, errors.Join(errs...))
	s.logger.Warn("catalog refresh incomplete", append(fields, zap.Error(err))...)
	return next, err
}

func (s *Synchronizer) fetch(ctx context.Context) fetchResult {
	var (
		res fetchResult
		mu  sync.Mutex
	)
	res.errs = make(map[Slice]error)
	fail := func(slice Slice, err error) {
		mu.Lock()
		res.errs[slice] = err
		mu.Unlock()
	}

	// Every goroutine returns nil so one failure never cancels the others.
	var g errgroup.Group
	g.Go(func() error {
		categories, err := s.source.ListCategories(ctx)
		if err != nil {
			fail(SliceCategories, err)
			return nil
		}
		res.categories = categories
		return nil
	})
	g.Go(func() error {
		products, err := s.source.ListProductsWithImages(ctx)
		if err != nil {
			fail(SliceProducts, err)
			return nil
		}
		res.products = products
		return nil
	})
	g.Go(func() error {
		orders, err := s.source.ListOrdersWithItems(ctx)
		if err != nil {
			fail(SliceOrders, err)
			return nil
		}
		res.orders = orders
		return nil
	})
	_ = g.Wait()
	return res
}

// merge builds the next snapshot. Callers hold publishM. seen is the patch sequence at fetch start.
func (s *Synchronizer) merge(prev *Snapshot, res fetchResult, now time.Time, seen uint64) *Snapshot {
	next := &Snapshot{FetchedAt: now}

	if _, failed := res.errs[SliceCategories]; failed {
		next.Categories = prev.Categories
		next.Stale = append(next.Stale, SliceCategories)
	} else {
		next.Categories = nonNil(res.categories)
	}

	if _, failed := res.errs[SliceProducts]; failed {
		next.Products = prev.Products
		next.Stale = append(next.Stale, SliceProducts)
	} else {
		// A failed category fetch leaves the lookup empty for this run.
		var categories []domain.Category
		if _, catFailed := res.errs[SliceCategories]; !catFailed {
			categories = res.categories
		}
		next.Products = EnrichProducts(res.products, categories, now)
	}

	if _, failed := res.errs[SliceOrders]; failed {
		next.Orders = prev.Orders
		next.Stale = append(next.Stale, SliceOrders)
	} else {
		next.Orders = s.applyPatches(EnrichOrders(res.orders, next.Products), seen)
	}

	if len(res.errs) == 3 {
		next.FetchedAt = prev.FetchedAt
	}
	return next
}

// applyPatches overlays statuses written after the orders fetch began. Older patches are
// already reflected in the fetched rows and are dropped.
func (s *Synchronizer) applyPatches(orders []domain.Order, seen uint64) []domain.Order {
	for id, p := range s.patches {
		if p.seq <= seen {
			delete(s.patches, id)
		}
	}
	if len(s.patches) == 0 {
		return orders
	}
	for i := range orders {
		if p, ok := s.patches[orders[i].ID]; ok {
			orders[i].Status = p.status
		}
	}
	return orders
}

// SetOrderStatus patches the status of one order in the current snapshot after the
// status write has been confirmed. The patch also survives a refresh that was already
// fetching when it was made. It reports whether the order was in the current snapshot.
func (s *Synchronizer) SetOrderStatus(orderID int64, status domain.OrderStatus) bool {
	s.publishM.Lock()
	s.patchSeq++
	s.patches[orderID] = orderPatch{status: status, seq: s.patchSeq}
	prev := s.current.Load()
	idx := -1
	for i, o := range prev.Orders {
		if o.ID == orderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.publishM.Unlock()
		return false
	}
	next := *prev
	next.Orders = append([]domain.Order(nil), prev.Orders...)
	next.Orders[idx].Status = status
	s.current.Store(&next)
	s.publishM.Unlock()

	s.notify(&next)
	return true
}

// Schedule registers a periodic refresh on sched. Ticks that overlap a running refresh are dropped.
func (s *Synchronizer) Schedule(sched *cron.Cron, spec string, timeout time.Duration) (cron.EntryID, error) {
	return sched.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := s.Refresh(ctx, "schedule"); err != nil && !errors.Is(err, ErrRefreshInProgress) {
			s.logger.Warn("scheduled catalog refresh incomplete", zap.Error(err))
		}
	})
}

func (s *Synchronizer) storeCache(ctx context.Context, snap *Snapshot) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Store(ctx, snap); err != nil {
		s.logger.Warn("failed to cache catalog snapshot", zap.Error(err))
	}
}

func (s *Synchronizer) notify(snap *Snapshot) {
	s.listenersMu.RLock()
	fns := make([]func(*Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
