package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/domain"
	"storefront-service/internal/store/storetest"
)

var syncNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func PtrTo[T any](v T) *T {
	return &v
}

func sampleCategories() []domain.Category {
	return []domain.Category{{ID: 1, Name: "Audio", Slug: "audio"}}
}

func sampleProducts() []domain.Product {
	return []domain.Product{
		{
			ID: 2, Name: "Speaker", Price: 80, CategoryID: PtrTo(int64(1)), StockQuantity: 4, IsActive: true,
			CreatedAt:     syncNow.Add(-24 * time.Hour),
			ProductImages: []domain.ProductImage{{ImageURL: "a.png"}, {ImageURL: "b.png", IsPrimary: true}},
		},
		{
			ID: 1, Name: "Cable", Price: 5, CategoryID: PtrTo(int64(9)), StockQuantity: 0, IsActive: true,
			CreatedAt: syncNow.Add(-60 * 24 * time.Hour),
		},
	}
}

func sampleOrders() []domain.Order {
	return []domain.Order{{
		ID: 10, UserID: 3, Status: domain.OrderStatusPending, CreatedAt: syncNow,
		Items: []domain.OrderItem{{ProductID: 2, Quantity: 1}, {ProductID: 77, Quantity: 2}},
	}}
}

func newTestSynchronizer(gw *storetest.MockGateway, opts ...Option) *Synchronizer {
	opts = append([]Option{WithClock(func() time.Time { return syncNow })}, opts...)
	return NewSynchronizer(gw, opts...)
}

func TestRefresh_EnrichesEverySlice(t *testing.T) {
	gw := new(storetest.MockGateway)
	gw.On("ListCategories", mock.Anything).Return(sampleCategories(), nil)
	gw.On("ListProductsWithImages", mock.Anything).Return(sampleProducts(), nil)
	gw.On("ListOrdersWithItems", mock.Anything).Return(sampleOrders(), nil)

	s := newTestSynchronizer(gw)
	snap, err := s.Refresh(context.Background(), "test")

	require.NoError(t, err)
	require.Len(t, snap.Products, 2)

	speaker := snap.Products[0]
	assert.Equal(t, "Audio", speaker.Category)
	assert.Equal(t, "b.png", speaker.Image)
	assert.Equal(t, []string{"a.png", "b.png"}, speaker.Images)
	assert.Equal(t, domain.StockStatusLowStock, speaker.StockStatus)
	assert.True(t, speaker.IsNew)

	cable := snap.Products[1]
	assert.Equal(t, domain.UncategorizedLabel, cable.Category, "Unknown category falls back")
	assert.Equal(t, "", cable.Image)
	assert.Equal(t, []string{}, cable.Images)
	assert.Equal(t, domain.StockStatusOutOfStock, cable.StockStatus)
	assert.False(t, cable.IsNew)

	require.Len(t, snap.Orders, 1)
	assert.Equal(t, domain.FormatOrderDate(syncNow), snap.Orders[0].Date)
	assert.Equal(t, "b.png", snap.Orders[0].Items[0].Image)
	assert.Equal(t, "", snap.Orders[0].Items[1].Image, "Deleted product has no image")
	assert.Empty(t, snap.Stale)
	assert.Same(t, snap, s.Snapshot())
}

func TestRefresh_PartialFailureKeepsPreviousSlice(t *testing.T) {
	gw := new(storetest.MockGateway)
	gw.On("ListCategories", mock.Anything).Return(sampleCategories(), nil)
	gw.On("ListProductsWithImages", mock.Anything).Return(sampleProducts(), nil).Once()
	gw.On("ListOrdersWithItems", mock.Anything).Return(sampleOrders(), nil)

	s := newTestSynchronizer(gw)
	first, err := s.Refresh(context.Background(), "boot")
	require.NoError(t, err)

	fetchErr := errors.New("products timed out")
	gw.On("ListProductsWithImages", mock.Anything).Return(nil, fetchErr).Once()

	second, err := s.Refresh(context.Background(), "again")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPartialSync)
	assert.ErrorIs(t, err, fetchErr)
	assert.NotErrorIs(t, err, ErrSyncFailed)
	assert.Equal(t, first.Products, second.Products, "Failed slice keeps prior contents")
	assert.Equal(t, []Slice{SliceProducts}, second.Stale)
	assert.Equal(t, "b.png", second.Orders[0].Items[0].Image, "Orders enrich against retained products")
}

func TestRefresh_CategoryFailureUsesEmptyLookup(t *testing.T) {
	gw := new(storetest.MockGateway)
	gw.On("ListCategories", mock.Anything).Return(nil, errors.New("boom"))
	gw.On("ListProductsWithImages", mock.Anything).Return(sampleProducts(), nil)
	gw.On("ListOrdersWithItems", mock.Anything).Return(sampleOrders(), nil)

	snap, err := newTestSynchronizer(gw).Refresh(context.Background(), "test")

	assert.ErrorIs(t, err, ErrPartialSync)
	for _, p := range snap.Products {
		assert.Equal(t, domain.UncategorizedLabel, p.Category)
	}
}

func TestRefresh_TotalFailureKeepsSnapshot(t *testing.T) {
	gw := new(storetest.MockGateway)
	gw.On("ListCategories", mock.Anything).Return(sampleCategories(), nil).Once()
	gw.On("ListProductsWithImages", mock.Anything).Return(sampleProducts(), nil).Once()
	gw.On("ListOrdersWithItems", mock.Anything).Return(sampleOrders(), nil).Once()

	s := newTestSynchronizer(gw)
	first, err := s.Refresh(context.Background(), "boot")
	require.NoError(t, err)

	gw.On("ListCategories", mock.Anything).Return(nil, errors.New("down"))
	gw.On("ListProductsWithImages", mock.Anything).Return(nil, errors.New("down"))
	gw.On("ListOrdersWithItems", mock.Anything).Return(nil, errors.New("down"))

	second, err := s.Refresh(context.Background(), "again")

	assert.ErrorIs(t, err, ErrSyncFailed)
	assert.Equal(t, first.Categories, second.Categories)
	assert.Equal(t, first.Products, second.Products)
	assert.Equal(t, first.Orders, second.Orders)
	assert.Equal(t, first.FetchedAt, second.FetchedAt)
	assert.Len(t, second.Stale, 3)
}

func TestRefresh_DropsOverlappingRequest(t *testing.T) {
	gw := new(storetest.MockGateway)
	release := make(chan struct{})
	entered := make(chan struct{})
	gw.On("ListCategories", mock.Anything).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(sampleCategories(), nil).Once()
	gw.On("ListProductsWithImages", mock.Anything).Return(sampleProducts(), nil).Once()
	gw.On("ListOrdersWithItems", mock.Anything).Return(sampleOrders(), nil).Once()

	s := newTestSynchronizer(gw)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Refresh(context.Background(), "first")
		assert.NoError(t, err)
	}()

	<-entered
	assert.True(t, s.Syncing())
	_, err := s.Refresh(context.Background(), "second")
	assert.ErrorIs(t, err, ErrRefreshInProgress)

	close(release)
	wg.Wait()
	assert.False(t, s.Syncing())
	gw.AssertNumberOfCalls(t, "ListCategories", 1)
}

func TestSubscribeAndSetOrderStatus(t *testing.T) {
	gw := new(storetest.MockGateway)
	gw.On("ListCategories", mock.Anything).Return(sampleCategories(), nil)
	gw.On("ListProductsWithImages", mock.Anything).Return(sampleProducts(), nil)
	gw.On("ListOrdersWithItems", mock.Anything).Return(sampleOrders(), nil)

	s := newTestSynchronizer(gw)
	var seen []*Snapshot
	unsubscribe := s.Subscribe(func(snap *Snapshot) { seen = append(seen, snap) })

	before, err := s.Refresh(context.Background(), "test")
	require.NoError(t, err)

	assert.True(t, s.SetOrderStatus(10, domain.OrderStatusCancelled))
	assert.False(t, s.SetOrderStatus(999, domain.OrderStatusCancelled))

	after := s.Snapshot()
	o, ok := after.Order(10)
	require.True(t, ok)
	assert.Equal(t, domain.OrderStatusCancelled, o.Status)
	assert.Equal(t, domain.OrderStatusPending, before.Orders[0].Status, "Published snapshots are never mutated")
	require.Len(t, seen, 2)

	unsubscribe()
	s.SetOrderStatus(10, domain.OrderStatusPending)
	assert.Len(t, seen, 2)
}

type memoryCache struct {
	snap   *Snapshot
	stored int
}

func (m *memoryCache) Load(context.Context) (*Snapshot, error) {
	if m.snap == nil {
		return nil, ErrCacheMiss
	}
	return m.snap, nil
}

func (m *memoryCache) Store(_ context.Context, snap *Snapshot) error {
	m.snap = snap
	m.stored++
	return nil
}

func TestWarmStartAndCacheStore(t *testing.T) {
	cached := &Snapshot{
		Products:  []domain.Product{{ID: 5, Name: "Cached", IsActive: true}},
		FetchedAt: syncNow.Add(-time.Hour),
	}
	cache := &memoryCache{snap: cached}

	gw := new(storetest.MockGateway)
	s := newTestSynchronizer(gw, WithCache(cache))

	require.True(t, s.WarmStart(context.Background()))
	assert.Equal(t, "Cached", s.Snapshot().Products[0].Name)
	assert.False(t, s.WarmStart(context.Background()), "A seeded synchronizer is not overwritten")

	gw.On("ListCategories", mock.Anything).Return(sampleCategories(), nil)
	gw.On("ListProductsWithImages", mock.Anything).Return(sampleProducts(), nil)
	gw.On("ListOrdersWithItems", mock.Anything).Return(sampleOrders(), nil)

	_, err := s.Refresh(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.stored)
	assert.Equal(t, "Speaker", cache.snap.Products[0].Name)
}

func TestWarmStart_RecomputesDerivedFields(t *testing.T) {
	cached := &Snapshot{
		Categories: sampleCategories(),
		Products: []domain.Product{{
			ID: 5, Name: "Cached", CategoryID: PtrTo(int64(1)), StockQuantity: 0, IsActive: true,
			CreatedAt:   syncNow.Add(-60 * 24 * time.Hour),
			IsNew:       true,
			StockStatus: domain.StockStatusInStock,
		}},
		FetchedAt: syncNow.Add(-20 * time.Hour),
	}
	s := newTestSynchronizer(new(storetest.MockGateway), WithCache(&memoryCache{snap: cached}))

	require.True(t, s.WarmStart(context.Background()))

	p := s.Snapshot().Products[0]
	assert.False(t, p.IsNew)
	assert.Equal(t, domain.StockStatusOutOfStock, p.StockStatus)
	assert.Equal(t, "Audio", p.Category)
	assert.True(t, cached.Products[0].IsNew, "The cached snapshot is left as loaded")
	assert.Equal(t, cached.FetchedAt, s.Snapshot().FetchedAt)
}

func TestRefresh_KeepsStatusWrittenDuringFetch(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	gw := new(storetest.MockGateway)
	gw.On("ListCategories", mock.Anything).Return(sampleCategories(), nil)
	gw.On("ListProductsWithImages", mock.Anything).Return(sampleProducts(), nil)
	gw.On("ListOrdersWithItems", mock.Anything).Return(sampleOrders(), nil).Once()
	// The second fetch reads the order before the cancellation is written.
	gw.On("ListOrdersWithItems", mock.Anything).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(sampleOrders(), nil).Once()
	gw.On("ListOrdersWithItems", mock.Anything).Return(sampleOrders(), nil).Once()

	s := newTestSynchronizer(gw)
	_, err := s.Refresh(context.Background(), "boot")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Refresh(context.Background(), "schedule")
		done <- err
	}()
	<-entered

	require.True(t, s.SetOrderStatus(10, domain.OrderStatusCancelled))
	_, err = s.Refresh(context.Background(), "order-status")
	assert.ErrorIs(t, err, ErrRefreshInProgress)

	close(release)
	require.NoError(t, <-done)

	o, ok := s.Snapshot().Order(10)
	require.True(t, ok)
	assert.Equal(t, domain.OrderStatusCancelled, o.Status, "An in-flight refresh must not revert a confirmed write")

	// A refresh started after the write trusts the store again.
	_, err = s.Refresh(context.Background(), "schedule")
	require.NoError(t, err)
	o, _ = s.Snapshot().Order(10)
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	gw.AssertExpectations(t)
}

func TestWarmStart_Miss(t *testing.T) {
	s := newTestSynchronizer(new(storetest.MockGateway), WithCache(&memoryCache{}))
	assert.False(t, s.WarmStart(context.Background()))
	assert.Empty(t, s.Snapshot().Products)
}
