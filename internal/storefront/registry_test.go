package storefront

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/session"
	"storefront-service/internal/store/storetest"
)

func newTestRegistry(t *testing.T) (*Registry, *fakeCatalog) {
	t.Helper()
	gw := new(storetest.MockGateway)
	auth := &fakeAuth{}
	cat := &fakeCatalog{snap: testSnapshot()}
	reg := NewRegistry(Services{
		Store:    gw,
		Auth:     auth,
		Resolver: session.NewResolver(gw, auth, time.Second, nil),
		Catalog:  cat,
	}, NewCookieStore("0123456789abcdef0123456789abcdef", false), time.Hour)
	return reg, cat
}

func TestRegistry_CookieBindsClient(t *testing.T) {
	reg, _ := newTestRegistry(t)

	rec := httptest.NewRecorder()
	first, err := reg.Client(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	second, err := reg.Client(httptest.NewRecorder(), req)

	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, reg.Len())

	select {
	case <-first.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("client never became ready")
	}
}

func TestRegistry_ForeignCookieStartsFresh(t *testing.T) {
	reg, _ := newTestRegistry(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "tampered"})

	c, err := reg.Client(httptest.NewRecorder(), req)

	require.NoError(t, err)
	assert.NotEmpty(t, c.ID())
}

func TestRegistry_EvictIdleClients(t *testing.T) {
	reg, _ := newTestRegistry(t)
	for i := 0; i < 3; i++ {
		_, err := reg.Client(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
	}
	require.Equal(t, 3, reg.Len())

	assert.Equal(t, 0, reg.Evict(time.Now()))
	assert.Equal(t, 3, reg.Evict(time.Now().Add(2*time.Hour)))
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_Schedule(t *testing.T) {
	reg, _ := newTestRegistry(t)
	sched := cron.New()

	_, err := reg.Schedule(sched, "@every 5m")
	assert.NoError(t, err)
	assert.Len(t, sched.Entries(), 1)

	_, err = reg.Schedule(sched, "not a spec")
	assert.Error(t, err)
}
