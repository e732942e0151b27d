package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
	"storefront-service/internal/store/storetest"
)

func PtrTo[T any](v T) *T {
	return &v
}

func testSession() *domain.Session {
	return &domain.Session{
		AccessToken: "tok",
		User: domain.AuthUser{
			ID:       "auth-1",
			Email:    "amina@example.com",
			Metadata: domain.UserMetadata{FullName: "Amina B"},
		},
	}
}

func TestResolve_MergesProfileRow(t *testing.T) {
	gw := new(storetest.MockGateway)
	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	gw.On("GetUserByEmail", mock.Anything, "amina@example.com").Return(&domain.UserRecord{
		ID: 42, Name: "Amina Benali", Email: "amina@example.com", Role: PtrTo("admin"),
		Phone: PtrTo("0551234567"), CreatedAt: created,
	}, nil)

	u := NewResolver(gw, nil, time.Second, nil).Resolve(context.Background(), testSession())

	require.NotNil(t, u)
	assert.Equal(t, "auth-1", u.ID)
	require.NotNil(t, u.DBID)
	assert.Equal(t, int64(42), *u.DBID)
	assert.Equal(t, "Amina Benali", u.Name)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.Equal(t, "0551234567", *u.Phone)
}

func TestResolve_DefaultsRoleToCustomer(t *testing.T) {
	gw := new(storetest.MockGateway)
	gw.On("GetUserByEmail", mock.Anything, mock.Anything).Return(&domain.UserRecord{ID: 1, Name: "A"}, nil)

	u := NewResolver(gw, nil, time.Second, nil).Resolve(context.Background(), testSession())

	assert.Equal(t, domain.RoleCustomer, u.Role)
}

func TestResolve_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "no row", err: store.ErrUserNotFound},
		{name: "lookup error", err: errors.New("connection reset")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := new(storetest.MockGateway)
			gw.On("GetUserByEmail", mock.Anything, mock.Anything).Return(nil, tt.err)

			u := NewResolver(gw, nil, time.Second, nil).Resolve(context.Background(), testSession())

			require.NotNil(t, u)
			assert.Nil(t, u.DBID)
			assert.Equal(t, "Amina B", u.Name)
			assert.Equal(t, "amina@example.com", u.Email)
			assert.Equal(t, domain.RoleCustomer, u.Role)
		})
	}
}

func TestResolve_TimeoutFallsBackAndIgnoresLateResult(t *testing.T) {
	gw := new(storetest.MockGateway)
	release := make(chan struct{})
	finished := make(chan struct{})
	gw.On("GetUserByEmail", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		<-release
		close(finished)
	}).Return(&domain.UserRecord{ID: 9, Name: "Late"}, nil)

	start := time.Now()
	u := NewResolver(gw, nil, 50*time.Millisecond, nil).Resolve(context.Background(), testSession())

	assert.Less(t, time.Since(start), time.Second)
	assert.Nil(t, u.DBID)
	assert.Equal(t, "Amina B", u.Name)

	close(release)
	<-finished
	assert.Equal(t, "Amina B", u.Name, "Late result must not touch the returned profile")
}

func TestResolve_FallbackNameAndMetadataRole(t *testing.T) {
	sess := testSession()
	sess.User.Metadata = domain.UserMetadata{Role: "admin"}

	u := Fallback(sess)

	assert.Equal(t, "User", u.Name)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

func TestResolve_CoalescesConcurrentCalls(t *testing.T) {
	gw := new(storetest.MockGateway)
	var calls atomic.Int32
	release := make(chan struct{})
	gw.On("GetUserByEmail", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		calls.Add(1)
		<-release
	}).Return(&domain.UserRecord{ID: 7, Name: "Amina"}, nil)

	r := NewResolver(gw, nil, time.Second, nil)

	var wg sync.WaitGroup
	results := make([]*domain.User, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Resolve(context.Background(), testSession())
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, u := range results {
		require.NotNil(t, u.DBID)
		assert.Equal(t, int64(7), *u.DBID)
	}
	assert.NotSame(t, results[0], results[1], "Callers get independent copies")
}

func TestResolve_NilSession(t *testing.T) {
	assert.Nil(t, NewResolver(new(storetest.MockGateway), nil, time.Second, nil).Resolve(context.Background(), nil))
}

type stubSessions struct {
	sess  *domain.Session
	err   error
	delay time.Duration
}

func (s stubSessions) CurrentSession(ctx context.Context, token string) (*domain.Session, error) {
	time.Sleep(s.delay)
	return s.sess, s.err
}

func TestCurrentSession(t *testing.T) {
	sess := testSession()

	r := NewResolver(nil, stubSessions{sess: sess}, time.Second, nil)
	assert.Same(t, sess, r.CurrentSession(context.Background(), "tok"))
	assert.Nil(t, r.CurrentSession(context.Background(), ""))

	r = NewResolver(nil, stubSessions{err: errors.New("expired")}, time.Second, nil)
	assert.Nil(t, r.CurrentSession(context.Background(), "tok"))

	r = NewResolver(nil, stubSessions{sess: sess, delay: 200 * time.Millisecond}, 20*time.Millisecond, nil)
	assert.Nil(t, r.CurrentSession(context.Background(), "tok"))
}
