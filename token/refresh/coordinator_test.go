package refresh_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-schooltracker-client/credentials"
	"github.com/jrsteele09/go-schooltracker-client/internal/errors"
	"github.com/jrsteele09/go-schooltracker-client/sessions"
	"github.com/jrsteele09/go-schooltracker-client/token/refresh"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, refreshToken string) (credentials.TokenPair, error)
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (credentials.TokenPair, error) {
	f.mu.Lock()
	f.calls = append(f.calls, refreshToken)
	f.mu.Unlock()
	return f.fn(ctx, refreshToken)
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type signalRecorder struct {
	mu      sync.Mutex
	signals []sessions.Signal
}

func (r *signalRecorder) Publish(sig sessions.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, sig)
}

func (r *signalRecorder) all() []sessions.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sessions.Signal(nil), r.signals...)
}

type testFixture struct {
	store     *credentials.Store
	durable   *credentials.MemoryTier
	refresher *fakeRefresher
	signals   *signalRecorder
	c         *refresh.Coordinator
}

func setupTestFixture(t *testing.T, fn func(ctx context.Context, refreshToken string) (credentials.TokenPair, error)) *testFixture {
	t.Helper()

	durable := credentials.NewMemoryTier()
	store := credentials.NewStore(durable, credentials.NewMemoryTier())
	require.NoError(t, store.Store(credentials.TokenPair{Access: "old-access", Refresh: "refresh-1"}, true))

	f := &testFixture{
		store:     store,
		durable:   durable,
		refresher: &fakeRefresher{fn: fn},
		signals:   &signalRecorder{},
	}
	f.c = refresh.NewCoordinator(store, f.refresher, f.signals)
	return f
}

func succeedWith(pair credentials.TokenPair) func(context.Context, string) (credentials.TokenPair, error) {
	return func(context.Context, string) (credentials.TokenPair, error) { return pair, nil }
}

func TestCoordinator_RefreshPersistsNewPair(t *testing.T) {
	f := setupTestFixture(t, succeedWith(credentials.TokenPair{Access: "new-access", Refresh: "refresh-2"}))

	pair, err := f.c.Refresh(context.Background(), "old-access")
	require.NoError(t, err)
	require.Equal(t, "new-access", pair.Access)
	require.Equal(t, []string{"refresh-1"}, f.refresher.calls)

	// written back to the durable tier the pair came from
	v, err := f.durable.Get(credentials.AccessTokenKey)
	require.NoError(t, err)
	require.Equal(t, "new-access", v)
	require.Equal(t, "refresh-2", f.store.ReadRefresh())
	require.False(t, f.c.Refreshing())
	require.Empty(t, f.signals.all())
}

func TestCoordinator_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	f := setupTestFixture(t, succeedWith(credentials.TokenPair{Access: "new-access"}))

	pair, err := f.c.Refresh(context.Background(), "old-access")
	require.NoError(t, err)
	require.Equal(t, "refresh-1", pair.Refresh)
	require.Equal(t, "refresh-1", f.store.ReadRefresh())
}

func TestCoordinator_SupersededTokenSkipsRefresh(t *testing.T) {
	f := setupTestFixture(t, succeedWith(credentials.TokenPair{Access: "never"}))
	require.NoError(t, f.store.Replace(credentials.TokenPair{Access: "newer-access", Refresh: "refresh-2"}))

	pair, err := f.c.Refresh(context.Background(), "old-access")
	require.NoError(t, err)
	require.Equal(t, "newer-access", pair.Access)
	require.Equal(t, int64(0), f.c.Attempts())
	require.Equal(t, 0, f.refresher.callCount())
}

func TestCoordinator_SingleFlight(t *testing.T) {
	const callers = 20
	release := make(chan struct{})

	f := setupTestFixture(t, func(ctx context.Context, _ string) (credentials.TokenPair, error) {
		<-release
		return credentials.TokenPair{Access: "new-access", Refresh: "refresh-2"}, nil
	})

	var wg sync.WaitGroup
	results := make([]credentials.TokenPair, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.c.Refresh(context.Background(), "old-access")
		}(i)
	}

	require.Eventually(t, func() bool { return f.c.Waiting() == callers }, time.Second, time.Millisecond)
	require.True(t, f.c.Refreshing())
	close(release)
	wg.Wait()

	require.Equal(t, 1, f.refresher.callCount())
	require.Equal(t, int64(1), f.c.Attempts())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "new-access", results[i].Access)
	}
	require.False(t, f.c.Refreshing())
	require.Equal(t, 0, f.c.Waiting())
}

func TestCoordinator_FailureFansOutToAllWaiters(t *testing.T) {
	const callers = 10
	cause := errors.ErrTransport
	release := make(chan struct{})

	f := setupTestFixture(t, func(context.Context, string) (credentials.TokenPair, error) {
		<-release
		return credentials.TokenPair{}, cause
	})

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.c.Refresh(context.Background(), "old-access")
		}(i)
	}

	require.Eventually(t, func() bool { return f.c.Waiting() == callers }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, 1, f.refresher.callCount())
	for _, err := range errs {
		require.ErrorIs(t, err, errors.ErrRefreshFailed)
		require.ErrorIs(t, err, cause)
	}

	signals := f.signals.all()
	require.Len(t, signals, 1)
	require.Equal(t, sessions.AuthFailed, signals[0].Type)
	require.Equal(t, "Failed to refresh token", signals[0].Message)

	// the stale pair is left for the caller's sign-out handling
	require.Equal(t, "old-access", f.store.ReadAccess())
	require.False(t, f.c.Refreshing())
}

func TestCoordinator_NoRefreshToken(t *testing.T) {
	f := setupTestFixture(t, succeedWith(credentials.TokenPair{Access: "never"}))
	require.NoError(t, f.store.Store(credentials.TokenPair{Access: "old-access"}, false))

	_, err := f.c.Refresh(context.Background(), "old-access")
	require.ErrorIs(t, err, errors.ErrRefreshFailed)
	require.ErrorIs(t, err, errors.ErrNoRefreshToken)
	require.Equal(t, 0, f.refresher.callCount())

	signals := f.signals.all()
	require.Len(t, signals, 1)
	require.Equal(t, "No refresh token available", signals[0].Message)
}

func TestCoordinator_RefresherPanicReleasesWaiters(t *testing.T) {
	f := setupTestFixture(t, func(context.Context, string) (credentials.TokenPair, error) {
		panic("boom")
	})

	_, err := f.c.Refresh(context.Background(), "old-access")
	require.ErrorIs(t, err, errors.ErrRefreshFailed)
	require.Contains(t, err.Error(), "boom")
	require.False(t, f.c.Refreshing())

	// the coordinator is usable again afterwards
	f.refresher.fn = succeedWith(credentials.TokenPair{Access: "new-access", Refresh: "refresh-2"})
	pair, err := f.c.Refresh(context.Background(), "old-access")
	require.NoError(t, err)
	require.Equal(t, "new-access", pair.Access)
}

func TestCoordinator_CancelledWaiterDoesNotCancelRefresh(t *testing.T) {
	release := make(chan struct{})
	f := setupTestFixture(t, func(ctx context.Context, _ string) (credentials.TokenPair, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return credentials.TokenPair{}, ctx.Err()
		}
		return credentials.TokenPair{Access: "new-access", Refresh: "refresh-2"}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.c.Refresh(ctx, "old-access")
		done <- err
	}()

	var wg sync.WaitGroup
	var pair credentials.TokenPair
	var err error
	require.Eventually(t, func() bool { return f.c.Waiting() == 1 }, time.Second, time.Millisecond)
	wg.Add(1)
	go func() {
		defer wg.Done()
		pair, err = f.c.Refresh(context.Background(), "old-access")
	}()
	require.Eventually(t, func() bool { return f.c.Waiting() == 2 }, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(release)
	wg.Wait()
	require.NoError(t, err)
	require.Equal(t, "new-access", pair.Access)
	require.Equal(t, 1, f.refresher.callCount())
}
