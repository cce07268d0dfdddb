package credentials_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-schooltracker-client/credentials"
	"github.com/jrsteele09/go-schooltracker-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func newTestStore() (*credentials.Store, *credentials.MemoryTier, *credentials.MemoryTier) {
	durable := credentials.NewMemoryTier()
	session := credentials.NewMemoryTier()
	return credentials.NewStore(durable, session), durable, session
}

func TestStore_PersistSelectsTier(t *testing.T) {
	t.Run("remember me writes durable tier", func(t *testing.T) {
		s, durable, session := newTestStore()
		require.NoError(t, s.Store(credentials.TokenPair{Access: "a1", Refresh: "r1"}, true))

		v, err := durable.Get(credentials.AccessTokenKey)
		require.NoError(t, err)
		require.Equal(t, "a1", v)
		_, err = session.Get(credentials.AccessTokenKey)
		require.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("session only writes session tier", func(t *testing.T) {
		s, durable, session := newTestStore()
		require.NoError(t, s.Store(credentials.TokenPair{Access: "a1", Refresh: "r1"}, false))

		v, err := session.Get(credentials.RefreshTokenKey)
		require.NoError(t, err)
		require.Equal(t, "r1", v)
		_, err = durable.Get(credentials.AccessTokenKey)
		require.ErrorIs(t, err, errors.ErrNotFound)
	})
}

func TestStore_ReadAccessPrefersDurable(t *testing.T) {
	s, durable, session := newTestStore()
	require.Equal(t, "", s.ReadAccess())
	require.False(t, s.Authenticated())

	require.NoError(t, session.Set(credentials.AccessTokenKey, "session-token"))
	require.Equal(t, "session-token", s.ReadAccess())

	require.NoError(t, durable.Set(credentials.AccessTokenKey, "durable-token"))
	require.Equal(t, "durable-token", s.ReadAccess())
	require.True(t, s.Authenticated())
}

func TestStore_StoreRemovesPairFromOtherTier(t *testing.T) {
	s, _, _ := newTestStore()
	require.NoError(t, s.Store(credentials.TokenPair{Access: "old", Refresh: "old-r"}, true))
	require.NoError(t, s.Store(credentials.TokenPair{Access: "new", Refresh: "new-r"}, false))

	pair, ok := s.Read()
	require.True(t, ok)
	require.Equal(t, credentials.TokenPair{Access: "new", Refresh: "new-r"}, pair)
}

func TestStore_ReplaceKeepsTier(t *testing.T) {
	s, durable, session := newTestStore()
	require.NoError(t, s.Store(credentials.TokenPair{Access: "a1", Refresh: "r1"}, true))
	require.NoError(t, s.Replace(credentials.TokenPair{Access: "a2", Refresh: "r2"}))

	v, err := durable.Get(credentials.AccessTokenKey)
	require.NoError(t, err)
	require.Equal(t, "a2", v)
	_, err = session.Get(credentials.AccessTokenKey)
	require.ErrorIs(t, err, errors.ErrNotFound)

	s2, durable2, session2 := newTestStore()
	require.NoError(t, s2.Store(credentials.TokenPair{Access: "a1", Refresh: "r1"}, false))
	require.NoError(t, s2.Replace(credentials.TokenPair{Access: "a2", Refresh: "r2"}))
	v, err = session2.Get(credentials.AccessTokenKey)
	require.NoError(t, err)
	require.Equal(t, "a2", v)
	_, err = durable2.Get(credentials.AccessTokenKey)
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestStore_Clear(t *testing.T) {
	s, durable, session := newTestStore()
	require.NoError(t, durable.Set(credentials.AccessTokenKey, "a"))
	require.NoError(t, session.Set(credentials.RefreshTokenKey, "r"))

	require.NoError(t, s.Clear())
	require.Equal(t, "", s.ReadAccess())
	require.Equal(t, "", s.ReadRefresh())

	// clearing an empty store is not an error
	require.NoError(t, s.Clear())
}

func TestTokenPair_OAuth2(t *testing.T) {
	tok := credentials.TokenPair{Access: "a", Refresh: "r"}.OAuth2()
	require.Equal(t, "a", tok.AccessToken)
	require.Equal(t, "r", tok.RefreshToken)
	require.Equal(t, "Bearer", tok.Type())
}

// slowTier widens the gap between the two writes of a pair.
type slowTier struct {
	*credentials.MemoryTier
}

func (s slowTier) Set(key, value string) error {
	time.Sleep(time.Millisecond)
	return s.MemoryTier.Set(key, value)
}

func TestStore_ReadNeverSeesHalfAReplace(t *testing.T) {
	s := credentials.NewStore(slowTier{credentials.NewMemoryTier()}, credentials.NewMemoryTier())
	require.NoError(t, s.Store(credentials.TokenPair{Access: "access-0", Refresh: "refresh-0"}, true))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 20; i++ {
			pair := credentials.TokenPair{Access: fmt.Sprintf("access-%d", i), Refresh: fmt.Sprintf("refresh-%d", i)}
			if err := s.Replace(pair); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		select {
		case <-done:
			pair, _ := s.Read()
			require.Equal(t, credentials.TokenPair{Access: "access-20", Refresh: "refresh-20"}, pair)
			return
		default:
		}
		pair, ok := s.Read()
		require.True(t, ok)
		require.Equal(t, strings.TrimPrefix(pair.Access, "access-"), strings.TrimPrefix(pair.Refresh, "refresh-"))
	}
}
