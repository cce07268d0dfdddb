package credentials_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-schooltracker-client/credentials"
	"github.com/jrsteele09/go-schooltracker-client/internal/errors"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringTier(t *testing.T) {
	keyring.MockInit()
	tier := credentials.NewKeyringTier("schooltracker-test")

	_, err := tier.Get(credentials.AccessTokenKey)
	require.ErrorIs(t, err, errors.ErrNotFound)

	require.NoError(t, tier.Set(credentials.AccessTokenKey, "a1"))
	v, err := tier.Get(credentials.AccessTokenKey)
	require.NoError(t, err)
	require.Equal(t, "a1", v)

	require.NoError(t, tier.Delete(credentials.AccessTokenKey))
	require.ErrorIs(t, tier.Delete(credentials.AccessTokenKey), errors.ErrNotFound)
}

func TestFileTier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds", "tokens.enc")

	t.Run("passphrase required", func(t *testing.T) {
		_, err := credentials.NewFileTier(path, "")
		require.Error(t, err)
	})

	t.Run("round trip", func(t *testing.T) {
		tier, err := credentials.NewFileTier(path, "correct horse")
		require.NoError(t, err)

		require.NoError(t, tier.Set(credentials.AccessTokenKey, "a1"))
		require.NoError(t, tier.Set(credentials.RefreshTokenKey, "r1"))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NotContains(t, string(raw), "a1")

		reopened, err := credentials.NewFileTier(path, "correct horse")
		require.NoError(t, err)
		v, err := reopened.Get(credentials.RefreshTokenKey)
		require.NoError(t, err)
		require.Equal(t, "r1", v)
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		tier, err := credentials.NewFileTier(path, "battery staple")
		require.NoError(t, err)
		_, err = tier.Get(credentials.AccessTokenKey)
		require.Error(t, err)
		require.Contains(t, err.Error(), "cannot decrypt")
	})

	t.Run("delete last key removes file", func(t *testing.T) {
		tier, err := credentials.NewFileTier(path, "correct horse")
		require.NoError(t, err)
		require.NoError(t, tier.Delete(credentials.AccessTokenKey))
		require.NoError(t, tier.Delete(credentials.RefreshTokenKey))

		_, err = os.Stat(path)
		require.True(t, os.IsNotExist(err))
		_, err = tier.Get(credentials.AccessTokenKey)
		require.ErrorIs(t, err, errors.ErrNotFound)
	})
}

func TestFileTier_DerivesKeyOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.enc")
	tier, err := credentials.NewFileTier(path, "correct horse")
	require.NoError(t, err)

	require.NoError(t, tier.Set(credentials.AccessTokenKey, "a1"))
	require.NoError(t, tier.Set(credentials.RefreshTokenKey, "r1"))
	for range 5 {
		v, err := tier.Get(credentials.AccessTokenKey)
		require.NoError(t, err)
		require.Equal(t, "a1", v)
	}
	require.Equal(t, 1, tier.Derivations())

	// another process sharing the file derives its own key once
	reader, err := credentials.NewFileTier(path, "correct horse")
	require.NoError(t, err)
	for range 3 {
		v, err := reader.Get(credentials.RefreshTokenKey)
		require.NoError(t, err)
		require.Equal(t, "r1", v)
	}
	require.Equal(t, 1, reader.Derivations())

	// a wrong passphrase never reuses a key derived from the right one
	wrong, err := credentials.NewFileTier(path, "battery staple")
	require.NoError(t, err)
	_, err = wrong.Get(credentials.AccessTokenKey)
	require.Error(t, err)
}
