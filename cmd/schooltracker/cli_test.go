package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-schooltracker-client/credentials"
	"github.com/jrsteele09/go-schooltracker-client/internal/config"
	"github.com/jrsteele09/go-schooltracker-client/syncstore"
)

func TestPrinter(t *testing.T) {
	v := map[string]any{"id": 1, "program_name": "Physics"}

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, newPrinter(&buf, outputYAML).print(v))
		require.Equal(t, "id: 1\nprogram_name: Physics\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, newPrinter(&buf, outputJSON).print(v))
		require.JSONEq(t, `{"id":1,"program_name":"Physics"}`, buf.String())
	})

	t.Run("unknown format", func(t *testing.T) {
		require.Error(t, newPrinter(&bytes.Buffer{}, "xml").print(v))
	})
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	require.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := parseID(bad)
		require.EqualError(t, err, "id must be a positive integer", bad)
	}
}

func TestDateRange(t *testing.T) {
	start, end, err := dateRange("2026-01-01", "")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), start)
	require.True(t, end.After(start))

	_, _, err = dateRange("", "01/02/2026")
	require.EqualError(t, err, "--to must be YYYY-MM-DD")
}

func TestMutationOutcome(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, mutationOutcome(newPrinter(&buf, outputYAML), syncstore.MutationResult{Success: true, Message: "Event deleted successfully"}))
	require.Equal(t, "Event deleted successfully\n", buf.String())

	require.EqualError(t, mutationOutcome(newPrinter(&buf, outputYAML), syncstore.MutationResult{Message: "Not found."}), "Not found.")
}

func TestDurableTier(t *testing.T) {
	newConfig := func(values map[string]any) config.Config {
		v := viper.New()
		for k, val := range values {
			v.Set(k, val)
		}
		return config.FromViper(v)
	}

	t.Run("file tier needs a passphrase", func(t *testing.T) {
		_, err := durableTier(newConfig(map[string]any{"credentials.tier": config.TierFile}))
		require.Error(t, err)
	})

	t.Run("file tier", func(t *testing.T) {
		tier, err := durableTier(newConfig(map[string]any{
			"credentials.tier":       config.TierFile,
			"credentials.passphrase": "pass",
			"credentials.file_path":  t.TempDir() + "/creds.enc",
		}))
		require.NoError(t, err)
		require.IsType(t, &credentials.FileTier{}, tier)
	})

	t.Run("keyring tier", func(t *testing.T) {
		tier, err := durableTier(newConfig(nil))
		require.NoError(t, err)
		require.IsType(t, credentials.KeyringTier{}, tier)
	})

	t.Run("unknown tier", func(t *testing.T) {
		_, err := durableTier(newConfig(map[string]any{"credentials.tier": "vault"}))
		require.Error(t, err)
	})
}
