package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DefaultPingInterval, cfg.PingInterval)
	assert.Equal(t, 0, cfg.CacheMaxEntries)
}

func TestLoadServerConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookpulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"port: 9090\ncache_max_entries: 1000\nping_interval: 15s\n",
	), 0o600))

	cfg, err := LoadServerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 1000, cfg.CacheMaxEntries)
	assert.Equal(t, 15*time.Second, cfg.PingInterval)
	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultCleanupInterval, cfg.CleanupInterval)
}

func TestLoadServerConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookpulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: -1\n"), 0o600))
	_, err := LoadServerConfig(path)
	assert.Error(t, err)
}

func TestSearchParamsMatch(t *testing.T) {
	l := Listing{ID: "1", Kind: "dj", City: "bangkok", Genre: "house", DayRate: 400, Verified: true}
	assert.True(t, SearchParams{}.Match(l))
	assert.True(t, SearchParams{City: "bangkok", MaxRate: 500}.Match(l))
	assert.False(t, SearchParams{City: "phuket"}.Match(l))
	assert.False(t, SearchParams{MaxRate: 300}.Match(l))
	assert.True(t, SearchParams{Verified: true}.Match(l))
}
