package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 250, cfg.Shopify.MaxPageSize)
	assert.Equal(t, 1000, cfg.Shopify.DefaultMaxItems)
	assert.Equal(t, 500*time.Millisecond, cfg.Shopify.PageDelay)
	assert.Equal(t, 50, cfg.Shopify.BatchSize)
	assert.Equal(t, 7*24*time.Hour, cfg.Schema.CacheLifetime)
	assert.Equal(t, 100, cfg.Preview.DefaultLimit)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 3, cfg.Poll.MaxConsecutiveErrors)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9090
shopify:
  default_api_version: "2024-04"
  batch_size: 25
preview:
  default_limit: 5
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "2024-04", cfg.Shopify.DefaultAPIVersion)
	assert.Equal(t, 25, cfg.Shopify.BatchSize)
	assert.Equal(t, 5, cfg.Preview.DefaultLimit)
	// untouched keys keep their defaults
	assert.Equal(t, 250, cfg.Shopify.MaxPageSize)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shopify:\n  max_page_size: 500\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
