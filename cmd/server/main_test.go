package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/amirasaad/gamewallet/infra/cache"
	"github.com/amirasaad/gamewallet/pkg/config"
	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewCache_NoRedisConfigured_FallsBackToMemory(t *testing.T) {
	cfg := &config.App{Redis: nil}
	c := newCache(cfg, testLogger())
	_, ok := c.(*cache.MemoryCache)
	assert.True(t, ok, "expected memory cache when no redis config is present")
}

func TestNewCache_EmptyRedisURL_FallsBackToMemory(t *testing.T) {
	cfg := &config.App{Redis: &config.Redis{URL: ""}}
	c := newCache(cfg, testLogger())
	_, ok := c.(*cache.MemoryCache)
	assert.True(t, ok, "expected memory cache when redis url is empty")
}

func TestNewCache_InvalidRedisURL_FallsBackToMemory(t *testing.T) {
	cfg := &config.App{Redis: &config.Redis{URL: "not-a-valid-url"}}
	c := newCache(cfg, testLogger())
	_, ok := c.(*cache.MemoryCache)
	assert.True(t, ok, "expected memory cache when redis url fails to parse")
}

func TestNewCache_ValidRedisURL_ReturnsRedisCache(t *testing.T) {
	cfg := &config.App{Redis: &config.Redis{URL: "redis://localhost:6379/0", KeyPrefix: "gamewallet:"}}
	c := newCache(cfg, testLogger())
	_, ok := c.(*cache.RedisCache)
	assert.True(t, ok, "expected redis cache when a valid redis url is configured")
}
