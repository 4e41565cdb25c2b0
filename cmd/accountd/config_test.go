package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/accountkit/pkg/auth"
	"github.com/dmitrymomot/accountkit/pkg/config"
	"github.com/dmitrymomot/accountkit/pkg/ratelimiter"
)

func validConfig() appConfig {
	return appConfig{
		Env:                 "development",
		TokenSecret:         strings.Repeat("s", minSecretLen),
		TokenDefaultTTL:     time.Hour,
		ConfirmTokenTTL:     24 * time.Hour,
		ResetTokenTTL:       time.Hour,
		EmailChangeTokenTTL: time.Hour,
		BcryptCost:          10,
		StoreBackend:        storeMemory,
		ThrottleBackend:     throttleMemory,
		RateLimitBackend:    rateLimitMemory,
	}
}

func TestAppConfig_Validate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := map[string]struct {
		modify func(*appConfig)
		msg    string
	}{
		"short secret":         {func(c *appConfig) { c.TokenSecret = "short" }, "TOKEN_SECRET"},
		"sub-second ttl":       {func(c *appConfig) { c.ResetTokenTTL = 500 * time.Millisecond }, "RESET_TOKEN_TTL"},
		"bcrypt cost":          {func(c *appConfig) { c.BcryptCost = 3 }, "BCRYPT_COST"},
		"store backend":        {func(c *appConfig) { c.StoreBackend = "sqlite" }, "STORE_BACKEND"},
		"throttle backend":     {func(c *appConfig) { c.ThrottleBackend = "memcached" }, "THROTTLE_BACKEND"},
		"rate limit backend":   {func(c *appConfig) { c.RateLimitBackend = "nginx" }, "RATE_LIMIT_BACKEND"},
		"env":                  {func(c *appConfig) { c.Env = "qa" }, "APP_ENV"},
		"memory in production": {func(c *appConfig) { c.Env = "production" }, "not allowed in production"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestAppConfig_Load(t *testing.T) {
	config.ResetCache()
	t.Cleanup(config.ResetCache)

	t.Setenv("TOKEN_SECRET", strings.Repeat("k", 40))
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("CONFIRM_TOKEN_TTL", "2h")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("EMAIL_BACKEND", "dev")

	var cfg appConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 2*time.Hour, cfg.ConfirmTokenTTL)
	assert.Equal(t, time.Hour, cfg.TokenDefaultTTL)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "dev", cfg.Email.Backend)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, rateLimitMemory, cfg.RateLimitBackend)
	assert.Equal(t, 20, cfg.RateLimit.Capacity)
	assert.False(t, cfg.needsRedis())
}

func TestAppConfig_LoadRejectsShortSecret(t *testing.T) {
	config.ResetCache()
	t.Cleanup(config.ResetCache)

	t.Setenv("TOKEN_SECRET", "too-short")

	var cfg appConfig
	assert.ErrorIs(t, config.Load(&cfg), config.ErrInvalidConfig)
}

func TestOpenBackends_InProcess(t *testing.T) {
	ctx := context.Background()

	store, err := openStore(ctx, storeMemory, nil)
	require.NoError(t, err)
	assert.IsType(t, &auth.MemoryStore{}, store.value)
	assert.Nil(t, store.check)
	assert.NoError(t, store.close(ctx))

	rdb, err := openRedis(ctx, false)
	require.NoError(t, err)
	assert.Nil(t, rdb.value.client)
	assert.Nil(t, rdb.check)

	th, err := openThrottle(throttleMemory, rdb.value)
	require.NoError(t, err)
	assert.IsType(t, &auth.MemoryThrottle{}, th)

	th, err = openThrottle(throttleNone, rdb.value)
	require.NoError(t, err)
	assert.Nil(t, th)

	limiter, err := openRateLimiter(rateLimitMemory, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Second}, rdb.value)
	require.NoError(t, err)
	assert.IsType(t, &ratelimiter.Bucket{}, limiter.value)
	assert.NoError(t, limiter.close(ctx))

	limiter, err = openRateLimiter(rateLimitNone, ratelimiter.Config{}, rdb.value)
	require.NoError(t, err)
	assert.Nil(t, limiter.value)

	_, err = openRateLimiter(rateLimitMemory, ratelimiter.Config{}, rdb.value)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)

	_, err = openStore(ctx, "sqlite", nil)
	assert.Error(t, err)
	_, err = openThrottle("memcached", rdb.value)
	assert.Error(t, err)
	_, err = openRateLimiter("nginx", ratelimiter.Config{}, rdb.value)
	assert.Error(t, err)
}

func TestRequestIDFromContext(t *testing.T) {
	_, ok := requestIDFromContext(context.Background())
	assert.False(t, ok)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	attr, ok := requestIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "req-1", attr.Value.String())
}
