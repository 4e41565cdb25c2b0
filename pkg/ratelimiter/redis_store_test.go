package ratelimiter_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/accountkit/pkg/ratelimiter"
	"github.com/dmitrymomot/accountkit/pkg/redis"
)

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := redis.Connect(ctx, redis.Config{ConnectionURL: url, RetryAttempts: 1, ConnectTimeout: 5 * time.Second})
	require.NoError(t, err)
	defer client.Close()

	clock := newFakeClock()
	store := ratelimiter.NewRedisStore(client, "accountkit:test:rl:"+uuid.NewString()[:8]+":")
	store.SetClock(clock.Now)

	b, err := ratelimiter.NewBucket(store, testConfig)
	require.NoError(t, err)
	b.SetClock(clock.Now)

	for i := 2; i >= 0; i-- {
		res, err := b.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.Equal(t, i, res.Remaining)
	}

	res, err := b.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, res.Allowed())
	assert.Equal(t, time.Second, res.RetryAfter())

	clock.Advance(time.Second)
	res, err = b.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, res.Allowed())

	require.NoError(t, b.Reset(ctx, "ip"))
	res, err = b.Status(ctx, "ip")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Remaining)
}
