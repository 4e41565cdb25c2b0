package redisthrottle_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/accountkit/pkg/auth"
	"github.com/dmitrymomot/accountkit/pkg/auth/redisthrottle"
	"github.com/dmitrymomot/accountkit/pkg/redis"
	"github.com/dmitrymomot/accountkit/pkg/token"
)

func newThrottle(t *testing.T) *redisthrottle.Throttle {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	client, err := redis.Connect(context.Background(), redis.Config{ConnectionURL: url, RetryAttempts: 1, ConnectTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return redisthrottle.New(client, "accountkit:test:"+uuid.NewString()[:8]+":")
}

func TestThrottle(t *testing.T) {
	th := newThrottle(t)
	ctx := context.Background()
	key := auth.ThrottleKey(token.PurposeConfirm, uuid.New())

	ok, err := th.Allow(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = th.Allow(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	other := auth.ThrottleKey(token.PurposeResetPassword, uuid.New())
	ok, err = th.Allow(ctx, other, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, th.Reset(ctx, key))
	ok, err = th.Allow(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestThrottle_WindowExpires(t *testing.T) {
	th := newThrottle(t)
	ctx := context.Background()
	key := auth.ThrottleKey(token.PurposeConfirm, uuid.New())

	ok, err := th.Allow(ctx, key, 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		ok, err := th.Allow(ctx, key, 50*time.Millisecond)
		return err == nil && ok
	}, 2*time.Second, 20*time.Millisecond)
}

func TestThrottle_ZeroWindow(t *testing.T) {
	th := redisthrottle.New(nil, "")
	ok, err := th.Allow(context.Background(), "any", 0)
	require.NoError(t, err)
	assert.True(t, ok)
}
