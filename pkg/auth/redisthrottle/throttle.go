// Package redisthrottle implements auth.Throttle on Redis so that several
// accountd instances share one issuance window per user and purpose.
package redisthrottle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/accountkit/pkg/auth"
)

const DefaultPrefix = "accountkit:throttle:"

// Throttle opens a window with SET NX PX; the key expiring closes it.
type Throttle struct {
	client redis.UniversalClient
	prefix string
}

var _ auth.Throttle = (*Throttle)(nil)

// New returns a Throttle. An empty prefix selects DefaultPrefix.
func New(client redis.UniversalClient, prefix string) *Throttle {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Throttle{client: client, prefix: prefix}
}

func (t *Throttle) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}
	err := t.client.SetArgs(ctx, t.prefix+key, time.Now().Unix(), redis.SetArgs{
		Mode: "NX",
		TTL:  window,
	}).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("failed to set throttle key: %w", err)
	}
}

// Reset closes the window for key early.
func (t *Throttle) Reset(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, t.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete throttle key: %w", err)
	}
	return nil
}
