package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/accountkit/pkg/token"
)

// Throttle limits how often a token can be issued for the same key.
// Allow returns true and opens a window when no window is open for key.
// Reset closes the window for key, if any.
type Throttle interface {
	Allow(ctx context.Context, key string, window time.Duration) (bool, error)
	Reset(ctx context.Context, key string) error
}

// ThrottleKey builds the per-user, per-purpose throttle key.
func ThrottleKey(purpose token.Purpose, userID uuid.UUID) string {
	return string(purpose) + ":" + userID.String()
}

// pruneThreshold bounds how many expired entries MemoryThrottle keeps around.
const pruneThreshold = 1024

// MemoryThrottle is an in-process Throttle.
type MemoryThrottle struct {
	mu    sync.Mutex
	now   func() time.Time
	until map[string]time.Time
}

func NewMemoryThrottle() *MemoryThrottle {
	return &MemoryThrottle{
		now:   time.Now,
		until: make(map[string]time.Time),
	}
}

func (t *MemoryThrottle) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if window <= 0 {
		return true, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if until, ok := t.until[key]; ok && now.Before(until) {
		return false, nil
	}

	if len(t.until) >= pruneThreshold {
		for k, until := range t.until {
			if !now.Before(until) {
				delete(t.until, k)
			}
		}
	}

	t.until[key] = now.Add(window)
	return true, nil
}

func (t *MemoryThrottle) Reset(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.until, key)
	return nil
}
