package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/accountkit/pkg/token"
)

var testSecret = []byte("auth-test-secret-auth-test-secret")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 5, 17, 32, 9, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTokens(t *testing.T, clock *fakeClock) *token.Service {
	t.Helper()
	tokens, err := token.New(testSecret, token.WithClock(clock.Now))
	require.NoError(t, err)
	return tokens
}

func newTestService(t *testing.T, opts ...Option) (*Service, *MemoryStore, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := NewMemoryStore()
	base := []Option{WithBcryptCost(bcrypt.MinCost), WithClock(clock.Now)}
	svc := NewService(store, newTokens(t, clock), append(base, opts...)...)
	return svc, store, clock
}
