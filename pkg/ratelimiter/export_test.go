package ratelimiter

import "time"

func (tb *Bucket) SetClock(now func() time.Time) { tb.now = now }

func (rs *RedisStore) SetClock(now func() time.Time) { rs.now = now }

func (ms *MemoryStore) SetStaleAfter(d time.Duration) { ms.staleAfter = d }

func (ms *MemoryStore) RemoveStale() { ms.removeStale() }

func (ms *MemoryStore) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.buckets)
}
