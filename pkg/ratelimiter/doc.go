// Package ratelimiter implements token bucket rate limiting for HTTP
// endpoints.
//
// A Bucket holds up to Capacity tokens and gains RefillRate tokens every
// RefillInterval. Each request takes one token; a request that finds too few
// tokens is denied without consuming any. State lives in a Store: MemoryStore
// for a single process, RedisStore when several instances share limits.
//
//	limiter, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), ratelimiter.Config{
//		Capacity:       10,
//		RefillRate:     1,
//		RefillInterval: 6 * time.Second,
//	})
//	if err != nil {
//		return err
//	}
//	r.Use(ratelimiter.Middleware(limiter, ratelimiter.ByIP))
//
// Denied requests get 429 with Retry-After and X-RateLimit-* headers.
package ratelimiter
