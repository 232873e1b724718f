// Package ratelimiter provides token bucket rate limiting with in-memory and
// Redis storage plus HTTP middleware.
//
// A bucket holds up to Capacity tokens and gains RefillRate tokens every
// RefillInterval. Each request takes one token; a request that finds too few
// tokens is denied and consumes nothing.
//
//	cfg := ratelimiter.Config{Capacity: 60, RefillRate: 1, RefillInterval: time.Second}
//
//	var store ratelimiter.Store = ratelimiter.NewMemoryStore()
//	if rdb != nil {
//		store = ratelimiter.NewRedisStore(rdb, "vemx1:ratelimit")
//	}
//
//	limiter, err := ratelimiter.NewBucket(store, cfg)
//	r.Use(ratelimiter.Middleware(limiter, ratelimiter.ByClientIP, log))
//
// The Redis store runs the refill-and-take step as a Lua script, so several
// service instances share one budget per key.
//
// The middleware sets X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset, answers 429 with Retry-After when the bucket is empty
// and lets the request through when the store fails.
package ratelimiter
