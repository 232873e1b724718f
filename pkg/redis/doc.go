// Package redis connects to Redis with startup retries and exposes a
// readiness probe. The client backs the distributed rate limiter.
package redis
