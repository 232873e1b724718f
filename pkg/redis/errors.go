package redis

import "errors"

// Sentinels joined with go-redis errors; match them with errors.Is.
var (
	ErrMissingURL = errors.New("redis: REDIS_URL is not set")
	ErrInvalidURL = errors.New("redis: malformed connection URL")
	ErrNotReady   = errors.New("redis: server not ready before timeout")
	ErrUnhealthy  = errors.New("redis: ping failed")
)
