package mongo

import "errors"

// Sentinels joined with driver errors; match them with errors.Is.
var (
	ErrMissingURL = errors.New("mongo: MONGODB_URL is not set")
	ErrConnect    = errors.New("mongo: unable to reach primary")
	ErrUnhealthy  = errors.New("mongo: primary unreachable")
)
