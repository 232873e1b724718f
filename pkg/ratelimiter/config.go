package ratelimiter

import "time"

// EnvConfig is the environment representation of Config.
type EnvConfig struct {
	Capacity       int           `env:"RATE_LIMIT_CAPACITY" envDefault:"60"`
	RefillRate     int           `env:"RATE_LIMIT_REFILL_RATE" envDefault:"1"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"1s"`
	KeyPrefix      string        `env:"RATE_LIMIT_KEY_PREFIX" envDefault:"vemx1:ratelimit"`
}

// Config returns the bucket configuration.
func (c EnvConfig) Config() Config {
	return Config{
		Capacity:       c.Capacity,
		RefillRate:     c.RefillRate,
		RefillInterval: c.RefillInterval,
	}
}
