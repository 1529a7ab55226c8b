package cache

import "time"

// Option applies a configuration option to the MemoryCache.
type Option func(*MemoryCache)

// WithTTL sets how long an entry stays valid. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *MemoryCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}
