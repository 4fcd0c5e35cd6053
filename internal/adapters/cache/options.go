// Package cache memoizes predictions keyed by the normalized survey record.
package cache

import "time"

// Option applies a configuration option to the prediction cache.
type Option func(*ristrettoCache)

// WithMaxEntries bounds the number of cached predictions.
// If maxEntries <= 0, New returns a cache that stores nothing.
func WithMaxEntries(maxEntries int) Option {
	return func(c *ristrettoCache) {
		c.maxEntries = maxEntries
	}
}

// WithTTL expires entries after ttl. Zero keeps them until evicted.
func WithTTL(ttl time.Duration) Option {
	return func(c *ristrettoCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}
