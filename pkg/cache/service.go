package cache

import "time"

// CacheService is the read-through cache used by usecases for catalog
// lookups, stats aggregates and the enums payload.
type CacheService interface {
	// Get returns the cached value and whether the key was present.
	Get(key string) (interface{}, bool)

	// Set stores a value under key for the given TTL. A zero duration
	// uses the cache's default expiration.
	Set(key string, value interface{}, duration time.Duration)

	// Delete evicts a single key. Missing keys are a no-op.
	Delete(key string)

	// Flush drops every entry.
	Flush()
}
