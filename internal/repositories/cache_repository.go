package repositories

import (
	"context"
	"time"
)

// CacheRepository is the JSON key/value cache used in front of slow lookups.
// Get reports false with a nil error on a miss.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Default cache expiration time
const DefaultExpiration = 10 * time.Minute
