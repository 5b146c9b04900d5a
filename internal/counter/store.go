package counter

import (
	"context"
	"time"
)

// Store is the shared counter primitive behind admission control. All
// operations are single round trips so concurrent requests from the same
// principal never race a read-modify-write cycle.
type Store interface {
	// IncrWithExpiry atomically increments key and returns the new count.
	// The TTL is attached on the first increment only.
	IncrWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// GetIfPresent returns the value and true when the key exists and is
	// unexpired.
	GetIfPresent(ctx context.Context, key string) (string, bool, error)

	SetWithExpiry(ctx context.Context, key string, value string, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
}
