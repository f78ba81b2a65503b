package cache

import (
	"context"
	"time"
)

// Store represents a shared cache interface used across the application.
// Values are opaque byte slices; callers JSON-encode their payloads.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
