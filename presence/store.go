package presence

import (
	"context"
	"time"
)

// Store is the TTL key-value store behind presence counting. It mirrors the
// small subset of Redis the heartbeat needs.
type Store interface {
	// SetHash writes fields into the hash at key and sets its TTL.
	SetHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	// AddScored upserts member into the sorted set at key.
	AddScored(ctx context.Context, key, member string, score float64) error
	// PruneScored removes members scored at or below max.
	PruneScored(ctx context.Context, key string, max float64) error
	// CountScored returns the sorted set's cardinality.
	CountScored(ctx context.Context, key string) (int64, error)
	// SetIfAbsent writes value with a TTL unless key already exists.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the string at key; ok is false when it does not exist.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
}
