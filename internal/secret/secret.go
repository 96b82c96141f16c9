// Package secret defines the TTL-aware key-value contract shared by the OTP
// and refresh-token managers. It is the storage seam: the same manager logic
// runs against the in-memory map in development and tests, and against
// DynamoDB in production.
package secret

import (
	"context"
	"time"
)

// Record is one stored secret. Value is opaque to the store; managers encode
// their own structures into it.
type Record struct {
	Key       string
	Value     []byte
	ExpiresAt time.Time
}

// Store is a TTL-aware key-value store.
//
// Get does not implicitly expire records: an expired-but-unswept record is
// still returned, and callers check ExpiresAt at use time. SweepExpired is
// hygiene, not correctness.
type Store interface {
	// Put writes or overwrites the record for key.
	Put(ctx context.Context, key string, value []byte, expiresAt time.Time) error
	// Get returns the record for key. The second return is false when absent.
	Get(ctx context.Context, key string) (Record, bool, error)
	// Delete removes the record for key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// SweepExpired removes every record with ExpiresAt before now and returns
	// how many were removed.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
	// List returns every record currently held, expired or not. Used for
	// whole-store operations such as revoke-all-for-user.
	List(ctx context.Context) ([]Record, error)
}
