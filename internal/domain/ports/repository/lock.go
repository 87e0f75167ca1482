package repository

import (
	"context"
	"time"
)

// Locker is a best-effort distributed lock used to serialize purchase
// attempts per (student, item). The verify path does not use it; there the
// store's conditional update is the only serialization needed.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
