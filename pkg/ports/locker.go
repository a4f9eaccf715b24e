package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes runner access across multiple instances (replicas).
// A runner is single-threaded; two replicas driving the same session would
// interleave primitives and corrupt its stack.
type DistributedLocker interface {
	// Lock blocks until the lock for key is acquired or ctx is canceled.
	// The lock expires after ttl if never released.
	// The returned UnlockFunc MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
