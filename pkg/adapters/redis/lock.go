package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/threadbare/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

const defaultRetryInterval = 100 * time.Millisecond

// unlockScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another replica is never released by us.
var unlockScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Locker implements ports.DistributedLocker using Redis SET NX PX.
type Locker struct {
	client *backend.Client
	prefix string
	retry  time.Duration
}

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
		retry:  defaultRetryInterval,
	}
}

// Lock polls until the lock key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	acquire := func() (bool, error) {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return false, fmt.Errorf("redis error acquiring lock: %w", err)
		}
		return ok, nil
	}

	ok, err := acquire()
	if err != nil {
		return nil, err
	}
	if !ok {
		ticker := time.NewTicker(l.retry)
		defer ticker.Stop()
		for !ok {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-ticker.C:
				if ok, err = acquire(); err != nil {
					return nil, err
				}
			}
		}
	}

	return func(ctx context.Context) error {
		return unlockScript.Run(ctx, l.client, []string{lockKey}, token).Err()
	}, nil
}
