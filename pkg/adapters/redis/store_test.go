package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/threadbare/pkg/adapters/redis"
	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ports.RunSaveStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	now := time.Now()
	clock := func() time.Time { return now }
	store := redis.NewFromClient(client, redis.WithTTL(time.Second), redis.WithClock(clock), redis.WithPrefix("tb:"))
	ctx := context.Background()
	snap := &domain.Snapshot{
		State:  domain.StatePaused,
		Frames: []domain.FrameSnapshot{{Node: "Start", ResumeLabel: 2}},
	}

	require.NoError(t, store.Save(ctx, "session-ttl", snap))
	assert.True(t, mr.Exists("tb:session-ttl"))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, "session-ttl")

	mr.FastForward(2 * time.Second)
	_, err = store.Load(ctx, "session-ttl")
	assert.ErrorIs(t, err, domain.ErrSaveNotFound)

	now = now.Add(2 * time.Second)
	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions, "expired entries are pruned from the index")
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	require.NoError(t, mr.Set("threadbare:save:bad", "{not json"))

	_, err := store.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSaveNotFound)
}
