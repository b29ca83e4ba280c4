package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/sopflow/pkg/adapters/redis"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/aretw0/sopflow/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunObjectStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	now := time.Now()
	store := redis.NewFromClient(client,
		redis.WithTTL(1*time.Second),
		redis.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()
	obj := &domain.Object{ID: "case-ttl", CurrentNodeID: "start"}

	require.NoError(t, store.Save(ctx, obj))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "case-ttl")

	// Expire the key inside miniredis, then move our clock past the index score.
	mr.FastForward(2 * time.Second)
	now = now.Add(2 * time.Second)

	_, err = store.Load(ctx, "case-ttl")
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Object{ID: "my-case", CurrentNodeID: "start"}))

	assert.True(t, mr.Exists("custom:app:my-case"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "my-case")
}

func TestRedisStore_DeleteRemovesIndex(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Object{ID: "gone"}))
	require.NoError(t, store.Delete(ctx, "gone"))

	assert.False(t, mr.Exists("sopflow:case:gone"))
	members, err := mr.ZMembers("sopflow:case:index")
	if err == nil {
		assert.NotContains(t, members, "gone")
	}
}

func TestRedisStore_Ping(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	assert.NoError(t, store.Ping(context.Background()))
	assert.Same(t, client, store.Client())
}
