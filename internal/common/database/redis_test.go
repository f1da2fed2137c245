package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/common/config"
)

func newTestRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(context.Background()))
	return client, mr
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	require.Error(t, err)
}

func TestTryLock_Exclusive(t *testing.T) {
	client, mr := newTestRedis(t)
	ctx := context.Background()

	release, err := client.TryLock(ctx, "sales_data:seed", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("sales_data:seed"))

	_, err = client.TryLock(ctx, "sales_data:seed", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("sales_data:seed"))

	release2, err := client.TryLock(ctx, "sales_data:seed", time.Minute)
	require.NoError(t, err)
	require.NoError(t, release2(ctx))
}

func TestTryLock_ExpiredLockIsNotReleasedByPreviousOwner(t *testing.T) {
	client, mr := newTestRedis(t)
	ctx := context.Background()

	staleRelease, err := client.TryLock(ctx, "sales_data:seed", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	freshRelease, err := client.TryLock(ctx, "sales_data:seed", time.Minute)
	require.NoError(t, err)

	require.NoError(t, staleRelease(ctx))
	assert.True(t, mr.Exists("sales_data:seed"), "stale owner must not delete the new lock")

	require.NoError(t, freshRelease(ctx))
	assert.False(t, mr.Exists("sales_data:seed"))
}

func TestTryLock_RedisDown(t *testing.T) {
	client, mr := newTestRedis(t)
	mr.Close()

	_, err := client.TryLock(context.Background(), "sales_data:seed", time.Minute)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockHeld)
}
