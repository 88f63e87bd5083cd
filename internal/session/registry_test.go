package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionID_Unique(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestMemoryRegistry_RememberReplaces(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	require.NoError(t, reg.Remember(ctx, "user-1", "first", time.Hour))
	require.NoError(t, reg.Remember(ctx, "user-1", "second", time.Hour))

	got, err := reg.Current(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestMemoryRegistry_Expiry(t *testing.T) {
	reg := NewMemoryRegistry()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return clock }
	ctx := context.Background()

	require.NoError(t, reg.Remember(ctx, "user-1", "sess", time.Minute))
	clock = clock.Add(time.Minute)

	_, err := reg.Current(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRegistry_ForgetAndValidation(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	assert.Error(t, reg.Remember(ctx, "", "sess", time.Minute))
	assert.Error(t, reg.Remember(ctx, "user-1", "", time.Minute))

	require.NoError(t, reg.Remember(ctx, "user-1", "sess", 0))
	require.NoError(t, reg.Forget(ctx, "user-1"))
	_, err := reg.Current(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

// setupTestRedis returns a client for REDIS_TEST_ADDR or skips the test.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisRegistry_RoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	reg := NewRedisRegistryWithPrefix(client, "test:session:current:")
	ctx := context.Background()

	require.NoError(t, reg.Remember(ctx, "user-redis", "sess-a", time.Minute))
	got, err := reg.Current(ctx, "user-redis")
	require.NoError(t, err)
	assert.Equal(t, "sess-a", got)

	require.NoError(t, reg.Forget(ctx, "user-redis"))
	_, err = reg.Current(ctx, "user-redis")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisRegistry_TTL(t *testing.T) {
	client := setupTestRedis(t)
	reg := NewRedisRegistryWithPrefix(client, "test:session:current:")
	ctx := context.Background()

	require.NoError(t, reg.Remember(ctx, "user-ttl", "sess", 100*time.Millisecond))
	time.Sleep(250 * time.Millisecond)

	_, err := reg.Current(ctx, "user-ttl")
	assert.ErrorIs(t, err, ErrNotFound)
}
