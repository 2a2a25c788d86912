package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	var got []item
	ok, err := c.Get(ctx, "stores:list", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	want := []item{{1, "Kemang"}, {2, "Depok"}}
	require.NoError(t, c.Set(ctx, "stores:list", want, time.Minute))
	require.NoError(t, c.Set(ctx, "stores:1", want[0], time.Minute))
	require.NoError(t, c.Set(ctx, "products:list", []item{{9, "Milk"}}, time.Minute))

	ok, err = c.Get(ctx, "stores:list", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, c.DeletePrefix(ctx, "stores:"))
	ok, _ = c.Get(ctx, "stores:1", &item{})
	assert.False(t, ok)
	ok, _ = c.Get(ctx, "products:list", &got)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "products:list"))
	ok, _ = c.Get(ctx, "products:list", &got)
	assert.False(t, ok)
}

func TestMemory(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	exercise(t, m)
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, m.Set(ctx, "b", 2, 0))
	assert.Equal(t, 2, m.Len())

	now = now.Add(2 * time.Minute)
	var v int
	ok, err := m.Get(ctx, "a", &v)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())

	m.evictExpired()
	m.mu.RLock()
	_, present := m.entries["a"]
	m.mu.RUnlock()
	assert.False(t, present)

	ok, _ = m.Get(ctx, "b", &v)
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	ctx := context.Background()

	in := []item{{1, "Kemang"}}
	require.NoError(t, m.Set(ctx, "k", in, 0))
	in[0].Name = "mutated"

	var out []item
	_, err := m.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.Equal(t, "Kemang", out[0].Name)
}

func TestGetOrLoad(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	ctx := context.Background()

	calls := 0
	load := func() ([]item, error) {
		calls++
		return []item{{1, "Kemang"}}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := GetOrLoad(ctx, m, KeyStores, time.Minute, load)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	assert.Equal(t, 1, calls)

	boom := errors.New("db down")
	_, err := GetOrLoad(ctx, m, "other", time.Minute, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	got, err := GetOrLoad[int](ctx, nil, "nil-cache", time.Minute, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

// Runs against a real server when STOREOPS_TEST_REDIS_ADDR is set.
func TestRedis(t *testing.T) {
	addr := os.Getenv("STOREOPS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOREOPS_TEST_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	require.NoError(t, rdb.Ping(context.Background()).Err())

	exercise(t, NewRedis(rdb, "storeops-test:"))
}
