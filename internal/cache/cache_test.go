package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ CursorCache = (*Memory)(nil)
	_ CursorCache = (*Redis)(nil)
)

func TestKey(t *testing.T) {
	assert.Equal(t, "ec_scene_n:abc-123", Key("abc-123"))
}

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.GetScene(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.SetScene(ctx, "u1", 4))
	n, ok, err := m.GetScene(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	_, ok, _ = m.GetScene(ctx, "u2")
	assert.False(t, ok, "entries are per learner")
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("u%d", i%4)
			_ = m.SetScene(ctx, user, i)
			_, _, _ = m.GetScene(ctx, user)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		_, ok, err := m.GetScene(ctx, fmt.Sprintf("u%d", i))
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "not-a-url://")
	assert.Error(t, err)
}

func TestRedisReportsConnectionErrors(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	r := NewRedisFromClient(rdb)
	defer r.Close()

	_, ok, err := r.GetScene(context.Background(), "u1")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, r.SetScene(context.Background(), "u1", 2))
}

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, mr
}

func TestRedisGetSet(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	_, ok, err := r.GetScene(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok, "missing key")

	require.NoError(t, r.SetScene(ctx, "u1", 4))
	n, ok, err := r.GetScene(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	raw, err := mr.Get("ec_scene_n:u1")
	require.NoError(t, err)
	assert.Equal(t, "4", raw)
	assert.Zero(t, mr.TTL("ec_scene_n:u1"), "cursor entries do not expire")

	require.NoError(t, r.SetScene(ctx, "u1", 5))
	n, _, err = r.GetScene(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, ok, err = r.GetScene(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, ok, "entries are per learner")
}

func TestRedisUnparseableValueIsAbsent(t *testing.T) {
	r, mr := newTestRedis(t)
	require.NoError(t, mr.Set(Key("u1"), "scene-three"))

	n, ok, err := r.GetScene(context.Background(), "u1")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, n)
}
