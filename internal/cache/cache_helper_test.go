package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedCourse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheHelper_SetGet(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.Course.Set(ctx, "id:1", cachedCourse{ID: 1, Title: "Go"}, time.Minute))
	assert.True(t, mr.Exists("course:id:1"))

	var got cachedCourse
	require.NoError(t, cm.Course.Get(ctx, "id:1", &got))
	assert.Equal(t, "Go", got.Title)

	err := cm.Course.Get(ctx, "id:2", &got)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	cm, _ := newTestManager(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return []cachedCourse{{ID: 1, Title: "Go"}}, nil
	}

	var first, second []cachedCourse
	require.NoError(t, cm.Course.CacheOrExecute(ctx, "list:all", &first, time.Minute, fetch))
	require.NoError(t, cm.Course.CacheOrExecute(ctx, "list:all", &second, time.Minute, fetch))

	assert.Equal(t, 1, calls, "second read should be served from cache")
	assert.Equal(t, first, second)
}

func TestCacheHelper_CacheOrExecuteFetchError(t *testing.T) {
	cm, _ := newTestManager(t)
	boom := errors.New("boom")

	var dest []cachedCourse
	err := cm.Course.CacheOrExecute(context.Background(), "list:x", &dest, time.Minute, func() (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	for _, k := range []string{"list:a", "list:b", "id:7"} {
		require.NoError(t, cm.Course.Set(ctx, k, 1, time.Minute))
	}

	require.NoError(t, cm.Course.InvalidatePattern(ctx, "list:*"))
	assert.False(t, mr.Exists("course:list:a"))
	assert.False(t, mr.Exists("course:list:b"))
	assert.True(t, mr.Exists("course:id:7"))

	InvalidateCourseCache(ctx, cm, 7)
	assert.False(t, mr.Exists("course:id:7"))
}

func TestCacheManager_WithoutRedis(t *testing.T) {
	cm := NewCacheManager(nil)
	ctx := context.Background()

	assert.False(t, cm.Enabled())
	assert.ErrorIs(t, cm.HealthCheck(ctx), ErrCacheNotAvailable)
	assert.NoError(t, cm.FAQ.Set(ctx, "k", 1, time.Minute))

	var dest int
	require.NoError(t, cm.FAQ.CacheOrExecute(ctx, "k", &dest, time.Minute, func() (interface{}, error) { return 42, nil }))
	assert.Equal(t, 42, dest)
}

func TestCacheManager_ClearAll(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.FAQ.Set(ctx, "list", 1, time.Minute))
	require.NoError(t, cm.Badge.Set(ctx, "list", 1, time.Minute))
	require.NoError(t, mr.Set("foreign:key", "keep"))

	require.NoError(t, cm.ClearAll(ctx))
	assert.False(t, mr.Exists("faq:list"))
	assert.False(t, mr.Exists("badge:list"))
	assert.True(t, mr.Exists("foreign:key"))

	counts := cm.KeyCounts(ctx)
	assert.Equal(t, true, counts["cache_enabled"])
	assert.Equal(t, 0, counts["faq:count"])
}
