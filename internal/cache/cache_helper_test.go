package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statsPayload struct {
	AssessmentID uint `json:"assessment_id"`
	Attempts     int  `json:"attempts"`
}

func newTestCacheHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCacheHelper(client, "stats:"), mr
}

func TestCacheHelper_SetGetRoundtrip(t *testing.T) {
	helper, _ := newTestCacheHelper(t)
	ctx := context.Background()

	stored := statsPayload{AssessmentID: 1, Attempts: 5}
	require.NoError(t, helper.Set(ctx, "assessment:1", stored, time.Minute))

	var loaded statsPayload
	require.NoError(t, helper.Get(ctx, "assessment:1", &loaded))
	assert.Equal(t, stored, loaded)
}

func TestCacheHelper_GetMiss(t *testing.T) {
	helper, _ := newTestCacheHelper(t)

	var loaded statsPayload
	err := helper.Get(context.Background(), "nope", &loaded)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestCacheHelper_KeysArePrefixed(t *testing.T) {
	helper, mr := newTestCacheHelper(t)

	require.NoError(t, helper.Set(context.Background(), "system", statsPayload{}, time.Minute))
	assert.True(t, mr.Exists("stats:system"))
}

func TestCacheHelper_Delete(t *testing.T) {
	helper, mr := newTestCacheHelper(t)
	ctx := context.Background()

	require.NoError(t, helper.Set(ctx, "a", statsPayload{Attempts: 1}, time.Minute))
	require.NoError(t, helper.Set(ctx, "b", statsPayload{Attempts: 2}, time.Minute))

	require.NoError(t, helper.Delete(ctx, "a", "b"))
	assert.False(t, mr.Exists("stats:a"))
	assert.False(t, mr.Exists("stats:b"))
}

func TestCacheHelper_Expiry(t *testing.T) {
	helper, mr := newTestCacheHelper(t)
	ctx := context.Background()

	require.NoError(t, helper.Set(ctx, "ttl", statsPayload{Attempts: 1}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var loaded statsPayload
	err := helper.Get(ctx, "ttl", &loaded)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestCacheHelper_NilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "stats:")
	ctx := context.Background()

	assert.NoError(t, helper.Set(ctx, "k", statsPayload{}, time.Minute))
	assert.NoError(t, helper.Delete(ctx, "k"))

	var loaded statsPayload
	assert.ErrorIs(t, helper.Get(ctx, "k", &loaded), ErrCacheNotAvailable)
}

func TestCacheHelper_CacheOrExecute_MissFetches(t *testing.T) {
	helper, _ := newTestCacheHelper(t)

	calls := 0
	var dest statsPayload
	err := helper.CacheOrExecute(context.Background(), "assessment:1", &dest, time.Minute, func() (interface{}, error) {
		calls++
		return statsPayload{AssessmentID: 1, Attempts: 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, dest.Attempts)
}

func TestCacheHelper_CacheOrExecute_HitSkipsFetch(t *testing.T) {
	helper, _ := newTestCacheHelper(t)
	ctx := context.Background()

	require.NoError(t, helper.Set(ctx, "assessment:1", statsPayload{AssessmentID: 1, Attempts: 9}, time.Minute))

	var dest statsPayload
	err := helper.CacheOrExecute(ctx, "assessment:1", &dest, time.Minute, func() (interface{}, error) {
		t.Fatal("fetch must not run on a cache hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 9, dest.Attempts)
}

func TestCacheHelper_CacheOrExecute_PopulatesCache(t *testing.T) {
	helper, _ := newTestCacheHelper(t)
	ctx := context.Background()

	var dest statsPayload
	err := helper.CacheOrExecute(ctx, "assessment:1", &dest, time.Minute, func() (interface{}, error) {
		return statsPayload{AssessmentID: 1, Attempts: 3}, nil
	})
	require.NoError(t, err)

	// The write-back happens off the request path.
	assert.Eventually(t, func() bool {
		var cached statsPayload
		return helper.Get(ctx, "assessment:1", &cached) == nil && cached.Attempts == 3
	}, time.Second, 10*time.Millisecond)
}

func TestCacheHelper_NilClientCacheOrExecuteAlwaysFetches(t *testing.T) {
	helper := NewCacheHelper(nil, "")

	var dest statsPayload
	err := helper.CacheOrExecute(context.Background(), "k", &dest, time.Minute, func() (interface{}, error) {
		return statsPayload{Attempts: 7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, dest.Attempts)
}
