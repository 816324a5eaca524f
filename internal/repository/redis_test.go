package repository

import (
	"context"
	"testing"
	"time"

	"sportsmatch/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RankingCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRankingCache(client), mr
}

func TestRankingCache_StoreAndGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	ranked := []models.RankingEntry{
		{Rank: 1, UserID: "zed", Average: 4.8, Tier: models.TierMaster},
		{Rank: 2, UserID: "amy", Average: 4.5, Tier: models.TierPro},
		{Rank: 2, UserID: "bob", Average: 4.5, Tier: models.TierPro},
		{Rank: 4, UserID: "cat", Average: 3.25, Tier: models.TierSemiPro},
	}
	require.NoError(t, cache.StoreRanking(ctx, 2, ranked))

	got, total, err := cache.GetRanking(ctx, 2, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Equal(t, ranked, got)

	page, total, err := cache.GetRanking(ctx, 2, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, page, 2)
	assert.Equal(t, "amy", page[0].UserID)
	assert.Equal(t, "bob", page[1].UserID)

	// a page starting inside a tie keeps the stored rank
	tied, _, err := cache.GetRanking(ctx, 2, 2, 1)
	require.NoError(t, err)
	require.Len(t, tied, 1)
	assert.Equal(t, ranked[2], tied[0])

	// a new run replaces the previous ranking entirely
	require.NoError(t, cache.StoreRanking(ctx, 2, ranked[:1]))
	got, total, err = cache.GetRanking(ctx, 2, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, ranked[:1], got)

	empty, total, err := cache.GetRanking(ctx, 3, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, empty)
}

func TestRankingCache_Lock(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	ok, err := cache.AcquireLock(ctx, RecalculationLockKey, "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.AcquireLock(ctx, RecalculationLockKey, "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// releasing with a foreign token keeps the lock
	require.NoError(t, cache.ReleaseLock(ctx, RecalculationLockKey, "b"))
	assert.True(t, mr.Exists(RecalculationLockKey))

	require.NoError(t, cache.ReleaseLock(ctx, RecalculationLockKey, "a"))
	assert.False(t, mr.Exists(RecalculationLockKey))

	ok, err = cache.AcquireLock(ctx, RecalculationLockKey, "b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(RecalculationLockKey))
}
