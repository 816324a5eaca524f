package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sportsmatch/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	// rankingKeyPrefix prefixes the per-sport sorted set of ranked users
	rankingKeyPrefix = "ranking:"

	// RecalculationLockKey guards the tier recalculation batch across instances
	RecalculationLockKey = "tiers:recalculate:lock"
)

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RankingCache stores the latest per-sport rankings in Redis
type RankingCache struct {
	client *redis.Client
}

// NewRankingCache creates a new Redis ranking cache
func NewRankingCache(client *redis.Client) *RankingCache {
	return &RankingCache{
		client: client,
	}
}

func rankingKey(sportsTypeID int) string {
	return fmt.Sprintf("%s%d", rankingKeyPrefix, sportsTypeID)
}

func rankingMetaKey(sportsTypeID int) string {
	return rankingKey(sportsTypeID) + ":meta"
}

// StoreRanking replaces a sport's ranking. Members are scored by position so
// ZREVRANGE returns them in the engine's order; rank, average and tier live in a hash.
func (r *RankingCache) StoreRanking(ctx context.Context, sportsTypeID int, ranked []models.RankingEntry) error {
	key, metaKey := rankingKey(sportsTypeID), rankingMetaKey(sportsTypeID)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key, metaKey)
		if len(ranked) == 0 {
			return nil
		}

		members := make([]redis.Z, 0, len(ranked))
		meta := make([]interface{}, 0, len(ranked)*2)
		for i, u := range ranked {
			members = append(members, redis.Z{
				Score:  float64(len(ranked) - i),
				Member: u.UserID,
			})
			meta = append(meta, u.UserID, encodeRankMeta(u))
		}
		pipe.ZAdd(ctx, key, members...)
		pipe.HSet(ctx, metaKey, meta...)
		return nil
	})
	return err
}

// GetRanking returns a page of a sport's ranking, best first, and the total size
func (r *RankingCache) GetRanking(ctx context.Context, sportsTypeID, offset, limit int) ([]models.RankingEntry, int64, error) {
	key, metaKey := rankingKey(sportsTypeID), rankingMetaKey(sportsTypeID)

	total, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return nil, 0, err
	}

	ids, err := r.client.ZRevRange(ctx, key, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []models.RankingEntry{}, total, nil
	}

	values, err := r.client.HMGet(ctx, metaKey, ids...).Result()
	if err != nil {
		return nil, 0, err
	}

	ranked := make([]models.RankingEntry, 0, len(ids))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // ranking replaced between the two reads
		}
		u, err := decodeRankMeta(ids[i], raw)
		if err != nil {
			continue
		}
		ranked = append(ranked, u)
	}
	return ranked, total, nil
}

// AcquireLock takes key for ttl if nobody holds it. token identifies the holder.
func (r *RankingCache) AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, token, ttl).Result()
}

// ReleaseLock drops key only while token still holds it
func (r *RankingCache) ReleaseLock(ctx context.Context, key, token string) error {
	err := releaseLockScript.Run(ctx, r.client, []string{key}, token).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// Ping checks if Redis is reachable
func (r *RankingCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RankingCache) Close() error {
	return r.client.Close()
}

func encodeRankMeta(e models.RankingEntry) string {
	return strconv.Itoa(e.Rank) + "|" + strconv.FormatFloat(e.Average, 'f', 2, 64) + "|" + string(e.Tier)
}

func decodeRankMeta(userID, raw string) (models.RankingEntry, error) {
	parts := strings.SplitN(raw, "|", 3)
	if len(parts) != 3 {
		return models.RankingEntry{}, fmt.Errorf("invalid ranking metadata %q", raw)
	}
	rank, err := strconv.Atoi(parts[0])
	if err != nil {
		return models.RankingEntry{}, fmt.Errorf("invalid ranking rank: %w", err)
	}
	average, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return models.RankingEntry{}, fmt.Errorf("invalid ranking average: %w", err)
	}
	return models.RankingEntry{Rank: rank, UserID: userID, Average: average, Tier: models.TierValue(parts[2])}, nil
}
