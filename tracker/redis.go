package tracker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one sorted set per author, scored by unix microseconds.
// Keys carry a TTL of one window so idle authors disappear on their own.
type RedisStore struct {
	client *redis.Client
	prefix string
	window time.Duration
}

// NewRedisStore creates a store on top of an existing client.
func NewRedisStore(client *redis.Client, prefix string, window time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		window: window,
	}
}

func (r *RedisStore) key(authorID string) string {
	return r.prefix + authorID
}

// cutoff is the newest score that is already expired at now.
func (r *RedisStore) cutoff(now time.Time) string {
	return strconv.FormatInt(now.Add(-r.window).UnixMicro(), 10)
}

// RecordAndCheck implements Store. Prune, add and count run in one MULTI/EXEC.
func (r *RedisStore) RecordAndCheck(ctx context.Context, authorID string, now time.Time) (bool, error) {
	key := r.key(authorID)
	cutoff := r.cutoff(now)
	var count *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", cutoff)
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMicro()), Member: uuid.NewString()})
		pipe.PExpire(ctx, key, r.window)
		count = pipe.ZCount(ctx, key, "("+cutoff, "+inf")
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to record post for author %s: %w", authorID, err)
	}
	return count.Val() > 1, nil
}

func (r *RedisStore) liveCount(ctx context.Context, key string, now time.Time) (int64, error) {
	return r.client.ZCount(ctx, key, "("+r.cutoff(now), "+inf").Result()
}

// HasRecentPosts implements Store.
func (r *RedisStore) HasRecentPosts(ctx context.Context, authorID string, now time.Time) (bool, error) {
	n, err := r.liveCount(ctx, r.key(authorID), now)
	if err != nil {
		return false, fmt.Errorf("failed to count recent posts for author %s: %w", authorID, err)
	}
	return n > 1, nil
}

// ActiveAuthors implements Store.
func (r *RedisStore) ActiveAuthors(ctx context.Context, now time.Time) (int, error) {
	active := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := r.liveCount(ctx, iter.Val(), now)
		if err != nil {
			return 0, fmt.Errorf("failed to count posts in %s: %w", iter.Val(), err)
		}
		if n > 0 {
			active++
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan tracker keys: %w", err)
	}
	return active, nil
}

// Evict implements Store. Key TTLs normally do this already; Evict catches keys
// whose TTL was extended by a post that has since expired too.
func (r *RedisStore) Evict(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := r.client.ZRemRangeByScore(ctx, key, "-inf", r.cutoff(now)).Err(); err != nil {
			return removed, fmt.Errorf("failed to prune %s: %w", key, err)
		}
		n, err := r.client.ZCard(ctx, key).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to size %s: %w", key, err)
		}
		if n > 0 {
			continue
		}
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return removed, fmt.Errorf("failed to delete %s: %w", key, err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan tracker keys: %w", err)
	}
	return removed, nil
}

// Close closes the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
