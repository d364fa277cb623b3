// Package tracker keeps a short-term, per-author memory of recent posts in the
// announcement channel. It backs the "recent posts" exclusion signal.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/tenchan000517/zeroone-support-sub001/models"

	"github.com/redis/go-redis/v9"
)

// resolution is the granularity post times are kept at by every Store.
const resolution = time.Microsecond

// Store records post timestamps per author within a sliding window.
// An entry at time t is live iff now-t < window.
type Store interface {
	// RecordAndCheck drops expired entries for the author, appends now and
	// reports whether another live entry remains besides the new one. The
	// three steps are atomic with respect to other calls for the same author.
	RecordAndCheck(ctx context.Context, authorID string, now time.Time) (bool, error)
	// HasRecentPosts reports whether the author has more than one live entry,
	// i.e. at least one post besides the one just recorded. It writes nothing.
	HasRecentPosts(ctx context.Context, authorID string, now time.Time) (bool, error)
	// ActiveAuthors counts authors with at least one live entry.
	ActiveAuthors(ctx context.Context, now time.Time) (int, error)
	// Evict removes authors with no live entries and returns how many were removed.
	Evict(ctx context.Context, now time.Time) (int, error)
}

// NewStore builds the store selected by cfg.Tracker.Store.
func NewStore(cfg models.AnnouncementConfig) (Store, error) {
	switch cfg.Tracker.Store {
	case "", "memory":
		return NewMemoryStore(cfg.Window), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Tracker.RedisAddr,
			DB:   cfg.Tracker.RedisDB,
		})
		return NewRedisStore(client, cfg.Tracker.KeyPrefix, cfg.Window), nil
	default:
		return nil, fmt.Errorf("unknown tracker store %q", cfg.Tracker.Store)
	}
}
