package tracker

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. discordgo runs each event handler on its
// own goroutine, so every method holds the mutex for its whole append/prune/read.
type MemoryStore struct {
	window time.Duration
	mutex  sync.Mutex
	posts  map[string][]time.Time // author ID -> timestamps, oldest first
}

// NewMemoryStore creates an empty store with the given window.
func NewMemoryStore(window time.Duration) *MemoryStore {
	return &MemoryStore{
		window: window,
		posts:  make(map[string][]time.Time),
	}
}

// live returns the entries of ts still inside the window at now. Times are
// compared at microsecond resolution, the same as RedisStore scores.
func (m *MemoryStore) live(ts []time.Time, now time.Time) []time.Time {
	now = now.Truncate(resolution)
	kept := make([]time.Time, 0, len(ts))
	for _, t := range ts {
		if now.Sub(t) < m.window {
			kept = append(kept, t)
		}
	}
	return kept
}

// RecordAndCheck implements Store. Prune, append and count happen under one lock.
func (m *MemoryStore) RecordAndCheck(_ context.Context, authorID string, now time.Time) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	ts := append(m.live(m.posts[authorID], now), now.Truncate(resolution))
	m.posts[authorID] = ts
	return len(ts) > 1, nil
}

// HasRecentPosts implements Store.
func (m *MemoryStore) HasRecentPosts(_ context.Context, authorID string, now time.Time) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	ts, ok := m.posts[authorID]
	if !ok {
		return false, nil
	}
	return len(m.live(ts, now)) > 1, nil
}

// ActiveAuthors implements Store.
func (m *MemoryStore) ActiveAuthors(_ context.Context, now time.Time) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	active := 0
	for _, ts := range m.posts {
		if len(m.live(ts, now)) > 0 {
			active++
		}
	}
	return active, nil
}

// Evict implements Store. Surviving authors also get their expired entries pruned.
func (m *MemoryStore) Evict(_ context.Context, now time.Time) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	removed := 0
	for id, ts := range m.posts {
		kept := m.live(ts, now)
		if len(kept) == 0 {
			delete(m.posts, id)
			removed++
			continue
		}
		m.posts[id] = kept
	}
	return removed, nil
}

// Len returns the number of tracked authors, including those with only expired entries.
func (m *MemoryStore) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.posts)
}
