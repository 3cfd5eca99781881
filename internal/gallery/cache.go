package gallery

import (
	"sync"
	"time"
)

// Cache holds the most recent clip scan for one bucket.
//
// A scan that stopped at its limit is not exhaustive; it only answers
// requests it holds enough clips for.
type Cache struct {
	mu    sync.Mutex
	entry *cacheEntry
}

type cacheEntry struct {
	bucket     string
	clips      []Clip
	capturedAt time.Time
	exhaustive bool
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns up to limit cached clips for bucket if the entry is younger
// than ttl and can satisfy limit.
func (c *Cache) Get(bucket string, limit int, now time.Time, ttl time.Duration) ([]Clip, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry
	if e == nil || e.bucket != bucket {
		return nil, false
	}
	if now.Sub(e.capturedAt) >= ttl {
		return nil, false
	}
	if !e.exhaustive && len(e.clips) < limit {
		return nil, false
	}

	return prefix(e.clips, limit), true
}

// Put replaces the cached entry.
func (c *Cache) Put(bucket string, clips []Clip, exhaustive bool, now time.Time) {
	stored := make([]Clip, len(clips))
	copy(stored, clips)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = &cacheEntry{
		bucket:     bucket,
		clips:      stored,
		capturedAt: now,
		exhaustive: exhaustive,
	}
}

// Invalidate drops the cached entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}

// prefix returns a copy of the first n clips.
func prefix(clips []Clip, n int) []Clip {
	if n > len(clips) {
		n = len(clips)
	}
	out := make([]Clip, n)
	copy(out, clips[:n])
	return out
}
