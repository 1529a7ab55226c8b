// Package cache keeps computed trophy boards per group for a bounded time.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/okian/gameboard/internal/domain/types"
	"github.com/okian/gameboard/pkg/metrics"
)

const defaultTTL = 24 * time.Hour

// TrophyCache stores trophy boards by group.
//
// Every group carries a generation that Invalidate advances. A board built
// from data read under an older generation is refused by Set, so a write
// that lands mid-build cannot be masked by the stale result.
type TrophyCache interface {
	// Get returns the cached board for groupID if present and not expired.
	Get(ctx context.Context, groupID string) (types.TrophyBoard, bool)

	// Generation returns the current generation of groupID. Read it before
	// loading the data a board is built from.
	Generation(ctx context.Context, groupID string) uint64

	// Set stores board for groupID if gen is still current. Returns false
	// when the group was invalidated since gen was read.
	Set(ctx context.Context, groupID string, gen uint64, board types.TrophyBoard) bool

	// Invalidate drops the entry for groupID and advances its generation.
	// Returns true if an entry existed.
	Invalidate(ctx context.Context, groupID string) bool

	// Len is the number of unexpired entries.
	Len() int
}

// TrophyKey is the cache key of a group's trophy board.
func TrophyKey(groupID string) string {
	return "trophies-" + groupID
}

// MemoryCache is a ttlcache-backed TrophyCache. Last write wins among
// writers holding the current generation.
type MemoryCache struct {
	ttl time.Duration

	// mu orders Set against Invalidate so the generation check and the
	// store are atomic.
	mu    sync.Mutex
	gens  map[string]uint64
	items *ttlcache.Cache[string, types.TrophyBoard]
}

var _ TrophyCache = (*MemoryCache)(nil)

// NewMemoryCache creates an empty cache.
func NewMemoryCache(opts ...Option) *MemoryCache {
	c := &MemoryCache{
		ttl:  defaultTTL,
		gens: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.items = ttlcache.New[string, types.TrophyBoard](
		ttlcache.WithTTL[string, types.TrophyBoard](c.ttl),
		ttlcache.WithDisableTouchOnHit[string, types.TrophyBoard](),
	)
	return c
}

func (c *MemoryCache) Get(_ context.Context, groupID string) (types.TrophyBoard, bool) {
	item := c.items.Get(TrophyKey(groupID))
	if item == nil || item.IsExpired() {
		metrics.RecordCacheMiss()
		return types.TrophyBoard{}, false
	}
	metrics.RecordCacheHit()
	return item.Value(), true
}

func (c *MemoryCache) Generation(_ context.Context, groupID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[groupID]
}

func (c *MemoryCache) Set(_ context.Context, groupID string, gen uint64, board types.TrophyBoard) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[groupID] != gen {
		return false
	}
	c.items.Set(TrophyKey(groupID), board, ttlcache.DefaultTTL)
	metrics.UpdateCacheEntries(c.items.Len())
	return true
}

func (c *MemoryCache) Invalidate(_ context.Context, groupID string) bool {
	key := TrophyKey(groupID)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[groupID]++
	if !c.items.Has(key) {
		return false
	}
	c.items.Delete(key)
	metrics.RecordCacheInvalidation()
	metrics.UpdateCacheEntries(c.items.Len())
	return true
}

func (c *MemoryCache) Len() int {
	c.items.DeleteExpired()
	n := c.items.Len()
	metrics.UpdateCacheEntries(n)
	return n
}
