package collections

import (
	"context"
	"sync"
	"time"

	"netbox-sync/core/netbox"

	"golang.org/x/sync/singleflight"
)

// LookupCache holds slug → id reference tables (sites, device types,
// platforms) with a TTL. Reference data changes rarely, so back-to-back
// runs in serve mode can share one fetch; singleflight keeps concurrent
// runs from stampeding the same endpoint.
//
// A zero TTL disables reuse: every call fetches fresh, still with
// stampede protection.
type LookupCache struct {
	ttl time.Duration

	mu     sync.RWMutex
	tables map[string]*cachedTable
	sf     singleflight.Group
}

type cachedTable struct {
	table map[string]int
	built time.Time
}

func (t *cachedTable) expired(ttl time.Duration) bool {
	if ttl == 0 {
		return true
	}
	return time.Since(t.built) > ttl
}

// NewLookupCache returns a cache whose entries live for ttl.
func NewLookupCache(ttl time.Duration) *LookupCache {
	return &LookupCache{
		ttl:    ttl,
		tables: make(map[string]*cachedTable),
	}
}

// SlugTable returns the slug → id table for the given list endpoint,
// fetching it through client when the cached copy is missing or expired.
// The returned map is shared: callers must treat it as read-only.
func (lc *LookupCache) SlugTable(ctx context.Context, client *netbox.Client, path string) (map[string]int, error) {
	lc.mu.RLock()
	cached, ok := lc.tables[path]
	lc.mu.RUnlock()

	if ok && !cached.expired(lc.ttl) {
		return cached.table, nil
	}

	result, err, _ := lc.sf.Do(path, func() (interface{}, error) {
		// Re-check under the flight: a concurrent caller may have
		// refreshed the entry while this one waited.
		lc.mu.RLock()
		cached, ok := lc.tables[path]
		lc.mu.RUnlock()

		if ok && !cached.expired(lc.ttl) {
			return cached.table, nil
		}

		table, err := client.SlugTable(ctx, path)
		if err != nil {
			return nil, err
		}

		lc.mu.Lock()
		lc.tables[path] = &cachedTable{table: table, built: time.Now()}
		lc.mu.Unlock()

		return table, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(map[string]int), nil
}

// Invalidate drops every cached table.
func (lc *LookupCache) Invalidate() {
	lc.mu.Lock()
	lc.tables = make(map[string]*cachedTable)
	lc.mu.Unlock()
}
