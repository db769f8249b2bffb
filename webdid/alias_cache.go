package webdid

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pilacorp/go-did-linkage/common/credential"
)

// aliasCache is a read-through, TTL-bound cache of each identifier's most
// recent designated-aliases credential. Concurrent misses for the same key
// are collapsed into one fetch.
type aliasCache struct {
	ttl   time.Duration
	fetch func(ctx context.Context, aid string) (*credential.DesignatedAliases, error)

	mu      sync.RWMutex
	entries map[string]aliasCacheEntry
	group   singleflight.Group
}

type aliasCacheEntry struct {
	cred      *credential.DesignatedAliases // nil when the subject has issued none
	fetchedAt time.Time
}

func newAliasCache(ttl time.Duration, fetch func(ctx context.Context, aid string) (*credential.DesignatedAliases, error)) *aliasCache {
	return &aliasCache{
		ttl:     ttl,
		fetch:   fetch,
		entries: make(map[string]aliasCacheEntry),
	}
}

// get returns the cached credential for aid, fetching on a miss or after the
// TTL elapsed. A nil credential with nil error means the subject has issued
// no designated-aliases credential; that absence is cached too.
func (c *aliasCache) get(ctx context.Context, aid string) (*credential.DesignatedAliases, error) {
	c.mu.RLock()
	entry, ok := c.entries[aid]
	c.mu.RUnlock()

	if ok && time.Since(entry.fetchedAt) < c.ttl {
		return entry.cred, nil
	}

	result, err, _ := c.group.Do(aid, func() (interface{}, error) {
		cred, err := c.fetch(ctx, aid)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[aid] = aliasCacheEntry{cred: cred, fetchedAt: time.Now()}
		c.mu.Unlock()

		return cred, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*credential.DesignatedAliases), nil
}
