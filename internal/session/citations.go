package session

import (
	"context"
	"slices"
	"strings"
	"sync"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"golang.org/x/sync/singleflight"
)

const citationBatchSize = 100

// citationCache holds citation metadata for the lifetime of a session.
// Concurrent lookups of the same ids share one request.
type citationCache struct {
	store CitationStore
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]v1.Citation
}

func newCitationCache(store CitationStore) *citationCache {
	return &citationCache{
		store:   store,
		entries: make(map[string]v1.Citation),
	}
}

func (c *citationCache) lookup(id string) (v1.Citation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	citation, ok := c.entries[id]
	return citation, ok
}

func (c *citationCache) put(citations ...v1.Citation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, citation := range citations {
		c.entries[citation.ID] = citation
	}
}

// get returns one citation, fetching it when not cached.
func (c *citationCache) get(ctx context.Context, id string) (v1.Citation, error) {
	if citation, ok := c.lookup(id); ok {
		return citation, nil
	}
	if err := c.fetch(ctx, []string{id}); err != nil {
		return v1.Citation{}, err
	}
	if citation, ok := c.lookup(id); ok {
		return citation, nil
	}
	return v1.Citation{}, ErrCitationNotFound
}

// prefetch loads every id that is not cached yet.
func (c *citationCache) prefetch(ctx context.Context, ids []string) error {
	var missing []string
	for _, id := range ids {
		if _, ok := c.lookup(id); !ok && !slices.Contains(missing, id) {
			missing = append(missing, id)
		}
	}

	for start := 0; start < len(missing); start += citationBatchSize {
		end := min(start+citationBatchSize, len(missing))
		if err := c.fetch(ctx, missing[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (c *citationCache) fetch(ctx context.Context, ids []string) error {
	key := slices.Clone(ids)
	slices.Sort(key)

	_, err, _ := c.group.Do(strings.Join(key, ","), func() (any, error) {
		citations, err := c.store.GetCitationsByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		c.put(citations...)
		return nil, nil
	})
	return err
}
