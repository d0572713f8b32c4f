package query

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// astCache is a bounded cache from the xxhash of an expression's text to
// its parsed AST. ASTs are never mutated after parsing, so a cached tree can
// be resolved concurrently against any entity type.
//
// Eviction strategy: when the cache reaches its capacity limit the entire map
// is replaced. This is sufficient for the target use-case of a small number
// of distinct filter templates repeated many times.
type astCache struct {
	mu    sync.RWMutex
	items map[uint64]astCacheEntry
	max   int
}

// astCacheEntry keeps the text so hash collisions fall back to parsing.
type astCacheEntry struct {
	text string
	node ASTNode
}

var globalASTCache = newASTCache(256)

func newASTCache(max int) *astCache {
	return &astCache{items: make(map[uint64]astCacheEntry, max), max: max}
}

func (c *astCache) get(text string) (ASTNode, bool) {
	key := xxhash.Sum64String(text)
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || e.text != text {
		return nil, false
	}
	return e.node, true
}

func (c *astCache) put(text string, node ASTNode) {
	key := xxhash.Sum64String(text)
	c.mu.Lock()
	if len(c.items) >= c.max {
		c.items = make(map[uint64]astCacheEntry, c.max)
	}
	c.items[key] = astCacheEntry{text: text, node: node}
	c.mu.Unlock()
}

func (c *astCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// parseCached parses text through the global cache. Parse errors are not cached.
func parseCached(text string) (ASTNode, error) {
	if node, ok := globalASTCache.get(text); ok {
		return node, nil
	}
	node, err := ParseExpression(text)
	if err != nil {
		return nil, err
	}
	globalASTCache.put(text, node)
	return node, nil
}
