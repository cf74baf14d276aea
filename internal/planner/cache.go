package planner

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/elka-projekt/cs-voltdb/internal/catalog"
	"github.com/elka-projekt/cs-voltdb/internal/expr"
	"github.com/elka-projekt/cs-voltdb/internal/statement"
	"github.com/elka-projekt/cs-voltdb/internal/types"
)

// A Cache memoizes access-path enumerations per statement key.
// Concurrent requests for the same key plan once and share the result;
// the cached paths are immutable and may be aliased freely.
//
// Reuse of a cached path for a new invocation is only sound when the
// new parameter vector honors the path's bindings; callers check with
// Reusable before executing a cached plan.
type Cache struct {
	group singleflight.Group

	mu    sync.RWMutex
	paths map[string][]*AccessPath
}

func NewCache() *Cache {
	return &Cache{
		paths: make(map[string][]*AccessPath),
	}
}

// Paths returns the access paths for tbl under stmt, planning them on
// first use.
func (c *Cache) Paths(key string, tbl *catalog.Table, stmt *statement.Statement) []*AccessPath {
	c.mu.RLock()
	cached, ok := c.paths[key]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		paths := EnumerateAccessPaths(tbl, stmt)

		c.mu.Lock()
		c.paths[key] = paths
		c.mu.Unlock()

		return paths, nil
	})

	return v.([]*AccessPath)
}

// Invalidate drops the cached enumeration for a key, typically after a
// schema change.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.paths, key)
	c.mu.Unlock()
}

// Reusable reports whether a cached path stays valid for a new
// parameter vector. Each binding pins the parameter at its position:
// a parameter bound through an indexed expression must carry the same
// value it was planned with, and a parameter bound through a LIKE
// conversion must still be a prefix pattern.
func Reusable(path *AccessPath, params []types.Value) bool {
	for _, b := range path.Bindings {
		if b.Original == nil || b.Index < 0 || b.Index >= len(params) {
			return false
		}

		v := params[b.Index]
		if b.Original.PrefixPattern {
			if v.Type() != types.TypeText || !expr.IsPrefixPattern(types.AsString(v)) {
				return false
			}
			continue
		}

		if !types.IsEqual(v, b.Original.Value) {
			return false
		}
	}

	return true
}
