package slicekit

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MemoryProgramCache is an unbounded ProgramCache safe for concurrent use.
type MemoryProgramCache struct {
	programs sync.Map
}

// NewMemoryProgramCache returns an empty cache.
func NewMemoryProgramCache() *MemoryProgramCache {
	return &MemoryProgramCache{}
}

func (c *MemoryProgramCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

func (c *MemoryProgramCache) Set(key string, value any) {
	c.programs.Store(key, value)
}

// LRUProgramCache bounds the number of cached programs, evicting the least
// recently used entry once size is reached.
type LRUProgramCache struct {
	programs *lru.Cache
}

// NewLRUProgramCache returns a cache holding at most size programs.
func NewLRUProgramCache(size int) (*LRUProgramCache, error) {
	programs, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("slicekit: program cache: %w", err)
	}
	return &LRUProgramCache{programs: programs}, nil
}

func (c *LRUProgramCache) Get(key string) (any, bool) {
	return c.programs.Get(key)
}

func (c *LRUProgramCache) Set(key string, value any) {
	c.programs.Add(key, value)
}

// Keys returns the cached keys from oldest to newest.
func (c *LRUProgramCache) Keys() []string {
	keys := c.programs.Keys()
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if name, ok := key.(string); ok {
			out = append(out, name)
		}
	}
	return out
}

// Len reports how many programs are cached.
func (c *LRUProgramCache) Len() int {
	return c.programs.Len()
}
