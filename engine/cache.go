package engine

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"sync"
)

// CacheKey identifies a compilation: the template path, a hash of its source and
// the fingerprint of the settings that shape the output.
type CacheKey struct {
	Path        string
	SourceHash  string
	Fingerprint string
}

func NewCacheKey(path, source, fingerprint string) CacheKey {
	sum := sha256.Sum256([]byte(source))
	return CacheKey{
		Path:        path,
		SourceHash:  hex.EncodeToString(sum[:]),
		Fingerprint: fingerprint,
	}
}

// ResultCache keeps compilation results so unchanged templates are not compiled
// again within a process, e.g. across watch-mode runs.
type ResultCache struct {
	mu      sync.RWMutex
	results map[CacheKey]*Result
}

func NewResultCache() *ResultCache {
	return &ResultCache{
		results: make(map[CacheKey]*Result),
	}
}

// Get returns a copy of the cached result for key, marked as cached.
func (c *ResultCache) Get(key CacheKey) (*Result, bool) {
	c.mu.RLock()
	res, exists := c.results[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	cp := cloneResult(res)
	cp.Cached = true
	return cp, true
}

// Put stores res under key, replacing older entries for the same path.
func (c *ResultCache) Put(key CacheKey, res *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.results {
		if k.Path == key.Path {
			delete(c.results, k)
		}
	}
	c.results[key] = cloneResult(res)
}

// Invalidate drops every entry for path.
func (c *ResultCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.results {
		if k.Path == path {
			delete(c.results, k)
		}
	}
}

func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}

func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = make(map[CacheKey]*Result)
}

func cloneResult(res *Result) *Result {
	cp := *res
	cp.Code = bytes.Clone(res.Code)
	cp.Directives = maps.Clone(res.Directives)
	return &cp
}
