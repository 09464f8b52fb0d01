package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpcf/razorgen/host"
)

func TestNewCacheKey(t *testing.T) {
	a := NewCacheKey("Views/Index.cshtml", "<p></p>", "fp")
	b := NewCacheKey("Views/Index.cshtml", "<p></p>", "fp")
	assert.Equal(t, a, b)
	assert.Len(t, a.SourceHash, 64)

	assert.NotEqual(t, a, NewCacheKey("Views/Index.cshtml", "<p>x</p>", "fp"))
	assert.NotEqual(t, a, NewCacheKey("Views/Index.cshtml", "<p></p>", "other"))
	assert.NotEqual(t, a, NewCacheKey("Views/About.cshtml", "<p></p>", "fp"))
}

func TestResultCache(t *testing.T) {
	cache := NewResultCache()
	key := NewCacheKey("Views/Index.cshtml", "<p></p>", "fp")

	_, ok := cache.Get(key)
	assert.False(t, ok)

	res := &Result{
		Path:       "Views/Index.cshtml",
		Flavor:     "MvcView",
		Code:       []byte("class A {}"),
		Directives: host.Directives{"Namespace": "A"},
	}
	cache.Put(key, res)

	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.True(t, got.Cached)
	assert.False(t, res.Cached)
	assert.Equal(t, "class A {}", string(got.Code))

	// Results handed out are copies.
	got.Code[0] = 'X'
	got.Directives["Namespace"] = "B"
	again, _ := cache.Get(key)
	assert.Equal(t, "class A {}", string(again.Code))
	assert.Equal(t, "A", again.Directives["Namespace"])

	// A newer entry for the same path replaces the older one.
	newer := NewCacheKey("Views/Index.cshtml", "<p>new</p>", "fp")
	cache.Put(newer, res)
	assert.Equal(t, 1, cache.Len())
	_, ok = cache.Get(key)
	assert.False(t, ok)

	cache.Put(NewCacheKey("Views/About.cshtml", "", "fp"), res)
	assert.Equal(t, 2, cache.Len())

	cache.Invalidate("Views/Index.cshtml")
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}
