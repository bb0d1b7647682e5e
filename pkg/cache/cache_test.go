package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulekit/rulekit"
)

func TestCacheGetSet(t *testing.T) {
	c := New(2)
	assert.Equal(t, 2, c.Capacity())

	_, ok := c.Get("age > 21")
	assert.False(t, ok)

	rule := rulekit.MustNew("age > 21")
	c.Set("age > 21", rule)
	got, ok := c.Get("age > 21")
	require.True(t, ok)
	assert.Same(t, rule, got)
	assert.Equal(t, 1, c.Len())
}

func TestCacheEvictsLRU(t *testing.T) {
	c := New(2)
	c.Set("a", rulekit.MustNew("true"))
	c.Set("b", rulekit.MustNew("false"))

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", rulekit.MustNew("null"))
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCacheGetOrCompile(t *testing.T) {
	c := New(4)
	compiles := 0
	compile := func() (*rulekit.Rule, error) {
		compiles++
		return rulekit.New("issue >= 1")
	}

	first, err := c.GetOrCompile("issue >= 1", compile)
	require.NoError(t, err)
	second, err := c.GetOrCompile("issue >= 1", compile)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, compiles)
}

func TestCacheGetOrCompileError(t *testing.T) {
	c := New(4)
	fail := errors.New("boom")
	_, err := c.GetOrCompile("bad", func() (*rulekit.Rule, error) {
		return nil, fail
	})
	assert.ErrorIs(t, err, fail)
	assert.Equal(t, 0, c.Len(), "errors are not cached")
}

func TestCacheInvalidateAndClear(t *testing.T) {
	c := New(4)
	c.Set("a", rulekit.MustNew("true"))
	c.Set("b", rulekit.MustNew("true"))

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}
