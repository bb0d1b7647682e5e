// Package cache keeps recently compiled rules so hosts that see the same
// rule text repeatedly (per request, per message) skip re-parsing and
// re-checking it.
//
// # Example
//
//	c := cache.New(1024)
//	rule, err := c.GetOrCompile(text, func() (*rulekit.Rule, error) {
//	    return rulekit.New(text)
//	})
package cache

import (
	"container/list"
	"sync"

	"github.com/rulekit/rulekit"
)

type entry struct {
	key  string
	rule *rulekit.Rule
}

// Cache holds compiled rules up to a fixed capacity, discarding the one
// accessed longest ago when room is needed. Compiled rules are immutable,
// so a cached rule may be handed to any number of callers at once; the
// Cache itself is safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	order    *list.List // entries, most recently used first
	index    map[string]*list.Element
}

// New creates a cache holding at most capacity rules. A capacity of zero
// or less falls back to 256.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the rule cached under key and marks it as recently used.
func (c *Cache) Get(key string) (*rulekit.Rule, bool) {
	c.mu.RLock()
	el, ok := c.index[key]
	recent := ok && c.order.Front() == el
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if recent {
		return el.Value.(*entry).rule, true
	}

	// Re-check under the write lock: the entry may have been evicted
	// between the two lock acquisitions.
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok = c.index[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).rule, true
}

// Set stores rule under key, evicting the least recently used entry when
// the cache is full. An existing entry for key is replaced.
func (c *Cache) Set(key string, rule *rulekit.Rule) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		el.Value.(*entry).rule = rule
		c.order.MoveToFront(el)
		return
	}
	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.index, oldest.Value.(*entry).key)
		}
	}
	c.index[key] = c.order.PushFront(&entry{key: key, rule: rule})
}

// GetOrCompile returns the cached rule for key, compiling and caching it on
// a miss. Compilation errors are returned without being cached, so a later
// call retries.
func (c *Cache) GetOrCompile(key string, compile func() (*rulekit.Rule, error)) (*rulekit.Rule, error) {
	if rule, ok := c.Get(key); ok {
		return rule, nil
	}
	rule, err := compile()
	if err != nil {
		return nil, err
	}
	c.Set(key, rule)
	return rule, nil
}

// Len returns the number of cached rules.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.index)
}

// Capacity returns the maximum number of rules the cache holds.
func (c *Cache) Capacity() int { return c.capacity }

// Invalidate drops the entry for key, if present.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.order.Remove(el)
		delete(c.index, key)
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.index = make(map[string]*list.Element, c.capacity)
}
