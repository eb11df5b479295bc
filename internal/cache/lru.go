package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache holds at most capacity values keyed by string. A value is
// served until its lifetime runs out; once full, the value read or written
// longest ago makes room for the new one.
//
// The budget service keys statistics by user and month, so one user's
// months can be dropped together with DeleteFunc.
type LRUCache[T any] struct {
	mu       sync.Mutex
	capacity int
	lifetime time.Duration
	now      func() time.Time
	index    map[string]*list.Element
	// order runs from most recently touched (front) to least (back).
	order *list.List
}

type entry[T any] struct {
	key     string
	value   T
	expires time.Time
}

func (e *entry[T]) stale(now time.Time) bool {
	return now.After(e.expires)
}

var _ Cache[int] = (*LRUCache[int])(nil)

// NewLRUCache returns an empty cache keeping values for lifetime. Capacity
// is at least one.
func NewLRUCache[T any](capacity int, lifetime time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		capacity: max(capacity, 1),
		lifetime: lifetime,
		now:      time.Now,
		index:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the value for key and marks it as recently used. A stale
// value is dropped and reported as missing.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.index[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if e.stale(c.now()) {
		c.drop(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

// Set stores value under key with a fresh lifetime.
func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expires: c.now().Add(c.lifetime)}
	if elem, ok := c.index[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}
	c.index[key] = c.order.PushFront(e)
	for c.order.Len() > c.capacity {
		c.drop(c.order.Back())
	}
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.index[key]; ok {
		c.drop(elem)
	}
}

func (c *LRUCache[T]) DeleteFunc(match func(key string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, elem := range c.index {
		if match(key) {
			c.drop(elem)
			n++
		}
	}
	return n
}

// CleanExpired drops stale values and reports how many went.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*entry[T]).stale(now) {
			c.drop(elem)
			n++
		}
		elem = prev
	}
	return n
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// drop unlinks elem. Callers hold mu.
func (c *LRUCache[T]) drop(elem *list.Element) {
	delete(c.index, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}
