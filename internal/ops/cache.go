// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package ops

import (
	"container/list"
	"sync"
)

// A read-through cache of parsed datasets with a byte budget. Entries are written
// once per key and only replaced after an explicit Remove. When over budget, the least
// recently used entries are evicted.
type Cache struct {
	mu      sync.Mutex
	budget  int64 // in bytes, <=0 is unlimited
	used    int64
	entries map[string]*list.Element
	lru     *list.List // front is most recently used
}

type cacheEntry struct {
	key   string
	value interface{}
	size  int64
}

func NewCache(budget int64) *Cache {
	return &Cache{
		budget:  budget,
		entries: map[string]*list.Element{},
		lru:     list.New(),
	}
}

func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.lru.MoveToFront(e)
		return e.Value.(*cacheEntry).value, true
	}
	return nil, false
}

// Stores value under key unless the key is already present. Returns the cached value
func (c *Cache) Put(key string, value interface{}, size int64) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.lru.MoveToFront(e)
		return e.Value.(*cacheEntry).value
	}
	c.entries[key] = c.lru.PushFront(&cacheEntry{key: key, value: value, size: size})
	c.used += size
	c.evict()
	return value
}

// Returns the cached value for key, or calls load and caches its result.
// Load runs without holding the lock; if two loads race, the first one stored wins
func (c *Cache) GetOrLoad(key string, load func() (value interface{}, size int64, err error)) (interface{}, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, size, err := load()
	if err != nil {
		return nil, err
	}
	return c.Put(key, v, size), nil
}

func (c *Cache) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeElement(e)
	return true
}

// Removes all entries
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*list.Element{}
	c.lru.Init()
	c.used = 0
}

func (c *Cache) SetBudget(budget int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.budget = budget
	c.evict()
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Returns the number of bytes held
func (c *Cache) Used() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// evicts from the back, never the most recent entry. Caller holds the lock
func (c *Cache) evict() {
	if c.budget <= 0 {
		return
	}
	for c.used > c.budget && c.lru.Len() > 1 {
		c.removeElement(c.lru.Back())
	}
}

func (c *Cache) removeElement(e *list.Element) {
	ce := c.lru.Remove(e).(*cacheEntry)
	delete(c.entries, ce.key)
	c.used -= ce.size
}
