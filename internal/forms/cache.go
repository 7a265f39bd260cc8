package forms

import (
	"container/list"
	"sync"
)

// TemplateCache keeps recently loaded template byte buffers in memory so a
// batch does not reread the same source file per descriptor or per tool
// call. Eviction is least-recently-used, bounded by both total bytes and
// entry count. Cached buffers are shared and must be treated as read-only;
// the fill pipeline never mutates template bytes, it copies them into fresh
// document instances.
type TemplateCache struct {
	entries   map[string]*cachedTemplate
	lruList   *list.List
	keyToNode map[string]*list.Element

	currentSize int64
	maxSize     int64
	maxEntries  int

	stats CacheStats
	mutex sync.RWMutex
}

type cachedTemplate struct {
	key  string
	data []byte
}

// CacheStats reports cache effectiveness for the server info surface.
type CacheStats struct {
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	Evictions  int64   `json:"evictions"`
	EntryCount int     `json:"entry_count"`
	TotalSize  int64   `json:"total_size"`
	HitRate    float64 `json:"hit_rate"`
}

// NewTemplateCache creates a cache bounded by maxSize bytes and maxEntries
// buffers.
func NewTemplateCache(maxSize int64, maxEntries int) *TemplateCache {
	return &TemplateCache{
		entries:    make(map[string]*cachedTemplate),
		lruList:    list.New(),
		keyToNode:  make(map[string]*list.Element),
		maxSize:    maxSize,
		maxEntries: maxEntries,
	}
}

// Get returns the cached bytes for a key, or nil on a miss.
func (c *TemplateCache) Get(key string) []byte {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.stats.Misses++
		return nil
	}

	if node, ok := c.keyToNode[key]; ok {
		c.lruList.MoveToFront(node)
	}
	c.stats.Hits++
	return entry.data
}

// Put stores bytes under a key, evicting least recently used entries until
// the bounds hold. Buffers larger than the cache itself are not stored.
func (c *TemplateCache) Put(key string, data []byte) {
	size := int64(len(data))
	if size == 0 || size > c.maxSize {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if existing, exists := c.entries[key]; exists {
		c.currentSize += size - int64(len(existing.data))
		existing.data = data
		if node, ok := c.keyToNode[key]; ok {
			c.lruList.MoveToFront(node)
		}
		c.evictOverflow()
		return
	}

	for c.currentSize+size > c.maxSize && c.lruList.Len() > 0 {
		c.evictLRU()
	}
	for c.maxEntries > 0 && len(c.entries) >= c.maxEntries && c.lruList.Len() > 0 {
		c.evictLRU()
	}

	entry := &cachedTemplate{key: key, data: data}
	c.entries[key] = entry
	c.keyToNode[key] = c.lruList.PushFront(entry)
	c.currentSize += size
}

// Contains reports whether a key is cached without counting a hit.
func (c *TemplateCache) Contains(key string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	_, exists := c.entries[key]
	return exists
}

// Clear drops every entry.
func (c *TemplateCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]*cachedTemplate)
	c.lruList = list.New()
	c.keyToNode = make(map[string]*list.Element)
	c.currentSize = 0
	c.stats = CacheStats{}
}

// Stats returns a snapshot of the cache counters.
func (c *TemplateCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := c.stats
	stats.EntryCount = len(c.entries)
	stats.TotalSize = c.currentSize
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	return stats
}

// evictOverflow restores the bounds after an in-place update grew an entry.
func (c *TemplateCache) evictOverflow() {
	for c.currentSize > c.maxSize && c.lruList.Len() > 1 {
		c.evictLRU()
	}
}

func (c *TemplateCache) evictLRU() {
	element := c.lruList.Back()
	if element == nil {
		return
	}

	entry := element.Value.(*cachedTemplate)
	delete(c.entries, entry.key)
	delete(c.keyToNode, entry.key)
	c.lruList.Remove(element)
	c.currentSize -= int64(len(entry.data))
	c.stats.Evictions++
}
