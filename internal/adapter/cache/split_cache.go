// Package cache memoises split results for the HTTP server.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"
)

// SplitCache is a size-bounded LRU of split results whose entries expire
// after a TTL.
type SplitCache struct {
	mu      sync.Mutex
	ll      *list.List
	entries map[string]*list.Element
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	hits   atomic.Uint64
	misses atomic.Uint64
}

type cacheEntry struct {
	key       string
	chunks    []string
	expiresAt time.Time
}

func NewSplitCache(maxSize int, ttl time.Duration) *SplitCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SplitCache{
		ll:      list.New(),
		entries: make(map[string]*list.Element),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Key identifies a split of text under the given settings.
func Key(text string, chunkSize, chunkOverlap int, measurer string) string {
	h := sha256.New()
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(chunkSize))
	binary.BigEndian.PutUint64(buf[8:], uint64(chunkOverlap))
	h.Write(buf[:])
	h.Write([]byte(measurer))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Get returns a copy of the cached chunks for key.
func (c *SplitCache) Get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.removeElement(el)
		c.misses.Add(1)
		return nil, false
	}

	c.ll.MoveToFront(el)
	c.hits.Add(1)
	return append([]string{}, entry.chunks...), true
}

func (c *SplitCache) Put(key string, chunks []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := append([]string{}, chunks...)
	expiresAt := c.now().Add(c.ttl)

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.chunks = stored
		entry.expiresAt = expiresAt
		c.ll.MoveToFront(el)
		return
	}

	c.entries[key] = c.ll.PushFront(&cacheEntry{key: key, chunks: stored, expiresAt: expiresAt})
	for c.ll.Len() > c.maxSize {
		c.removeElement(c.ll.Back())
	}
}

// Invalidate drops every entry.
func (c *SplitCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.entries = make(map[string]*list.Element)
}

func (c *SplitCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Stats returns the hit and miss counters.
func (c *SplitCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *SplitCache) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.entries, el.Value.(*cacheEntry).key)
}
