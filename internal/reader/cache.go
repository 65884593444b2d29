package reader

import (
	"fmt"
	"image"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
)

// PageCache holds decoded page bitmaps, bounded by a least-recently-used
// ceiling. Only the coordinator's drain writes to it.
type PageCache struct {
	lru *lru.Cache[int, image.Image]
}

// NewPageCache returns a cache holding at most size bitmaps. onEvict, when
// set, is called for every page that leaves the cache.
func NewPageCache(size int, onEvict func(page int)) (*PageCache, error) {
	var (
		l   *lru.Cache[int, image.Image]
		err error
	)
	if onEvict != nil {
		l, err = lru.NewWithEvict(size, func(page int, _ image.Image) { onEvict(page) })
	} else {
		l, err = lru.New[int, image.Image](size)
	}
	if err != nil {
		return nil, fmt.Errorf("create page cache: %w", err)
	}
	return &PageCache{lru: l}, nil
}

// Get returns the bitmap for page and marks it recently used.
func (c *PageCache) Get(page int) (image.Image, bool) {
	return c.lru.Get(page)
}

// Peek returns the bitmap for page without touching recency.
func (c *PageCache) Peek(page int) (image.Image, bool) {
	return c.lru.Peek(page)
}

// Contains reports presence without touching recency.
func (c *PageCache) Contains(page int) bool {
	return c.lru.Contains(page)
}

func (c *PageCache) Put(page int, img image.Image) {
	c.lru.Add(page, img)
}

func (c *PageCache) Clear() {
	c.lru.Purge()
}

func (c *PageCache) Len() int {
	return c.lru.Len()
}

// Pages returns the cached page indices in ascending order.
func (c *PageCache) Pages() []int {
	keys := c.lru.Keys()
	sort.Ints(keys)
	return keys
}

// Protocol is a bitmap encoded for a terminal graphics backend.
type Protocol interface {
	// Render returns the text that draws the image at the cursor.
	Render() string
	// Size reports the cells actually covered by the image.
	Size() (cols, rows int)
}

type ProtocolKey struct {
	Page int
	Side Side
}

// ProtocolEntry remembers the panel rect a protocol was built for.
type ProtocolEntry struct {
	Rect     Rect
	Protocol Protocol
}

// ProtocolCache maps (page, side) to the last protocol built for it.
type ProtocolCache struct {
	entries map[ProtocolKey]ProtocolEntry
}

func NewProtocolCache() *ProtocolCache {
	return &ProtocolCache{entries: make(map[ProtocolKey]ProtocolEntry)}
}

func (c *ProtocolCache) Get(key ProtocolKey) (ProtocolEntry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

func (c *ProtocolCache) Put(key ProtocolKey, entry ProtocolEntry) {
	c.entries[key] = entry
}

// IsStale reports whether the entry for key cannot be drawn into rect. A
// missing entry is stale.
func (c *ProtocolCache) IsStale(key ProtocolKey, rect Rect) bool {
	e, ok := c.entries[key]
	if !ok {
		return true
	}
	return !e.Rect.SameSize(rect)
}

// Usable returns the protocol for key only when it was built for rect's size.
func (c *ProtocolCache) Usable(key ProtocolKey, rect Rect) (Protocol, bool) {
	if c.IsStale(key, rect) {
		return nil, false
	}
	return c.entries[key].Protocol, true
}

// RemovePage drops the entries of both sides of page.
func (c *ProtocolCache) RemovePage(page int) {
	for _, side := range sides {
		delete(c.entries, ProtocolKey{Page: page, Side: side})
	}
}

func (c *ProtocolCache) Clear() {
	clear(c.entries)
}

func (c *ProtocolCache) Len() int {
	return len(c.entries)
}
