// Package mesh implements the mesh controller (spec §4.9): duplicate
// suppression, randomized exponential backoff to prevent broadcast
// storms, hop- and age-based TTL enforcement, and the relay policy tying
// them together.
package mesh

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultCacheMaxSize is the default bound on the duplicate-suppression
// cache (spec §6 Mesh config).
const DefaultCacheMaxSize = 10_000

// DefaultCacheTTL is the default entry lifetime in the duplicate cache.
const DefaultCacheTTL = 24 * time.Hour

// CacheEntry records bookkeeping for one previously-seen message ID
// (spec §3 MessageCacheEntry).
type CacheEntry struct {
	FirstSeen  time.Time
	LastAccess time.Time
	RelayedTo  map[string]bool
}

// MessageCache is the LRU+TTL duplicate-suppression cache (spec §4.9).
// Storage is backed by patrickmn/go-cache for TTL expiry; a
// container/list tracks most-recently-used order so MaxSize capacity is
// enforced independently of the TTL, the same pairing used by
// fragment.Reassembler.
type MessageCache struct {
	MaxSize int
	TTL     time.Duration

	mu       sync.Mutex
	store    *gocache.Cache
	order    *list.List
	elements map[uint32]*list.Element
}

// NewMessageCache returns a MessageCache with the given capacity and
// entry TTL. A maxSize or ttl of 0 selects the spec defaults.
func NewMessageCache(maxSize int, ttl time.Duration) *MessageCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MessageCache{
		MaxSize:  maxSize,
		TTL:      ttl,
		store:    gocache.New(ttl, ttl/24+time.Minute),
		order:    list.New(),
		elements: make(map[uint32]*list.Element),
	}
}

func (c *MessageCache) touch(id uint32) {
	if el, ok := c.elements[id]; ok {
		c.order.MoveToBack(el)
		return
	}
	c.elements[id] = c.order.PushBack(id)
}

func (c *MessageCache) evictOldestLocked() {
	front := c.order.Front()
	if front == nil {
		return
	}
	oldest := front.Value.(uint32)
	c.order.Remove(front)
	delete(c.elements, oldest)
	c.store.Delete(fmt.Sprint(oldest))
}

// Observe records that id was just received and reports whether this is
// the first time it has been seen while its entry lives in the cache
// (spec: "the number of PacketReceived{is_new=true} events per
// message_id is <= 1 while the entry lives in the cache"). An existing
// entry is moved to most-recently-used and its LastAccess is bumped;
// exactly one new entry is created for a never-before-seen id, evicting
// the least-recently-used entry first if the cache is at capacity.
func (c *MessageCache) Observe(id uint32, now time.Time) (isNew bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := fmt.Sprint(id)
	if raw, ok := c.store.Get(key); ok {
		entry := raw.(*CacheEntry)
		entry.LastAccess = now
		c.store.Set(key, entry, c.TTL)
		c.touch(id)
		return false
	}

	if len(c.elements) >= c.MaxSize {
		c.evictOldestLocked()
	}
	entry := &CacheEntry{FirstSeen: now, LastAccess: now, RelayedTo: make(map[string]bool)}
	c.store.Set(key, entry, c.TTL)
	c.touch(id)
	return true
}

// HasSeen reports whether id currently has a live entry, without
// mutating LRU order or creating one.
func (c *MessageCache) HasSeen(id uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store.Get(fmt.Sprint(id))
	return ok
}

// MarkRelayedTo annotates id's entry with a peer it has been relayed to,
// for per-peer deduplication (spec §4.9). It is a no-op if id has no
// live entry.
func (c *MessageCache) MarkRelayedTo(id uint32, peer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := fmt.Sprint(id)
	raw, ok := c.store.Get(key)
	if !ok {
		return
	}
	entry := raw.(*CacheEntry)
	entry.RelayedTo[peer] = true
	c.store.Set(key, entry, c.TTL)
}

// RelayedTo reports whether id has previously been relayed to peer.
func (c *MessageCache) RelayedTo(id uint32, peer string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.store.Get(fmt.Sprint(id))
	if !ok {
		return false
	}
	return raw.(*CacheEntry).RelayedTo[peer]
}

// Cleanup forces a synchronous sweep of entries whose underlying cache
// item has already expired, removing their LRU bookkeeping. go-cache's
// own janitor independently reclaims expired storage on the same TTL;
// Cleanup exists for deterministic tests and explicit teardown.
func (c *MessageCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var stale []uint32
	for id := range c.elements {
		if _, ok := c.store.Get(fmt.Sprint(id)); !ok {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		if el, ok := c.elements[id]; ok {
			c.order.Remove(el)
			delete(c.elements, id)
		}
	}
}

// Count returns the number of live entries.
func (c *MessageCache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.elements)
}
