package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/RoscoeTheDog/codectx/cache/contracts"
)

// DefaultCapacity bounds the cache when no explicit capacity is configured.
const DefaultCapacity = 100

// NotCachedResourceMissing is reported by Put when the backing resource
// cannot be read. The payload is still returned to the caller, it just is
// not cached.
const NotCachedResourceMissing = "not_cached:file_not_found"

// MissReason explains why a Get returned no payload.
type MissReason string

const (
	MissNone             MissReason = ""
	MissNoEntry          MissReason = "no_entry"
	MissResourceNotFound MissReason = "file_not_found"
	MissContentChanged   MissReason = "content_changed"
)

// CacheEntry is one stored payload together with the content hash of its
// backing resource at store time. Exported for snapshot encoding.
type CacheEntry struct {
	Key         string
	ResourceID  string
	Payload     []byte
	ContentHash string
	CreatedAt   time.Time
	HitCount    int
}

// CacheHit is the payload plus hit metadata returned on a validated hit.
type CacheHit struct {
	Payload     []byte    `json:"-"`
	ContentHash string    `json:"content_hash"`
	HitCount    int       `json:"hit_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// PutResult reports whether a payload was stored and what it displaced.
type PutResult struct {
	Stored      bool   `json:"stored"`
	Reason      string `json:"reason,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
	Evicted     int    `json:"evicted,omitempty"`
}

// ValidatedCache is a bounded LRU cache whose hits are only served after
// the backing resource's full content hash matches the hash recorded at
// store time. Modification times and sizes are never trusted.
type ValidatedCache struct {
	mu       sync.Mutex
	capacity int
	reader   contracts.IResourceReader
	entries  map[string]*list.Element
	order    *list.List
	stats    performanceCounters
}

// NewValidatedCache returns a cache holding at most capacity entries.
// Capacities of zero or below fall back to DefaultCapacity.
func NewValidatedCache(capacity int, reader contracts.IResourceReader) *ValidatedCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ValidatedCache{
		capacity: capacity,
		reader:   reader,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// FileReader resolves resource IDs as filesystem paths.
type FileReader struct{}

func NewFileReader() FileReader {
	return FileReader{}
}

func (FileReader) ReadResource(resourceID string) ([]byte, error) {
	return os.ReadFile(resourceID)
}

// Get returns the cached payload for a resource and parameter set, after
// re-reading the resource and checking its content hash. Entries that fail
// validation are removed so the next Get reports no_entry.
func (c *ValidatedCache) Get(resourceID string, params map[string]interface{}) (*CacheHit, MissReason) {
	key := cacheKey(resourceID, params)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.requests++

	element, ok := c.entries[key]
	if !ok {
		c.stats.misses++
		return nil, MissNoEntry
	}
	entry := element.Value.(*CacheEntry)

	content, err := c.reader.ReadResource(resourceID)
	if err != nil {
		c.removeElement(element)
		c.stats.misses++
		c.stats.invalidations++
		return nil, MissResourceNotFound
	}
	if hashContent(content) != entry.ContentHash {
		c.removeElement(element)
		c.stats.misses++
		c.stats.invalidations++
		return nil, MissContentChanged
	}

	entry.HitCount++
	c.order.MoveToFront(element)
	c.stats.hits++
	return &CacheHit{
		Payload:     entry.Payload,
		ContentHash: shortHash(entry.ContentHash),
		HitCount:    entry.HitCount,
		CreatedAt:   entry.CreatedAt,
	}, MissNone
}

// Put stores a payload keyed by resource and parameters, recording the
// resource's current content hash. Replacing an existing key never evicts.
// Inserting at capacity evicts the single least recently used entry.
func (c *ValidatedCache) Put(resourceID string, params map[string]interface{}, payload []byte) PutResult {
	content, err := c.reader.ReadResource(resourceID)
	if err != nil {
		return PutResult{Stored: false, Reason: NotCachedResourceMissing}
	}
	hash := hashContent(content)
	key := cacheKey(resourceID, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.entries[key]; ok {
		entry := element.Value.(*CacheEntry)
		entry.Payload = payload
		entry.ContentHash = hash
		entry.CreatedAt = time.Now()
		entry.HitCount = 0
		c.order.MoveToFront(element)
		return PutResult{Stored: true, ContentHash: shortHash(hash)}
	}

	evicted := 0
	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.removeElement(oldest)
			c.stats.evictions++
			evicted++
		}
	}
	entry := &CacheEntry{
		Key:         key,
		ResourceID:  resourceID,
		Payload:     payload,
		ContentHash: hash,
		CreatedAt:   time.Now(),
	}
	c.entries[key] = c.order.PushFront(entry)
	return PutResult{Stored: true, ContentHash: shortHash(hash), Evicted: evicted}
}

// Invalidate removes every entry backed by the given resource and returns
// how many were removed.
func (c *ValidatedCache) Invalidate(resourceID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for element := c.order.Front(); element != nil; {
		next := element.Next()
		if element.Value.(*CacheEntry).ResourceID == resourceID {
			c.removeElement(element)
			removed++
		}
		element = next
	}
	c.stats.invalidations += int64(removed)
	return removed
}

// InvalidateAll empties the cache and returns the number of removed
// entries.
func (c *ValidatedCache) InvalidateAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := c.order.Len()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.stats.invalidations += int64(removed)
	return removed
}

// Len returns the number of live entries.
func (c *ValidatedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the configured entry bound.
func (c *ValidatedCache) Capacity() int {
	return c.capacity
}

func (c *ValidatedCache) removeElement(element *list.Element) {
	entry := element.Value.(*CacheEntry)
	delete(c.entries, entry.Key)
	c.order.Remove(element)
}

// cacheKey combines the resource ID with a hash of the canonical parameter
// serialization, so parameter order can never split cache entries. Nil
// parameters key identically to an empty set.
func cacheKey(resourceID string, params map[string]interface{}) string {
	if params == nil {
		params = map[string]interface{}{}
	}
	serialized, err := json.Marshal(params)
	if err != nil {
		serialized = []byte("{}")
	}
	return fmt.Sprintf("%s:%x", resourceID, xxh3.Hash(serialized))
}

func hashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
