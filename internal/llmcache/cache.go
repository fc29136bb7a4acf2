package llmcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// CacheVersion is the current cache format version
	CacheVersion = 1
	// DefaultCacheFileName is the default cache file name
	DefaultCacheFileName = ".agentsteam/llm_cache.json"
	// DefaultTTL is the default time-to-live for cache entries
	DefaultTTL = 24 * time.Hour
)

// CacheStats tracks cache performance metrics
type CacheStats struct {
	Hits           int64   `json:"hits"`
	Misses         int64   `json:"misses"`
	Evictions      int64   `json:"evictions"`
	Size           int     `json:"size"`
	MaxSize        int     `json:"max_size"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
	HitRate        float64 `json:"hit_rate"`
}

// updateHitRate updates the hit rate calculation
func (s *CacheStats) updateHitRate() {
	total := s.Hits + s.Misses
	if total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
}

// lruEntry represents a single cache entry in the LRU list
type lruEntry struct {
	key        string
	value      *CachedResponse
	accessedAt time.Time
	sizeBytes  int64
	prev, next *lruEntry
}

// LRUCache implements a thread-safe LRU cache for LLM responses
type LRUCache struct {
	maxSize    int
	size       int
	cache      map[string]*lruEntry
	head, tail *lruEntry
	mu         sync.RWMutex
	stats      CacheStats
}

// NewLRUCache creates a new LRU cache with the given maximum entry count
func NewLRUCache(maxSize int) *LRUCache {
	return &LRUCache{
		maxSize: maxSize,
		cache:   make(map[string]*lruEntry),
		stats:   CacheStats{MaxSize: maxSize},
	}
}

// Get retrieves a value from the cache
func (c *LRUCache) Get(key string) (*CachedResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.cache[key]
	if !exists {
		c.stats.Misses++
		c.stats.updateHitRate()
		return nil, false
	}

	if entry.value.IsExpired() {
		c.removeEntry(entry)
		c.stats.Misses++
		c.stats.updateHitRate()
		return nil, false
	}

	c.moveToFront(entry)
	entry.accessedAt = time.Now()
	entry.value.RecordAccess()

	c.stats.Hits++
	c.stats.updateHitRate()
	return entry.value, true
}

// Put stores a value in the cache
func (c *LRUCache) Put(key string, value *CachedResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if value.SizeBytes == 0 {
		value.SizeBytes = value.EstimateSize()
	}

	if entry, exists := c.cache[key]; exists {
		c.stats.TotalSizeBytes += value.SizeBytes - entry.sizeBytes
		entry.value = value
		entry.accessedAt = time.Now()
		entry.sizeBytes = value.SizeBytes
		c.moveToFront(entry)
		return
	}

	entry := &lruEntry{
		key:        key,
		value:      value,
		accessedAt: time.Now(),
		sizeBytes:  value.SizeBytes,
	}

	c.cache[key] = entry
	c.addToFront(entry)
	c.size++
	c.stats.Size = c.size
	c.stats.TotalSizeBytes += entry.sizeBytes

	for c.size > c.maxSize {
		c.evictLRU()
	}
}

// Delete removes a value from the cache
func (c *LRUCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.cache[key]; exists {
		c.removeEntry(entry)
	}
}

// Clear removes all entries from the cache
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]*lruEntry)
	c.head = nil
	c.tail = nil
	c.size = 0
	c.stats.Size = 0
	c.stats.TotalSizeBytes = 0
}

// Size returns the current number of entries in the cache
func (c *LRUCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Stats returns a copy of the cache statistics
func (c *LRUCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// CleanupExpired removes all expired entries from the cache
func (c *LRUCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expired := []*lruEntry{}
	for _, entry := range c.cache {
		if now.After(entry.value.ExpiresAt) {
			expired = append(expired, entry)
		}
	}

	for _, entry := range expired {
		c.removeEntry(entry)
		c.stats.Evictions++
	}

	return len(expired)
}

func (c *LRUCache) moveToFront(entry *lruEntry) {
	if entry == c.head {
		return
	}
	c.removeFromList(entry)
	c.addToFront(entry)
}

func (c *LRUCache) addToFront(entry *lruEntry) {
	entry.prev = nil
	entry.next = c.head

	if c.head != nil {
		c.head.prev = entry
	}
	c.head = entry

	if c.tail == nil {
		c.tail = entry
	}
}

func (c *LRUCache) removeEntry(entry *lruEntry) {
	delete(c.cache, entry.key)
	c.stats.TotalSizeBytes -= entry.sizeBytes
	c.size--
	c.stats.Size = c.size
	c.removeFromList(entry)
}

func (c *LRUCache) removeFromList(entry *lruEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}

	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}
}

func (c *LRUCache) evictLRU() {
	if c.tail == nil {
		return
	}

	victim := c.tail
	delete(c.cache, victim.key)
	c.stats.TotalSizeBytes -= victim.sizeBytes
	c.size--
	c.stats.Size = c.size

	if victim.prev != nil {
		victim.prev.next = nil
		c.tail = victim.prev
	} else {
		c.head = nil
		c.tail = nil
	}

	c.stats.Evictions++
}

// DiskCacheData represents the on-disk cache format
type DiskCacheData struct {
	Version   int                       `json:"version"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
	Entries   map[string]CachedResponse `json:"entries"`
}

// DiskCache manages persistent storage of cached responses
type DiskCache struct {
	filePath string
	ttl      time.Duration
	mu       sync.Mutex
	data     *DiskCacheData
	dirty    bool
	autoSave bool
	stopSave chan struct{}
}

// NewDiskCache creates a new disk cache
func NewDiskCache(filePath string, ttl time.Duration) *DiskCache {
	return &DiskCache{
		filePath: filePath,
		ttl:      ttl,
	}
}

// Load loads the cache from disk. A corrupted file is backed up and
// replaced with an empty cache rather than failing the command.
func (dc *DiskCache) Load() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	data, err := os.ReadFile(dc.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			dc.data = dc.newCacheData()
			return nil
		}
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	var cacheData DiskCacheData
	if err := json.Unmarshal(data, &cacheData); err != nil {
		dc.backupCorruptedCache()
		dc.data = dc.newCacheData()
		return nil
	}

	if cacheData.Version != CacheVersion {
		dc.data = dc.newCacheData()
		return nil
	}
	if cacheData.Entries == nil {
		cacheData.Entries = make(map[string]CachedResponse)
	}

	dc.data = &cacheData
	return nil
}

// Save saves the cache to disk
func (dc *DiskCache) Save() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.saveLocked()
}

// saveLocked writes the cache via a temp file so readers never see a
// partially written document. Must be called with the lock held.
func (dc *DiskCache) saveLocked() error {
	if dc.data == nil {
		dc.data = dc.newCacheData()
	}

	dir := filepath.Dir(dc.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	dc.data.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(dc.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	tmpFile := dc.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}

	if err := os.Rename(tmpFile, dc.filePath); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to save cache: %w", err)
	}

	dc.dirty = false
	return nil
}

// Get retrieves a value from the disk cache
func (dc *DiskCache) Get(key string) (*CachedResponse, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.data == nil {
		return nil, false
	}

	entry, exists := dc.data.Entries[key]
	if !exists {
		return nil, false
	}

	if entry.IsExpired() {
		delete(dc.data.Entries, key)
		dc.dirty = true
		return nil, false
	}

	result := entry
	return &result, true
}

// Put stores a value in the disk cache
func (dc *DiskCache) Put(key string, value *CachedResponse) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.data == nil {
		dc.data = dc.newCacheData()
	}

	dc.data.Entries[key] = *value
	dc.dirty = true
	return nil
}

// Delete removes a value from the disk cache
func (dc *DiskCache) Delete(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.data == nil {
		return nil
	}

	if _, exists := dc.data.Entries[key]; exists {
		delete(dc.data.Entries, key)
		dc.dirty = true
	}
	return nil
}

// Clear removes all entries and persists the empty cache
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	dc.data = dc.newCacheData()
	dc.dirty = true
	return dc.saveLocked()
}

// CleanupExpired removes expired entries and persists if anything changed
func (dc *DiskCache) CleanupExpired() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.data == nil {
		return nil
	}

	now := time.Now()
	expired := 0
	for key, entry := range dc.data.Entries {
		if now.After(entry.ExpiresAt) {
			delete(dc.data.Entries, key)
			expired++
		}
	}

	if expired > 0 {
		dc.dirty = true
		return dc.saveLocked()
	}
	return nil
}

// Len returns the number of entries currently stored
func (dc *DiskCache) Len() int {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.data == nil {
		return 0
	}
	return len(dc.data.Entries)
}

func (dc *DiskCache) newCacheData() *DiskCacheData {
	return &DiskCacheData{
		Version:   CacheVersion,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Entries:   make(map[string]CachedResponse),
	}
}

func (dc *DiskCache) backupCorruptedCache() {
	timestamp := time.Now().Format("20060102-150405")
	backupPath := dc.filePath + ".corrupted." + timestamp
	os.Rename(dc.filePath, backupPath)
}

// StartAutoSave starts a background flush loop with the given interval
func (dc *DiskCache) StartAutoSave(interval time.Duration) {
	dc.mu.Lock()
	if dc.autoSave {
		dc.mu.Unlock()
		return
	}
	dc.autoSave = true
	dc.stopSave = make(chan struct{})
	stop := dc.stopSave
	dc.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				dc.flushIfDirty()
			case <-stop:
				dc.flushIfDirty()
				return
			}
		}
	}()
}

// Stop stops the auto-save loop and performs a final flush if needed
func (dc *DiskCache) Stop() {
	dc.mu.Lock()
	if !dc.autoSave {
		dc.mu.Unlock()
		return
	}
	dc.autoSave = false
	stop := dc.stopSave
	dc.stopSave = nil
	dc.mu.Unlock()

	if stop != nil {
		close(stop)
	}
}

func (dc *DiskCache) flushIfDirty() {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.dirty {
		// Flush failures only lose persistence, never a response.
		_ = dc.saveLocked()
	}
}
