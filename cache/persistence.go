package cache

import (
	"encoding/gob"
	"fmt"
	"os"
)

// SaveSnapshot writes the live entries to path in recency order, newest
// first. Payloads are persisted as-is; validation still happens on the next
// Get against the hash stored with each entry.
func (c *ValidatedCache) SaveSnapshot(path string) error {
	c.mu.Lock()
	entries := make([]CacheEntry, 0, c.order.Len())
	for element := c.order.Front(); element != nil; element = element.Next() {
		entries = append(entries, *element.Value.(*CacheEntry))
	}
	c.mu.Unlock()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cache snapshot: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(entries); err != nil {
		return fmt.Errorf("failed to encode cache snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot restores entries from path, preserving recency order and
// respecting the capacity bound. A missing snapshot file is not an error.
// Returns the number of entries restored.
func (c *ValidatedCache) LoadSnapshot(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to open cache snapshot: %w", err)
	}
	defer file.Close()

	var entries []CacheEntry
	if err := gob.NewDecoder(file).Decode(&entries); err != nil {
		return 0, fmt.Errorf("failed to decode cache snapshot: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	loaded := 0
	for i := range entries {
		if c.order.Len() >= c.capacity {
			break
		}
		entry := entries[i]
		if _, exists := c.entries[entry.Key]; exists {
			continue
		}
		c.entries[entry.Key] = c.order.PushBack(&entry)
		loaded++
	}
	return loaded, nil
}
