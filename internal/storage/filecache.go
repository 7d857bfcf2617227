package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// SentItem records one article already delivered in a digest, so restarts
// do not re-send the same stories.
type SentItem struct {
	Key    string    `json:"key"`
	Title  string    `json:"title"`
	URL    string    `json:"url"`
	SentAt time.Time `json:"sent_at"`
}

// SentCache is a JSON-file-backed seen-set with a TTL. It is the delivery
// ledger for the notifier and deliberately independent of PostgreSQL: digest
// dedup must survive a database outage.
type SentCache struct {
	mu       sync.RWMutex
	filePath string
	ttl      time.Duration
	items    map[string]SentItem
}

func NewSentCache(filePath string, ttl time.Duration) *SentCache {
	return &SentCache{
		filePath: filePath,
		ttl:      ttl,
		items:    make(map[string]SentItem),
	}
}

// Load reads the cache file, dropping entries past their TTL. A missing
// file is a fresh start, not an error.
func (c *SentCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading sent cache: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var items []SentItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("decoding sent cache: %w", err)
	}

	cutoff := time.Now().Add(-c.ttl)
	for _, item := range items {
		if item.SentAt.After(cutoff) {
			c.items[item.Key] = item
		}
	}
	return nil
}

// Save writes the current state back to disk.
func (c *SentCache) Save() error {
	c.mu.RLock()
	items := make([]SentItem, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, item)
	}
	c.mu.RUnlock()

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sent cache: %w", err)
	}
	if err := os.WriteFile(c.filePath, data, 0o644); err != nil {
		return fmt.Errorf("writing sent cache: %w", err)
	}
	return nil
}

// WasSent reports whether key was delivered within the TTL window.
func (c *SentCache) WasSent(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	return ok && item.SentAt.After(time.Now().Add(-c.ttl))
}

// MarkSent records a delivery. Call Save afterwards to persist.
func (c *SentCache) MarkSent(key, title, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = SentItem{Key: key, Title: title, URL: url, SentAt: time.Now()}
}

// Prune drops expired entries from memory.
func (c *SentCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-c.ttl)
	dropped := 0
	for key, item := range c.items {
		if !item.SentAt.After(cutoff) {
			delete(c.items, key)
			dropped++
		}
	}
	return dropped
}
