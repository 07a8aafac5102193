package cache

import (
	"context"
	"sync"
	"time"

	"github.com/millscan/backend/internal/domain"
)

// entry is a single cached answer with expiration
type entry struct {
	value      string
	expiration time.Time
}

// Memory is a thread-safe in-memory answer cache with TTL support
type Memory struct {
	data  map[string]entry
	mutex sync.RWMutex
}

// NewMemory creates a new in-memory cache. A background goroutine sweeps
// expired entries at the given interval.
func NewMemory(sweepInterval time.Duration) *Memory {
	if sweepInterval == 0 {
		sweepInterval = 10 * time.Minute
	}
	c := &Memory{data: make(map[string]entry)}
	go c.sweep(sweepInterval)
	return c
}

// Get retrieves a cached answer
func (c *Memory) Get(ctx context.Context, key string) (string, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || time.Now().After(item.expiration) {
		return "", domain.ErrCacheMiss
	}
	return item.value, nil
}

// Set stores an answer with TTL
func (c *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = entry{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes an answer from the cache
func (c *Memory) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *Memory) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// sweep removes expired entries periodically
func (c *Memory) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		now := time.Now()
		for key, item := range c.data {
			if now.After(item.expiration) {
				delete(c.data, key)
			}
		}
		c.mutex.Unlock()
	}
}
