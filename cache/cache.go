// Package cache keeps recent fetch responses so callers that accept slightly
// stale content (max_age) skip the browser entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/use-agent/pagefetch/models"
)

const (
	sweepInterval = 5 * time.Minute
	entryTTL      = time.Hour
)

type entry struct {
	response models.FetchResponse
	storedAt time.Time
}

// Cache is an in-memory response cache bounded by entry count. It is safe
// for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	now        func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Cache holding at most maxEntries responses. A background
// sweep drops entries older than an hour; Close stops it.
func New(maxEntries int) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Key identifies a response by target URL and output format.
func Key(url string, kind models.OutputKind) string {
	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte("|"))
	h.Write([]byte(kind))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a copy of the response stored under key when it is younger
// than maxAge. A non-positive maxAge never hits.
func (c *Cache) Get(key string, maxAge time.Duration) (models.FetchResponse, bool) {
	if maxAge <= 0 {
		return models.FetchResponse{}, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(e.storedAt) > maxAge {
		return models.FetchResponse{}, false
	}
	return e.response, true
}

// Set stores resp under key. Only successful responses are worth keeping;
// failures are ignored. At capacity an arbitrary entry makes room.
func (c *Cache) Set(key string, resp models.FetchResponse) {
	if !resp.Success {
		return
	}
	resp.CacheStatus = ""

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}
	c.store[key] = &entry{response: resp, storedAt: c.now()}
}

// Len returns the number of stored responses.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the background sweep.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	cutoff := c.now().Add(-entryTTL)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.store {
		if e.storedAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
}
