// Package cache provides thread-safe TTL caching of current samples keyed by
// zone code. The engine itself is stateless per call; this cache is the
// optional caller-added layer, injectable into provider clients.
package cache

import (
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/series"
)

// Cache holds current samples per zone with TTL-based freshness
type Cache struct {
	data    map[string]*cacheEntry
	mutex   sync.RWMutex
	ttl     time.Duration
	maxAge  time.Duration
	stopCh  chan struct{}
	metrics *metrics
}

type cacheEntry struct {
	sample    series.Sample
	timestamp time.Time
	hits      int64
}

type metrics struct {
	hits   int64
	misses int64
	mutex  sync.RWMutex
}

// New creates a new cache instance. A cleanup goroutine prunes entries older
// than maxAge; call Close to stop it.
func New(ttl time.Duration, maxAge time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if maxAge <= 0 {
		maxAge = time.Hour
	}

	c := &Cache{
		data:    make(map[string]*cacheEntry),
		ttl:     ttl,
		maxAge:  maxAge,
		stopCh:  make(chan struct{}),
		metrics: &metrics{},
	}

	go c.cleanup()

	return c
}

// Get retrieves a sample from cache if still fresh
func (c *Cache) Get(zone string) (series.Sample, bool) {
	c.mutex.RLock()
	entry, exists := c.data[zone]
	c.mutex.RUnlock()

	if !exists {
		c.recordMiss()
		return series.Sample{}, false
	}

	if time.Since(entry.timestamp) > c.ttl {
		c.recordMiss()
		return series.Sample{}, false
	}

	c.mutex.Lock()
	entry.hits++
	c.recordHit()
	c.mutex.Unlock()

	return entry.sample, true
}

// Set stores a sample in cache. Live data is preferred over estimated data:
// once a zone has a live sample, an estimated one does not overwrite it
// unless the live sample is more than an hour older, avoiding the flutter of
// values switching between estimated and real.
func (c *Cache) Set(zone string, sample series.Sample) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if existing, exists := c.data[zone]; exists {
		if sample.Source == series.SourceEstimated && existing.sample.Source == series.SourceLive {
			if sample.Timestamp.Sub(existing.sample.Timestamp) < time.Hour {
				klog.V(3).InfoS("Skipping estimated sample update, live sample present",
					"zone", zone,
					"liveTimestamp", existing.sample.Timestamp,
					"estimatedTimestamp", sample.Timestamp)
				return
			}
		}
	}

	c.data[zone] = &cacheEntry{
		sample:    sample,
		timestamp: time.Now(),
	}

	klog.V(4).InfoS("Cached sample",
		"zone", zone,
		"value", sample.Value,
		"source", sample.Source)
}

// GetMetrics returns cache performance metrics
func (c *Cache) GetMetrics() (hits, misses int64) {
	c.metrics.mutex.RLock()
	defer c.metrics.mutex.RUnlock()
	return c.metrics.hits, c.metrics.misses
}

func (c *Cache) recordHit() {
	c.metrics.mutex.Lock()
	c.metrics.hits++
	c.metrics.mutex.Unlock()
}

func (c *Cache) recordMiss() {
	c.metrics.mutex.Lock()
	c.metrics.misses++
	c.metrics.mutex.Unlock()
}

func (c *Cache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *Cache) removeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	for zone, entry := range c.data {
		age := now.Sub(entry.timestamp)
		if age > c.maxAge {
			delete(c.data, zone)
			klog.V(4).InfoS("Removed expired cache entry",
				"zone", zone,
				"age", age.String(),
				"hits", entry.hits)
		}
	}
}

// Close stops the cleanup goroutine
func (c *Cache) Close() {
	close(c.stopCh)
}

// Clear removes all entries from the cache
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]*cacheEntry)
}

// Size returns the number of entries in the cache
func (c *Cache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}
