package cache

import "math"

// performanceCounters accumulate under the cache mutex.
type performanceCounters struct {
	requests      int64
	hits          int64
	misses        int64
	invalidations int64
	evictions     int64
}

// CacheStats is a point-in-time view of cache effectiveness.
type CacheStats struct {
	Entries        int     `json:"entries"`
	Capacity       int     `json:"capacity"`
	TotalRequests  int64   `json:"total_requests"`
	Hits           int64   `json:"hits"`
	Misses         int64   `json:"misses"`
	HitRatePercent float64 `json:"hit_rate_percent"`
	Invalidations  int64   `json:"invalidations"`
	Evictions      int64   `json:"evictions"`
}

// Stats snapshots the counters. The hit rate is zero when nothing has been
// requested yet.
func (c *ValidatedCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	hitRate := 0.0
	if c.stats.requests > 0 {
		hitRate = float64(c.stats.hits) / float64(c.stats.requests) * 100
	}
	return CacheStats{
		Entries:        c.order.Len(),
		Capacity:       c.capacity,
		TotalRequests:  c.stats.requests,
		Hits:           c.stats.hits,
		Misses:         c.stats.misses,
		HitRatePercent: math.Round(hitRate*100) / 100,
		Invalidations:  c.stats.invalidations,
		Evictions:      c.stats.evictions,
	}
}

// ResetStats zeroes the counters without touching stored entries.
func (c *ValidatedCache) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = performanceCounters{}
}
