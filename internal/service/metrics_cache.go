package service

import (
	"sync"
	"time"

	"github.com/publora/publora/internal/transfer"
)

// metricsCache keeps per-job engagement counters fresh for slightly less
// than the client's polling cadence so back-to-back polls hit the gateway
// only once. Entries are always timestamped; staleness is a liveness
// trade-off, not a correctness one.
type metricsCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[int64]cachedMetrics
}

type cachedMetrics struct {
	metrics   *transfer.PostMetrics
	fetchedAt time.Time
}

func newMetricsCache(ttl time.Duration) *metricsCache {
	return &metricsCache{
		ttl:     ttl,
		entries: make(map[int64]cachedMetrics),
	}
}

func (c *metricsCache) Get(jobID int64, now time.Time) (*transfer.PostMetrics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[jobID]
	if !ok {
		return nil, false
	}
	if now.Sub(entry.fetchedAt) >= c.ttl {
		delete(c.entries, jobID)
		return nil, false
	}
	return entry.metrics, true
}

func (c *metricsCache) Put(jobID int64, metrics *transfer.PostMetrics, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[jobID] = cachedMetrics{metrics: metrics, fetchedAt: now}
}
