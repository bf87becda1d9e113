// Package observability provides lightweight counters for the parts of
// bolaget-mcp worth watching in production: upstream API traffic, key
// extraction churn, and cache behavior.
package observability

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Counter is a monotonically increasing metric.
type Counter struct {
	name  string
	value atomic.Int64
}

// Inc increments the counter by one.
func (c *Counter) Inc() { c.value.Add(1) }

// Add increments the counter by n.
func (c *Counter) Add(n int64) { c.value.Add(n) }

// Value returns the current count.
func (c *Counter) Value() int64 { return c.value.Load() }

// Name returns the counter's registered name.
func (c *Counter) Name() string { return c.name }

// Metrics collects named counters. Safe for concurrent use.
type Metrics struct {
	mu       sync.RWMutex
	counters map[string]*Counter
}

// NewMetrics creates an empty metrics registry.
func NewMetrics() *Metrics {
	return &Metrics{counters: make(map[string]*Counter)}
}

// Counter returns (or creates) the counter with the given name.
func (m *Metrics) Counter(name string) *Counter {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if ok {
		return c
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.counters[name]; ok {
		return c
	}
	c = &Counter{name: name}
	m.counters[name] = c
	return c
}

// Snapshot returns all counter values keyed by name.
func (m *Metrics) Snapshot() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]int64, len(m.counters))
	for name, c := range m.counters {
		snap[name] = c.Value()
	}
	return snap
}

// Names returns registered counter names in sorted order.
func (m *Metrics) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.counters))
	for name := range m.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Well-known counter names used across the server.
const (
	APIRequests    = "api_requests_total"
	APIErrors      = "api_errors_total"
	KeyExtractions = "key_extractions_total"
	KeyCacheHits   = "key_cache_hits_total"
)
