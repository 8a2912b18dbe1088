package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// EntryKind distinguishes request vs query entries.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
)

// Entry is one timing sample. For requests Path is "METHOD /path" and
// StatusCode is the response code; for queries Path is the store method name
// and StatusCode is 0.
type Entry struct {
	Kind       EntryKind
	Path       string
	StatusCode int
	DurationMs float64
	Timestamp  time.Time
}

// Collector keeps the most recent timing samples in a fixed ring.
// Record is cheap and never blocks the request path; all aggregation
// is deferred to Snapshot.
type Collector struct {
	mu      sync.Mutex
	ring    []Entry
	size    int
	next    int
	written int64
}

// NewCollector creates a collector holding up to size samples.
// PRE: size > 0 (non-positive sizes fall back to DefaultRingSize)
// POST: Ring storage is pre-allocated
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{
		ring: make([]Entry, size),
		size: size,
	}
}

// Record stores a sample, overwriting the oldest when the ring is full.
// POST: written counter incremented
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.ring[c.next] = e
	c.next = (c.next + 1) % c.size
	c.mu.Unlock()
	atomic.AddInt64(&c.written, 1)
}

// TotalRecorded returns how many samples have ever been recorded,
// including ones the ring has since overwritten.
func (c *Collector) TotalRecorded() int64 {
	return atomic.LoadInt64(&c.written)
}

// Snapshot holds aggregated timing data for one observation window.
type Snapshot struct {
	TotalRequests  int64
	RequestP50Ms   float64
	RequestP95Ms   float64
	RequestP99Ms   float64
	SlowestPaths   []PathStat
	SlowestQueries []PathStat
}

// PathStat aggregates samples sharing one path or store method.
type PathStat struct {
	Path    string
	AvgMs   float64
	MaxMs   float64
	Count   int
	TotalMs float64
}

// Snapshot aggregates samples recorded at or after since. Sorting makes
// this the expensive side; it runs only when the perf endpoint is hit.
// POST: Returns percentiles over requests plus top-N slowest paths and queries
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, c.size)
	copy(buf, c.ring)
	c.mu.Unlock()

	var requestDurations []float64
	requests := make(map[string]*PathStat)
	queries := make(map[string]*PathStat)

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		if e.Kind == KindRequest {
			requestDurations = append(requestDurations, e.DurationMs)
			accumulate(requests, e)
		} else {
			accumulate(queries, e)
		}
	}

	snap := Snapshot{
		TotalRequests:  c.TotalRecorded(),
		SlowestPaths:   topByAvg(requests, topN),
		SlowestQueries: topByAvg(queries, topN),
	}

	if len(requestDurations) > 0 {
		sort.Float64s(requestDurations)
		snap.RequestP50Ms = percentile(requestDurations, 50)
		snap.RequestP95Ms = percentile(requestDurations, 95)
		snap.RequestP99Ms = percentile(requestDurations, 99)
	}

	return snap
}

func accumulate(stats map[string]*PathStat, e Entry) {
	s, ok := stats[e.Path]
	if !ok {
		s = &PathStat{Path: e.Path}
		stats[e.Path] = s
	}
	s.Count++
	s.TotalMs += e.DurationMs
	if e.DurationMs > s.MaxMs {
		s.MaxMs = e.DurationMs
	}
}

// percentile linearly interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// topByAvg computes per-path averages and returns the n slowest.
func topByAvg(stats map[string]*PathStat, n int) []PathStat {
	list := make([]PathStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.TotalMs / float64(s.Count)
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].AvgMs > list[j].AvgMs
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}
