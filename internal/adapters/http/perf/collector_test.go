package perf

import (
	"sync"
	"testing"
	"time"
)

func TestCollectorSnapshotAggregates(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()

	c.Record(Entry{Kind: KindRequest, Path: "GET /api/expirations", StatusCode: 200, DurationMs: 8, Timestamp: now})
	c.Record(Entry{Kind: KindRequest, Path: "GET /api/expirations", StatusCode: 200, DurationMs: 24, Timestamp: now})
	c.Record(Entry{Kind: KindRequest, Path: "GET /api/metrics", StatusCode: 200, DurationMs: 40, Timestamp: now})
	c.Record(Entry{Kind: KindQuery, Path: "noteRows.List", DurationMs: 2, Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.TotalRequests != 4 {
		t.Errorf("TotalRequests = %d, want 4", snap.TotalRequests)
	}
	if len(snap.SlowestPaths) != 2 {
		t.Fatalf("SlowestPaths len = %d, want 2", len(snap.SlowestPaths))
	}
	// Sorted by average, so the metrics endpoint leads.
	if snap.SlowestPaths[0].Path != "GET /api/metrics" {
		t.Errorf("slowest path = %q, want GET /api/metrics", snap.SlowestPaths[0].Path)
	}
	if snap.SlowestPaths[1].AvgMs != 16 {
		t.Errorf("expirations AvgMs = %v, want 16", snap.SlowestPaths[1].AvgMs)
	}
	if snap.SlowestPaths[1].MaxMs != 24 {
		t.Errorf("expirations MaxMs = %v, want 24", snap.SlowestPaths[1].MaxMs)
	}
	if len(snap.SlowestQueries) != 1 || snap.SlowestQueries[0].Path != "noteRows.List" {
		t.Errorf("SlowestQueries = %+v, want single noteRows.List entry", snap.SlowestQueries)
	}
}

func TestCollectorRingOverwritesOldest(t *testing.T) {
	c := NewCollector(3)
	now := time.Now()

	for i := 0; i < 7; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /", DurationMs: float64(i), Timestamp: now})
	}

	if c.TotalRecorded() != 7 {
		t.Errorf("TotalRecorded = %d, want 7", c.TotalRecorded())
	}

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if len(snap.SlowestPaths) != 1 {
		t.Fatalf("SlowestPaths len = %d, want 1", len(snap.SlowestPaths))
	}
	// Only the last 3 samples survive in a ring of size 3.
	if snap.SlowestPaths[0].Count != 3 {
		t.Errorf("Count = %d, want 3", snap.SlowestPaths[0].Count)
	}
	if snap.SlowestPaths[0].MaxMs != 6 {
		t.Errorf("MaxMs = %v, want 6", snap.SlowestPaths[0].MaxMs)
	}
}

func TestCollectorPercentiles(t *testing.T) {
	c := NewCollector(200)
	now := time.Now()

	for i := 1; i <= 100; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /api/expirations", DurationMs: float64(i), Timestamp: now})
	}

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.RequestP50Ms < 49 || snap.RequestP50Ms > 51 {
		t.Errorf("P50 = %v, want ~50", snap.RequestP50Ms)
	}
	if snap.RequestP95Ms < 94 || snap.RequestP95Ms > 96 {
		t.Errorf("P95 = %v, want ~95", snap.RequestP95Ms)
	}
	if snap.RequestP99Ms < 98 || snap.RequestP99Ms > 100 {
		t.Errorf("P99 = %v, want ~99", snap.RequestP99Ms)
	}
}

func TestCollectorSnapshotWindow(t *testing.T) {
	c := NewCollector(100)
	stale := time.Now().Add(-3 * time.Hour)
	fresh := time.Now()

	c.Record(Entry{Kind: KindRequest, Path: "GET /stale", DurationMs: 90, Timestamp: stale})
	c.Record(Entry{Kind: KindRequest, Path: "GET /fresh", DurationMs: 5, Timestamp: fresh})

	snap := c.Snapshot(time.Now().Add(-time.Hour), 10)
	if len(snap.SlowestPaths) != 1 {
		t.Fatalf("SlowestPaths len = %d, want 1", len(snap.SlowestPaths))
	}
	if snap.SlowestPaths[0].Path != "GET /fresh" {
		t.Errorf("Path = %q, want GET /fresh", snap.SlowestPaths[0].Path)
	}
}

func TestCollectorConcurrentRecord(t *testing.T) {
	c := NewCollector(1000)
	now := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				c.Record(Entry{Kind: KindQuery, Path: "expirationRows.List", DurationMs: 1, Timestamp: now})
			}
		}()
	}
	wg.Wait()
	if c.TotalRecorded() != 1000 {
		t.Errorf("TotalRecorded = %d, want 1000", c.TotalRecorded())
	}
}

// BenchmarkCollectorRecord measures per-call cost on the request path.
func BenchmarkCollectorRecord(b *testing.B) {
	c := NewCollector(DefaultRingSize)
	e := Entry{Kind: KindRequest, Path: "GET /api/expirations", StatusCode: 200, DurationMs: 1.5, Timestamp: time.Now()}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Record(e)
	}
}

// BenchmarkCollectorSnapshot measures cost of percentiles + top-N over a full ring.
func BenchmarkCollectorSnapshot(b *testing.B) {
	c := NewCollector(DefaultRingSize)
	now := time.Now()
	for i := 0; i < DefaultRingSize; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /api/expirations", StatusCode: 200, DurationMs: float64(i % 100), Timestamp: now})
	}
	since := now.Add(-time.Hour)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Snapshot(since, 10)
	}
}
