package storage

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	_ "modernc.org/sqlite"

	"retain/internal/adapters/http/perf"
)

func newTimedTestDB(t *testing.T) *TimedDB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec("CREATE TABLE note_rows (row_idx INTEGER PRIMARY KEY, key TEXT, cells TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return NewTimedDB(db, perf.NewCollector(100))
}

func TestTimedDBRecordsEachOperation(t *testing.T) {
	tdb := newTimedTestDB(t)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO note_rows (row_idx, key, cells) VALUES (?, ?, ?)", 1, "exp-001", "[]"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}

	rows, err := tdb.QueryContext(ctx, "SELECT key FROM note_rows ORDER BY row_idx")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			t.Fatalf("scan: %v", err)
		}
		keys = append(keys, k)
	}
	rows.Close()
	if len(keys) != 1 || keys[0] != "exp-001" {
		t.Errorf("keys = %v, want [exp-001]", keys)
	}

	var cells string
	if err := tdb.QueryRowContext(ctx, "SELECT cells FROM note_rows WHERE key = ?", "exp-001").Scan(&cells); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}

	tx, err := tdb.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	tx.Rollback()

	// Exec + Query + QueryRow + BeginTx.
	if got := tdb.collector.TotalRecorded(); got != 4 {
		t.Errorf("TotalRecorded = %d, want 4", got)
	}
}

func TestTimedDBNilCollector(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	tdb := NewTimedDB(db, nil)

	if _, err := tdb.ExecContext(context.Background(), "CREATE TABLE t (id TEXT)"); err != nil {
		t.Fatalf("ExecContext with nil collector: %v", err)
	}
}

// A wrapped call that fails must return the error unchanged and still
// record its timing.
func TestTimedDBErrorPassthrough(t *testing.T) {
	tdb := newTimedTestDB(t)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO no_such_table VALUES (?)", 1); err == nil {
		t.Fatal("expected error from invalid SQL")
	}

	var v string
	if err := tdb.QueryRowContext(ctx, "SELECT key FROM note_rows WHERE key = ?", "missing").Scan(&v); err != sql.ErrNoRows {
		t.Errorf("Scan error = %v, want sql.ErrNoRows", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := tdb.ExecContext(cancelled, "INSERT INTO note_rows (row_idx) VALUES (2)"); err == nil {
		t.Fatal("expected error from cancelled context")
	}

	if got := tdb.collector.TotalRecorded(); got != 3 {
		t.Errorf("TotalRecorded = %d, want 3 (errors still timed)", got)
	}
}

func TestTimedDBResultPassthrough(t *testing.T) {
	tdb := newTimedTestDB(t)

	result, err := tdb.ExecContext(context.Background(), "INSERT INTO note_rows (row_idx, key, cells) VALUES (?, ?, ?)", 1, "exp-001", "[]")
	if err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		t.Fatalf("RowsAffected: %v", err)
	}
	if affected != 1 {
		t.Errorf("RowsAffected = %d, want 1", affected)
	}
}

func TestTimedDBRawDB(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	tdb := NewTimedDB(db, nil)
	if tdb.RawDB() != db {
		t.Error("RawDB() should return the wrapped *sql.DB")
	}
}

func TestTimedDBConcurrentCalls(t *testing.T) {
	tdb := newTimedTestDB(t)
	ctx := context.Background()
	tdb.ExecContext(ctx, "INSERT INTO note_rows (row_idx, key, cells) VALUES (?, ?, ?)", 1, "exp-001", "[]")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				var k string
				tdb.QueryRowContext(ctx, "SELECT key FROM note_rows WHERE row_idx = 1").Scan(&k)
			}
		}()
	}
	wg.Wait()

	if got := tdb.collector.TotalRecorded(); got != 201 {
		t.Errorf("TotalRecorded = %d, want 201", got)
	}
}

// BenchmarkTimedDBOverhead compares a wrapped query against the raw
// connection to isolate the instrumentation cost.
func BenchmarkTimedDBOverhead(b *testing.B) {
	db, _ := sql.Open("sqlite", ":memory:")
	defer db.Close()
	db.Exec("CREATE TABLE bench (id INTEGER PRIMARY KEY, val TEXT)")
	db.Exec("INSERT INTO bench VALUES (1, 'x')")
	ctx := context.Background()

	b.Run("raw", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			db.QueryRowContext(ctx, "SELECT val FROM bench WHERE id = 1")
		}
	})

	tdb := NewTimedDB(db, perf.NewCollector(perf.DefaultRingSize))
	b.Run("timed", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			tdb.QueryRowContext(ctx, "SELECT val FROM bench WHERE id = 1")
		}
	})
}
