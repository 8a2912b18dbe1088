// Package sheetrow provides a SQLite-backed RowTable: a positional,
// header-rowed table mirroring spreadsheet semantics (no row identity beyond
// position, soft-deleted rows keep their slot).
package sheetrow

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"retain/internal/adapters/storage"
)

// SQLiteStore implements storage.RowTable over a sqlite table with columns
// (row_idx INTEGER PRIMARY KEY, key TEXT, cells TEXT). Row 0 is the header.
type SQLiteStore struct {
	db    storage.SQLDB
	table string
}

// Compile-time check that *SQLiteStore satisfies storage.RowTable.
var _ storage.RowTable = (*SQLiteStore)(nil)

// NewSQLiteStore creates a RowTable backed by the named sqlite table.
// PRE: table is one of the sheet-row tables created by storage.InitDB
func NewSQLiteStore(db storage.SQLDB, table string) *SQLiteStore {
	return &SQLiteStore{db: db, table: table}
}

// List returns the header row and all data rows in positional order.
// POST: Blanked rows are included; an uninitialized table yields empty results
func (s *SQLiteStore) List(ctx context.Context) ([]string, [][]string, error) {
	query := fmt.Sprintf("SELECT row_idx, cells FROM %s ORDER BY row_idx", s.table)
	dbRows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer dbRows.Close()

	var header []string
	var rows [][]string
	for dbRows.Next() {
		var idx int
		var cellsJSON string
		if err := dbRows.Scan(&idx, &cellsJSON); err != nil {
			return nil, nil, err
		}
		cells, err := decodeCells(cellsJSON)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d has malformed cells: %w", idx, err)
		}
		if idx == 0 {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}
	return header, rows, dbRows.Err()
}

// UpsertByKey overwrites the row for key in place; if the key is absent it
// reuses the lowest blanked slot, else appends after the last row.
// PRE: key is non-empty
// POST: Exactly one row holds key; no other row shifted
func (s *SQLiteStore) UpsertByKey(ctx context.Context, key string, row []string) error {
	if key == "" {
		return fmt.Errorf("upsert requires a non-empty key")
	}
	cellsJSON, err := encodeCells(row)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	idx, err := s.targetSlot(ctx, tx, key)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (row_idx, key, cells) VALUES (?, ?, ?) ON CONFLICT(row_idx) DO UPDATE SET key=excluded.key, cells=excluded.cells",
		s.table,
	)
	if _, err := tx.ExecContext(ctx, query, idx, key, cellsJSON); err != nil {
		return err
	}
	return tx.Commit()
}

// targetSlot picks the row index an upsert should write to: the key's existing
// row, else the lowest blanked slot, else one past the last row.
func (s *SQLiteStore) targetSlot(ctx context.Context, tx *sql.Tx, key string) (int, error) {
	var idx int
	query := fmt.Sprintf("SELECT row_idx FROM %s WHERE key = ? AND row_idx > 0 ORDER BY row_idx LIMIT 1", s.table)
	err := tx.QueryRowContext(ctx, query, key).Scan(&idx)
	if err == nil {
		return idx, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	// Reuse the lowest blanked slot (cleared rows get key='' and empty cells).
	query = fmt.Sprintf("SELECT row_idx, cells FROM %s WHERE key = '' AND row_idx > 0 ORDER BY row_idx", s.table)
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	blankSlot := 0
	for blankSlot == 0 && rows.Next() {
		var candidate int
		var cellsJSON string
		if err := rows.Scan(&candidate, &cellsJSON); err != nil {
			return 0, err
		}
		if cells, err := decodeCells(cellsJSON); err == nil && allEmpty(cells) {
			blankSlot = candidate
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if blankSlot > 0 {
		return blankSlot, nil
	}

	var max sql.NullInt64
	query = fmt.Sprintf("SELECT MAX(row_idx) FROM %s", s.table)
	if err := tx.QueryRowContext(ctx, query).Scan(&max); err != nil {
		return 0, err
	}
	if !max.Valid {
		// Empty table: reserve row 0 for the header.
		return 1, nil
	}
	return int(max.Int64) + 1, nil
}

// ClearByKey blanks every cell of the key's row(s) without removing them.
// POST: The slot remains at its position with empty key and empty cells
func (s *SQLiteStore) ClearByKey(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("clear requires a non-empty key")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf("SELECT row_idx, cells FROM %s WHERE key = ? AND row_idx > 0", s.table)
	rows, err := tx.QueryContext(ctx, query, key)
	if err != nil {
		return err
	}
	type slot struct {
		idx   int
		width int
	}
	var slots []slot
	for rows.Next() {
		var idx int
		var cellsJSON string
		if err := rows.Scan(&idx, &cellsJSON); err != nil {
			rows.Close()
			return err
		}
		cells, err := decodeCells(cellsJSON)
		if err != nil {
			rows.Close()
			return err
		}
		slots = append(slots, slot{idx: idx, width: len(cells)})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	update := fmt.Sprintf("UPDATE %s SET key = '', cells = ? WHERE row_idx = ?", s.table)
	for _, sl := range slots {
		blank, err := encodeCells(make([]string, sl.width))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, update, blank, sl.idx); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// InitSchema writes the header row, overwriting any existing header.
// POST: Row 0 holds exactly the given header; data rows are untouched
func (s *SQLiteStore) InitSchema(ctx context.Context, header []string) error {
	cellsJSON, err := encodeCells(header)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (row_idx, key, cells) VALUES (0, '', ?) ON CONFLICT(row_idx) DO UPDATE SET cells=excluded.cells",
		s.table,
	)
	_, err = s.db.ExecContext(ctx, query, cellsJSON)
	return err
}

func encodeCells(cells []string) (string, error) {
	if cells == nil {
		cells = []string{}
	}
	b, err := json.Marshal(cells)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeCells(cellsJSON string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
		return nil, err
	}
	return cells, nil
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
