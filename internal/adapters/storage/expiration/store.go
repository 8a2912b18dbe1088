package expiration

import (
	"context"

	"retain/internal/adapters/storage"
	domain "retain/internal/domain/expiration"
)

// Store lists expiration records. The expirations table is read-only to this
// system; rows are produced by an external process.
type Store interface {
	List(ctx context.Context) ([]domain.Record, error)
}

// RowTableStore adapts any RowTable (sqlite mirror or live sheet) to typed
// expiration records using the fixed column order.
type RowTableStore struct {
	table storage.RowTable
}

// Compile-time check that *RowTableStore satisfies Store.
var _ Store = (*RowTableStore)(nil)

// NewRowTableStore wraps a RowTable holding expiration rows.
func NewRowTableStore(table storage.RowTable) *RowTableStore {
	return &RowTableStore{table: table}
}

// List returns all expiration records in table order.
// POST: The header row is skipped; rows without a key are dropped
func (s *RowTableStore) List(ctx context.Context) ([]domain.Record, error) {
	_, rows, err := s.table.List(ctx)
	if err != nil {
		return nil, err
	}
	var records []domain.Record
	for _, row := range rows {
		rec := domain.ParseRow(row)
		if rec.UniqueID == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
