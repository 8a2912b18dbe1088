package projections

import (
	"context"

	"retain/internal/adapters/storage"
	domain "retain/internal/domain/expiration"
)

// ExpirationSource lists expiration records from the backing table.
type ExpirationSource interface {
	List(ctx context.Context) ([]domain.Record, error)
}

// NoteSource lists raw note rows. Satisfied by any storage.RowTable.
type NoteSource interface {
	List(ctx context.Context) (header []string, rows [][]string, err error)
}

// Compile-time check: a RowTable can serve as a NoteSource.
var _ NoteSource = (storage.RowTable)(nil)
