package storage

import "context"

// RowTable is the abstract spreadsheet-shaped table: a header row followed by
// positional data rows of string cells. There are no transactions and no row
// identity beyond position, so writes follow the merge-before-overwrite
// discipline regardless of backing store (sqlite mirror or live sheet).
type RowTable interface {
	// List returns the header row and all data rows in positional order.
	// Blanked rows are included; callers discard rows with an empty key.
	List(ctx context.Context) (header []string, rows [][]string, err error)

	// UpsertByKey overwrites the row holding key in place, reuses the lowest
	// blanked slot when the key is absent, and appends otherwise.
	UpsertByKey(ctx context.Context, key string, row []string) error

	// ClearByKey blanks every cell of the key's row(s) without removing them.
	// The slot stays reserved for a future save.
	ClearByKey(ctx context.Context, key string) error

	// InitSchema writes the canonical header row, overwriting any existing
	// header. Idempotent; callers guard against double initialization.
	InitSchema(ctx context.Context, header []string) error
}
