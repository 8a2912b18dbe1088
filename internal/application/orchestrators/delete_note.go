package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"retain/internal/adapters/storage"
)

// DeleteNoteInput carries input for the delete-note orchestrator.
type DeleteNoteInput struct {
	ExpirationID string
}

// DeleteNoteDeps holds dependencies for DeleteNote.
type DeleteNoteDeps struct {
	Notes storage.RowTable
}

var ErrEmptyDeleteKey = errors.New("expiration id cannot be empty")

// ExecuteDeleteNote blanks every row stored under the key. The row positions
// survive so the next save reuses them instead of growing the table.
// PRE: ExpirationID is non-empty
// POST: No data row carries the key; blanked slots remain in place
func ExecuteDeleteNote(ctx context.Context, input DeleteNoteInput, deps DeleteNoteDeps) error {
	key := strings.TrimSpace(input.ExpirationID)
	if key == "" {
		return ErrEmptyDeleteKey
	}

	if err := deps.Notes.ClearByKey(ctx, key); err != nil {
		return err
	}

	slog.Info("note_event", "event", "note_deleted", "key", key)
	return nil
}
