package orchestrators

import (
	"context"
	"log/slog"

	"retain/internal/adapters/storage"
	"retain/internal/domain/note"
)

// InitNotesDeps holds dependencies for InitNotes.
type InitNotesDeps struct {
	Notes storage.RowTable
}

// InitNotesResult reports whether the header was written or already present.
type InitNotesResult struct {
	Initialized bool
}

// ExecuteInitNotes writes the canonical header row when the notes table has
// none. An existing header is left untouched even when its columns differ,
// since operators may have added custom columns.
// POST: The table has a header row
func ExecuteInitNotes(ctx context.Context, deps InitNotesDeps) (InitNotesResult, error) {
	header, _, err := deps.Notes.List(ctx)
	if err == nil && len(header) > 0 {
		return InitNotesResult{Initialized: false}, nil
	}

	if err := deps.Notes.InitSchema(ctx, note.CanonicalHeader); err != nil {
		return InitNotesResult{}, err
	}

	slog.Info("note_event", "event", "notes_initialized", "columns", len(note.CanonicalHeader))
	return InitNotesResult{Initialized: true}, nil
}
