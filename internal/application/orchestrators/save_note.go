package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"retain/internal/adapters/storage"
	"retain/internal/application/reconcile"
	"retain/internal/domain/note"
)

// timeNow is swapped in tests for deterministic timestamps.
var timeNow = time.Now

// SaveNoteInput carries input for the save-note orchestrator. BaseVersion is
// the version the caller last read; zero means the caller believes the note
// is new.
type SaveNoteInput struct {
	ExpirationID  string
	AssociateName string
	Stage         string
	CustomStage   string
	Status        string
	Priority      string
	FollowUps     []note.FollowUpEntry
	Remarks       string
	InternalNotes string
	Tags          []string
	BaseVersion   int
}

// SaveNoteDeps holds dependencies for SaveNote.
type SaveNoteDeps struct {
	Notes storage.RowTable
}

var ErrVersionConflict = errors.New("note was modified by someone else, reload and try again")

// followUpSeq breaks ties between follow-ups stamped at the same instant.
// The stamp is the entry's dedup identity, so two entries must never share one.
var followUpSeq uint64

// stampFollowUp returns a unique RFC 3339 timestamp at or just after now.
func stampFollowUp(now time.Time) string {
	seq := atomic.AddUint64(&followUpSeq, 1)
	return now.Add(time.Duration(seq) * time.Nanosecond).Format(time.RFC3339Nano)
}

// ExecuteSaveNote merges the submitted note into whatever is already stored
// under the same key and writes the result back as a single row.
// PRE: ExpirationID and Status are non-empty; Stage "Other" carries a custom reason
// POST: Exactly one row holds the key; follow-ups and tags are unions, never truncated
// INVARIANT: A stale BaseVersion is rejected before anything is written
func ExecuteSaveNote(ctx context.Context, input SaveNoteInput, deps SaveNoteDeps) (note.Note, error) {
	now := timeNow().UTC()

	stage := strings.TrimSpace(input.Stage)
	if stage == note.StageOther {
		custom := strings.TrimSpace(input.CustomStage)
		if custom == "" {
			return note.Note{}, note.ErrEmptyCustomReason
		}
		stage = custom
	}

	incoming := note.Note{
		ExpirationID:  strings.TrimSpace(input.ExpirationID),
		AssociateName: strings.TrimSpace(input.AssociateName),
		Stage:         stage,
		Status:        strings.TrimSpace(input.Status),
		Priority:      strings.TrimSpace(input.Priority),
		FollowUps:     note.DedupFollowUps(input.FollowUps),
		Remarks:       input.Remarks,
		InternalNotes: input.InternalNotes,
		Tags:          input.Tags,
	}
	if err := incoming.Validate(); err != nil {
		return note.Note{}, err
	}

	// New follow-ups arrive without a server timestamp.
	for i := range incoming.FollowUps {
		if incoming.FollowUps[i].Timestamp == "" {
			incoming.FollowUps[i].Timestamp = stampFollowUp(now)
		}
	}

	header, rows, err := deps.Notes.List(ctx)
	if err != nil {
		return note.Note{}, err
	}
	merged := reconcile.MergeByKey(reconcile.DecodeNotes(header, rows))
	existing, found := merged[incoming.ExpirationID]

	result := incoming
	if found {
		if input.BaseVersion < existing.Version {
			slog.Info("note_event", "event", "version_conflict", "key", incoming.ExpirationID,
				"base", input.BaseVersion, "stored", existing.Version)
			return note.Note{}, ErrVersionConflict
		}
		result.FollowUps = note.UnionFollowUps(existing.FollowUps, incoming.FollowUps)
		result.Tags = note.UnionTags(existing.Tags, incoming.Tags)
		result.CustomFields = existing.CustomFields
		result.CreatedAt = existing.CreatedAt
		result.Version = existing.Version
	}
	if result.CreatedAt == "" {
		result.CreatedAt = now.Format(time.RFC3339)
	}
	result.UpdatedAt = now.Format(time.RFC3339)
	result.Version++

	if len(header) == 0 {
		header = note.CanonicalHeader
		if err := deps.Notes.InitSchema(ctx, header); err != nil {
			return note.Note{}, err
		}
	}

	row := reconcile.EncodeNote(header, result)
	if err := deps.Notes.UpsertByKey(ctx, result.ExpirationID, row); err != nil {
		return note.Note{}, err
	}

	slog.Info("note_event", "event", "note_saved", "key", result.ExpirationID,
		"version", result.Version, "follow_ups", len(result.FollowUps))
	return result, nil
}
