package projections

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"retain/internal/application/listutil"
	"retain/internal/application/reconcile"
	"retain/internal/domain/note"
)

// GetExpirationsQuery carries query parameters for the expiration list.
type GetExpirationsQuery struct {
	Filter  Filter
	GroupBy string
	Sort    string // name, email, membership, endDate, priority
	Dir     string // "asc" or "desc"
	Page    int
	PerPage int
	All     bool      // skip paging, return the full filtered set
	Now     time.Time // zero means time.Now()
}

// GetExpirationsResult carries the query result. Records holds the current
// page when ungrouped; Groups holds the full filtered set when grouped.
type GetExpirationsResult struct {
	Records  []reconcile.Combined
	Groups   []Group
	PageInfo listutil.PageInfo
}

// GetExpirationsDeps holds dependencies for GetExpirations.
type GetExpirationsDeps struct {
	Expirations ExpirationSource
	Notes       NoteSource
}

// QueryGetExpirations fetches both tables, reconciles them, and applies the
// filter/group/sort/page pipeline.
// PRE: Valid query parameters
// POST: Exactly one combined record exists per expiration key before filtering
// INVARIANT: A notes-table read failure is an expected cold-start state and
// yields an empty overlay rather than a hard error
func QueryGetExpirations(ctx context.Context, query GetExpirationsQuery, deps GetExpirationsDeps) (GetExpirationsResult, error) {
	expirations, err := deps.Expirations.List(ctx)
	if err != nil {
		return GetExpirationsResult{}, err
	}

	header, rows, err := deps.Notes.List(ctx)
	if err != nil {
		// Uninitialized notes table: surface the expirations without notes.
		slog.Warn("notes_read_failed", "error", err.Error())
		header, rows = nil, nil
	}
	rawNotes := reconcile.DecodeNotes(header, rows)

	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}

	combined := reconcile.Reconcile(expirations, rawNotes, now)
	combined = ApplyFilter(combined, query.Filter)
	sortRecords(combined, query.Sort, query.Dir)

	if query.All {
		return GetExpirationsResult{
			Records:  combined,
			PageInfo: listutil.NewPageInfo(1, len(combined)+1, len(combined)),
		}, nil
	}

	if query.GroupBy != "" && query.GroupBy != GroupNone {
		return GetExpirationsResult{
			Groups:   GroupRecords(combined, query.GroupBy),
			PageInfo: listutil.NewPageInfo(1, len(combined)+1, len(combined)),
		}, nil
	}

	info := listutil.NewPageInfo(query.Page, query.PerPage, len(combined))
	start, end := info.Slice(len(combined))
	return GetExpirationsResult{
		Records:  combined[start:end],
		PageInfo: info,
	}, nil
}

// priorityRank orders High before Medium before Low; unknown manual values
// sort after the standard levels.
func priorityRank(p string) int {
	switch p {
	case note.PriorityHigh:
		return 0
	case note.PriorityMedium:
		return 1
	case note.PriorityLow:
		return 2
	default:
		return 3
	}
}

func sortRecords(records []reconcile.Combined, col, dir string) {
	if col == "" {
		return
	}
	less := func(a, b reconcile.Combined) bool { return false }
	switch col {
	case "name":
		less = func(a, b reconcile.Combined) bool { return a.FullName() < b.FullName() }
	case "email":
		less = func(a, b reconcile.Combined) bool { return a.Email < b.Email }
	case "membership":
		less = func(a, b reconcile.Combined) bool { return a.MembershipName < b.MembershipName }
	case "endDate":
		less = func(a, b reconcile.Combined) bool {
			ta, okA := a.EndDateAt()
			tb, okB := b.EndDateAt()
			if okA != okB {
				return okA // records without a date sort last
			}
			return ta.Before(tb)
		}
	case "priority":
		less = func(a, b reconcile.Combined) bool {
			return priorityRank(a.Note.Priority) < priorityRank(b.Note.Priority)
		}
	default:
		return
	}
	if dir == "desc" {
		orig := less
		less = func(a, b reconcile.Combined) bool { return orig(b, a) }
	}
	sort.SliceStable(records, func(i, j int) bool { return less(records[i], records[j]) })
}
