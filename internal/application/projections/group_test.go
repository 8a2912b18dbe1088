package projections

import (
	"testing"

	"retain/internal/application/reconcile"
	"retain/internal/domain/expiration"
	"retain/internal/domain/note"
)

// TestGroupRecordsByMembership tests bucket ordering and fallback labels.
func TestGroupRecordsByMembership(t *testing.T) {
	records := []reconcile.Combined{
		{Record: expiration.Record{UniqueID: "a", MembershipName: "Gold"}},
		{Record: expiration.Record{UniqueID: "b", MembershipName: "Silver"}},
		{Record: expiration.Record{UniqueID: "c", MembershipName: "Gold"}},
		{Record: expiration.Record{UniqueID: "d"}},
	}

	groups := GroupRecords(records, GroupMembership)
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	if groups[0].Label != "Gold" || groups[1].Label != "Silver" || groups[2].Label != "Uncategorized" {
		t.Errorf("labels = %q %q %q", groups[0].Label, groups[1].Label, groups[2].Label)
	}
	if len(groups[0].Records) != 2 || groups[0].Records[1].UniqueID != "c" {
		t.Errorf("Gold bucket = %+v, want a then c", groups[0].Records)
	}
}

// TestGroupRecordsFallbackLabels tests per-key fallback names.
func TestGroupRecordsFallbackLabels(t *testing.T) {
	empty := []reconcile.Combined{{Record: expiration.Record{UniqueID: "a"}}}

	tests := []struct {
		groupBy string
		want    string
	}{
		{GroupMembership, "Uncategorized"},
		{GroupLocation, "No Location"},
		{GroupMemberStatus, "No Status"},
		{GroupNoteStatus, "No Note Status"},
		{GroupPriority, "No Priority"},
		{GroupAssociate, "Unassigned"},
	}
	for _, tt := range tests {
		groups := GroupRecords(empty, tt.groupBy)
		if len(groups) != 1 || groups[0].Label != tt.want {
			t.Errorf("groupBy %q label = %q, want %q", tt.groupBy, groups[0].Label, tt.want)
		}
	}
}

// TestGroupRecordsUnknownKey tests the single-bucket fallback.
func TestGroupRecordsUnknownKey(t *testing.T) {
	records := []reconcile.Combined{
		{Record: expiration.Record{UniqueID: "a"}},
		{Record: expiration.Record{UniqueID: "b"}},
	}
	for _, key := range []string{GroupNone, "bogus", ""} {
		groups := GroupRecords(records, key)
		if len(groups) != 1 || groups[0].Label != "All Items" || len(groups[0].Records) != 2 {
			t.Errorf("groupBy %q = %+v, want one All Items bucket", key, groups)
		}
	}
}

// TestGroupRecordsByNoteFields tests grouping on the note overlay.
func TestGroupRecordsByNoteFields(t *testing.T) {
	records := []reconcile.Combined{
		{Record: expiration.Record{UniqueID: "a"}, Note: note.Note{Priority: "High"}},
		{Record: expiration.Record{UniqueID: "b"}, Note: note.Note{Priority: "Low"}},
		{Record: expiration.Record{UniqueID: "c"}, Note: note.Note{Priority: "High"}},
	}
	groups := GroupRecords(records, GroupPriority)
	if len(groups) != 2 || groups[0].Label != "High" || len(groups[0].Records) != 2 {
		t.Errorf("priority groups = %+v", groups)
	}
}
