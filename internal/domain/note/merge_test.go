package note_test

import (
	"reflect"
	"testing"

	"retain/internal/domain/note"
)

// TestMergeAllScalarsLaterWins tests that the row with the later updatedAt
// supplies the scalar fields, but emptiness never overwrites data.
func TestMergeAllScalarsLaterWins(t *testing.T) {
	older := note.Note{
		ExpirationID: "exp-001",
		Status:       "Lapsed (<60 Days)",
		Remarks:      "initial call made",
		Stage:        "Price Concern",
		CreatedAt:    "2026-01-01T00:00:00Z",
		UpdatedAt:    "2026-01-05T00:00:00Z",
		Version:      1,
	}
	newer := note.Note{
		ExpirationID: "exp-001",
		Status:       "Renewed",
		Remarks:      "renewed on the phone",
		CreatedAt:    "2026-01-03T00:00:00Z",
		UpdatedAt:    "2026-01-09T00:00:00Z",
		Version:      2,
	}

	merged := note.MergeAll([]note.Note{older, newer})

	if merged.Status != "Renewed" {
		t.Errorf("Status = %q, want later row's value", merged.Status)
	}
	if merged.Remarks != "renewed on the phone" {
		t.Errorf("Remarks = %q, want later row's value", merged.Remarks)
	}
	// The later row has no stage; the older value must survive.
	if merged.Stage != "Price Concern" {
		t.Errorf("Stage = %q, empty field overwrote data", merged.Stage)
	}
	if merged.CreatedAt != "2026-01-01T00:00:00Z" {
		t.Errorf("CreatedAt = %q, want earliest", merged.CreatedAt)
	}
	if merged.UpdatedAt != "2026-01-09T00:00:00Z" {
		t.Errorf("UpdatedAt = %q, want latest", merged.UpdatedAt)
	}
	if merged.Version != 2 {
		t.Errorf("Version = %d, want max", merged.Version)
	}
}

// TestMergeAllEncounterOrderIndependent tests that the later-updatedAt row
// wins regardless of row order in the table.
func TestMergeAllEncounterOrderIndependent(t *testing.T) {
	a := note.Note{ExpirationID: "exp-001", Status: "Renewed", UpdatedAt: "2026-01-09T00:00:00Z"}
	b := note.Note{ExpirationID: "exp-001", Status: "Lapsed (<60 Days)", UpdatedAt: "2026-01-05T00:00:00Z"}

	forward := note.MergeAll([]note.Note{a, b})
	reverse := note.MergeAll([]note.Note{b, a})

	if forward.Status != "Renewed" || reverse.Status != "Renewed" {
		t.Errorf("Status forward=%q reverse=%q, want Renewed in both", forward.Status, reverse.Status)
	}
}

// TestMergeAllFollowUpUnion tests follow-up concatenation with timestamp dedup.
func TestMergeAllFollowUpUnion(t *testing.T) {
	shared := note.FollowUpEntry{Comment: "first call", Timestamp: "2026-01-02T09:00:00Z"}
	a := note.Note{
		ExpirationID: "exp-001",
		Status:       "Renewed",
		FollowUps:    []note.FollowUpEntry{shared},
		UpdatedAt:    "2026-01-02T00:00:00Z",
	}
	b := note.Note{
		ExpirationID: "exp-001",
		Status:       "Renewed",
		FollowUps: []note.FollowUpEntry{
			shared,
			{Comment: "second call", Timestamp: "2026-01-04T09:00:00Z"},
		},
		UpdatedAt: "2026-01-04T00:00:00Z",
	}

	merged := note.MergeAll([]note.Note{a, b})

	want := []note.FollowUpEntry{
		shared,
		{Comment: "second call", Timestamp: "2026-01-04T09:00:00Z"},
	}
	if !reflect.DeepEqual(merged.FollowUps, want) {
		t.Errorf("FollowUps = %+v, want %+v", merged.FollowUps, want)
	}
}

// TestMergeAllTagUnion tests the tag set union with first-occurrence order.
func TestMergeAllTagUnion(t *testing.T) {
	a := note.Note{ExpirationID: "exp-001", Tags: []string{"vip", "corporate"}}
	b := note.Note{ExpirationID: "exp-001", Tags: []string{"frequent", "vip"}}

	merged := note.MergeAll([]note.Note{a, b})

	want := []string{"vip", "corporate", "frequent"}
	if !reflect.DeepEqual(merged.Tags, want) {
		t.Errorf("Tags = %v, want %v", merged.Tags, want)
	}
}

// TestMergeAllCustomFields tests that later custom values win unless empty.
func TestMergeAllCustomFields(t *testing.T) {
	a := note.Note{
		ExpirationID: "exp-001",
		CustomFields: map[string]string{"Region": "North", "Referrer": "Pat"},
		UpdatedAt:    "2026-01-01T00:00:00Z",
	}
	b := note.Note{
		ExpirationID: "exp-001",
		CustomFields: map[string]string{"Region": "South", "Referrer": ""},
		UpdatedAt:    "2026-01-02T00:00:00Z",
	}

	merged := note.MergeAll([]note.Note{a, b})

	if merged.CustomFields["Region"] != "South" {
		t.Errorf("Region = %q, want later value", merged.CustomFields["Region"])
	}
	if merged.CustomFields["Referrer"] != "Pat" {
		t.Errorf("Referrer = %q, empty value overwrote data", merged.CustomFields["Referrer"])
	}
}

// TestMergeAllEdgeCases tests empty and single-row inputs.
func TestMergeAllEdgeCases(t *testing.T) {
	if got := note.MergeAll(nil); !got.IsBlank() || got.ExpirationID != "" {
		t.Errorf("MergeAll(nil) = %+v, want zero note", got)
	}

	dup := note.FollowUpEntry{Comment: "call", Timestamp: "2026-01-02T09:00:00Z"}
	single := note.Note{
		ExpirationID: "exp-001",
		Status:       "Renewed",
		FollowUps:    []note.FollowUpEntry{dup, dup},
	}
	merged := note.MergeAll([]note.Note{single})
	if len(merged.FollowUps) != 1 {
		t.Errorf("single row follow-ups = %d, want in-row dedup to 1", len(merged.FollowUps))
	}
}

// TestUnionTagsSkipsEmpty tests that empty strings never enter the tag set.
func TestUnionTagsSkipsEmpty(t *testing.T) {
	got := note.UnionTags([]string{"", "vip"}, []string{"", "vip"})
	if !reflect.DeepEqual(got, []string{"vip"}) {
		t.Errorf("UnionTags = %v, want [vip]", got)
	}
}
