package reconcile

import (
	"reflect"
	"testing"

	"retain/internal/domain/note"
)

// TestNormalizeHeader tests label aliasing and pass-through.
func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"expirationId", note.FieldExpirationID},
		{"Unique Id", note.FieldExpirationID},
		{"UNIQUE_ID", note.FieldExpirationID},
		{"id", note.FieldExpirationID},
		{"Associate Name", note.FieldAssociateName},
		{"Assigned To", note.FieldAssociateName},
		{"Lapsing Reason", note.FieldStage},
		{"Follow-Ups", note.FieldFollowUps},
		{"follow up", note.FieldFollowUps},
		{"Internal Notes", note.FieldInternalNotes},
		{"Last Updated", note.FieldUpdatedAt},
		{"created_at", note.FieldCreatedAt},
		{"version", note.FieldVersion},
		// Unknown labels pass through so custom columns keep their names.
		{"Renewal Channel", "Renewal Channel"},
		{"  Spacer  ", "Spacer"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := NormalizeHeader(tt.label); got != tt.want {
				t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

// TestNormalizeHeaderRow tests whole-row resolution.
func TestNormalizeHeaderRow(t *testing.T) {
	got := NormalizeHeaderRow([]string{"Unique Id", "Status", "Renewal Channel"})
	want := []string{note.FieldExpirationID, note.FieldStatus, "Renewal Channel"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeHeaderRow = %v, want %v", got, want)
	}
}
