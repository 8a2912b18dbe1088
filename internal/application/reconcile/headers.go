package reconcile

import (
	"strings"

	"retain/internal/domain/note"
)

// headerAliases maps squashed column labels (lower-cased, non-alphanumerics
// stripped) to canonical field names. Unknown labels pass through unchanged so
// custom columns survive a save/read cycle.
var headerAliases = map[string]string{
	"expirationid": note.FieldExpirationID,
	"uniqueid":     note.FieldExpirationID,
	"id":           note.FieldExpirationID,
	"key":          note.FieldExpirationID,

	"associatename": note.FieldAssociateName,
	"associate":     note.FieldAssociateName,
	"assignedto":    note.FieldAssociateName,

	"stage":         note.FieldStage,
	"lapsingreason": note.FieldStage,
	"lapsereason":   note.FieldStage,
	"reason":        note.FieldStage,

	"status": note.FieldStatus,

	"priority": note.FieldPriority,

	"followups":   note.FieldFollowUps,
	"followup":    note.FieldFollowUps,
	"followuplog": note.FieldFollowUps,

	"remarks": note.FieldRemarks,
	"remark":  note.FieldRemarks,

	"internalnotes": note.FieldInternalNotes,
	"internalnote":  note.FieldInternalNotes,
	"notes":         note.FieldInternalNotes,

	"tags": note.FieldTags,
	"tag":  note.FieldTags,

	"customfields": note.FieldCustomFields,

	"version": note.FieldVersion,

	"createdat": note.FieldCreatedAt,
	"created":   note.FieldCreatedAt,

	"updatedat":   note.FieldUpdatedAt,
	"updated":     note.FieldUpdatedAt,
	"lastupdated": note.FieldUpdatedAt,
}

// squash strips non-alphanumeric characters and lower-cases the label.
func squash(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

// NormalizeHeader resolves an arbitrary column label to its canonical field
// name. "Unique Id", "uniqueid" and "id" all resolve to the key field.
// POST: Unrecognized labels are returned unchanged as their own field name
func NormalizeHeader(label string) string {
	if canonical, ok := headerAliases[squash(label)]; ok {
		return canonical
	}
	return strings.TrimSpace(label)
}

// NormalizeHeaderRow resolves every label in a header row.
func NormalizeHeaderRow(header []string) []string {
	out := make([]string, len(header))
	for i, label := range header {
		out[i] = NormalizeHeader(label)
	}
	return out
}
