package reconcile

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"retain/internal/domain/expiration"
	"retain/internal/domain/note"
)

// Combined is one expiration record joined with its reconciled note. Exactly
// one Combined exists per expiration key after Reconcile.
type Combined struct {
	expiration.Record
	Note note.Note
}

// DecodeNotes turns raw table rows into notes using a normalized header.
// PRE: header is the raw header row; rows are the data rows beneath it
// POST: Rows with an empty key are discarded; tags split on commas; followUps
// decode from JSON (malformed lists decode to empty, mirroring a forgiving
// read path); unrecognized columns land in CustomFields under their own label
func DecodeNotes(header []string, rows [][]string) []note.Note {
	fields := NormalizeHeaderRow(header)

	var out []note.Note
	for _, row := range rows {
		n := decodeNoteRow(fields, row)
		if strings.TrimSpace(n.ExpirationID) == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}

func decodeNoteRow(fields []string, row []string) note.Note {
	var n note.Note
	for i, field := range fields {
		var value string
		if i < len(row) {
			value = row[i]
		}
		if value == "" {
			continue
		}
		switch field {
		case note.FieldExpirationID:
			n.ExpirationID = strings.TrimSpace(value)
		case note.FieldAssociateName:
			n.AssociateName = value
		case note.FieldStage:
			n.Stage = value
		case note.FieldStatus:
			n.Status = value
		case note.FieldPriority:
			n.Priority = value
		case note.FieldFollowUps:
			var entries []note.FollowUpEntry
			if err := json.Unmarshal([]byte(value), &entries); err == nil {
				n.FollowUps = entries
			}
		case note.FieldRemarks:
			n.Remarks = value
		case note.FieldInternalNotes:
			n.InternalNotes = value
		case note.FieldTags:
			n.Tags = splitTags(value)
		case note.FieldCustomFields:
			var custom map[string]string
			if err := json.Unmarshal([]byte(value), &custom); err == nil {
				for k, v := range custom {
					n.CustomFields = setCustom(n.CustomFields, k, v)
				}
			}
		case note.FieldVersion:
			if v, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				n.Version = v
			}
		case note.FieldCreatedAt:
			n.CreatedAt = value
		case note.FieldUpdatedAt:
			n.UpdatedAt = value
		default:
			// Forward-compatible custom column: keep under its own name.
			n.CustomFields = setCustom(n.CustomFields, field, value)
		}
	}
	return n
}

// EncodeNote renders a note as a raw row matching the given header.
// PRE: header is the stored header row (may carry custom columns)
// POST: Known fields fill their columns; custom columns present in the header
// fill from CustomFields; remaining custom fields serialize into the
// customFields cell so nothing is lost on a save/read round trip
func EncodeNote(header []string, n note.Note) []string {
	fields := NormalizeHeaderRow(header)

	inHeader := make(map[string]bool, len(fields))
	for _, f := range fields {
		inHeader[f] = true
	}
	overflow := make(map[string]string)
	for k, v := range n.CustomFields {
		if !inHeader[k] {
			overflow[k] = v
		}
	}

	row := make([]string, len(fields))
	for i, field := range fields {
		switch field {
		case note.FieldExpirationID:
			row[i] = n.ExpirationID
		case note.FieldAssociateName:
			row[i] = n.AssociateName
		case note.FieldStage:
			row[i] = n.Stage
		case note.FieldStatus:
			row[i] = n.Status
		case note.FieldPriority:
			row[i] = n.Priority
		case note.FieldFollowUps:
			row[i] = marshalFollowUps(n.FollowUps)
		case note.FieldRemarks:
			row[i] = n.Remarks
		case note.FieldInternalNotes:
			row[i] = n.InternalNotes
		case note.FieldTags:
			row[i] = strings.Join(n.Tags, ", ")
		case note.FieldCustomFields:
			row[i] = marshalCustom(overflow)
		case note.FieldVersion:
			row[i] = strconv.Itoa(n.Version)
		case note.FieldCreatedAt:
			row[i] = n.CreatedAt
		case note.FieldUpdatedAt:
			row[i] = n.UpdatedAt
		default:
			row[i] = n.CustomFields[field]
		}
	}
	return row
}

// MergeByKey groups raw notes by key and merges each group.
// POST: At most one note per key survives; rows with empty keys were already
// discarded by DecodeNotes
func MergeByKey(raw []note.Note) map[string]note.Note {
	groups := make(map[string][]note.Note)
	var order []string
	for _, n := range raw {
		if _, seen := groups[n.ExpirationID]; !seen {
			order = append(order, n.ExpirationID)
		}
		groups[n.ExpirationID] = append(groups[n.ExpirationID], n)
	}

	merged := make(map[string]note.Note, len(order))
	for _, key := range order {
		merged[key] = note.MergeAll(groups[key])
	}
	return merged
}

// Reconcile joins expirations with merged notes, one Combined per expiration
// in input order. A missing note is synthesized with the key, the computed
// priority default, and fresh timestamps. The function is pure: re-running it
// on the same inputs and clock yields identical output.
// PRE: rawNotes come from DecodeNotes (empty keys already dropped)
// POST: len(result) == len(expirations); Note.Priority is never empty
func Reconcile(expirations []expiration.Record, rawNotes []note.Note, now time.Time) []Combined {
	merged := MergeByKey(rawNotes)
	stamp := now.UTC().Format(time.RFC3339)

	out := make([]Combined, 0, len(expirations))
	for _, exp := range expirations {
		n, ok := merged[exp.UniqueID]
		if !ok {
			n = note.Note{
				ExpirationID: exp.UniqueID,
				CreatedAt:    stamp,
				UpdatedAt:    stamp,
			}
		}
		// Display-time default; an explicit priority always wins and the
		// computed value is never written back to storage.
		n.Priority = note.EffectivePriority(n.Priority, exp.EndDate, now)
		out = append(out, Combined{Record: exp, Note: n})
	}
	return out
}

func splitTags(value string) []string {
	var tags []string
	for _, t := range strings.Split(value, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func setCustom(m map[string]string, k, v string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[k] = v
	return m
}

func marshalFollowUps(entries []note.FollowUpEntry) string {
	if len(entries) == 0 {
		return "[]"
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// marshalCustom serializes overflow custom fields (json.Marshal sorts map keys).
func marshalCustom(m map[string]string) string {
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
