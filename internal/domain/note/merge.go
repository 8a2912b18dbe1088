package note

// Merge rules for raw note rows sharing a key. Multiple rows for one key can
// exist in the backing table (e.g. after concurrent appends); reconciliation
// collapses them into a single note without losing list entries.

// DedupFollowUps removes exact repeats, preserving the first occurrence.
// POST: Result order is insertion order of first occurrence; no entry is dropped
// unless it shares identity with an earlier one
func DedupFollowUps(entries []FollowUpEntry) []FollowUpEntry {
	var out []FollowUpEntry
	for _, e := range entries {
		dup := false
		for _, kept := range out {
			if kept.SameIdentity(e) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	return out
}

// UnionFollowUps concatenates a then b in encounter order and deduplicates.
func UnionFollowUps(a, b []FollowUpEntry) []FollowUpEntry {
	merged := make([]FollowUpEntry, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return DedupFollowUps(merged)
}

// UnionTags returns the set union of two tag lists, first occurrence preserved.
func UnionTags(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, t := range append(append([]string{}, a...), b...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// pick returns preferred unless it is empty, falling back to other.
// A populated field is never overwritten by emptiness.
func pick(preferred, other string) string {
	if preferred != "" {
		return preferred
	}
	return other
}

// mergePair merges two raw rows for the same key; a was encountered before b.
// POST: Scalars come from the row with the later UpdatedAt (b wins ties),
// falling back to the other row when empty; follow-ups concatenate in encounter
// order then dedup; tags union; CreatedAt keeps the earliest non-empty value
func mergePair(a, b Note) Note {
	later, earlier := b, a
	if a.UpdatedAt > b.UpdatedAt {
		later, earlier = a, b
	}

	merged := Note{
		ExpirationID:  pick(a.ExpirationID, b.ExpirationID),
		AssociateName: pick(later.AssociateName, earlier.AssociateName),
		Stage:         pick(later.Stage, earlier.Stage),
		Status:        pick(later.Status, earlier.Status),
		Priority:      pick(later.Priority, earlier.Priority),
		Remarks:       pick(later.Remarks, earlier.Remarks),
		InternalNotes: pick(later.InternalNotes, earlier.InternalNotes),
		FollowUps:     UnionFollowUps(a.FollowUps, b.FollowUps),
		Tags:          UnionTags(a.Tags, b.Tags),
		UpdatedAt:     pick(later.UpdatedAt, earlier.UpdatedAt),
	}

	// Earliest non-empty createdAt wins.
	switch {
	case a.CreatedAt == "":
		merged.CreatedAt = b.CreatedAt
	case b.CreatedAt == "":
		merged.CreatedAt = a.CreatedAt
	case a.CreatedAt <= b.CreatedAt:
		merged.CreatedAt = a.CreatedAt
	default:
		merged.CreatedAt = b.CreatedAt
	}

	merged.Version = a.Version
	if b.Version > merged.Version {
		merged.Version = b.Version
	}

	if len(earlier.CustomFields) > 0 || len(later.CustomFields) > 0 {
		merged.CustomFields = make(map[string]string, len(earlier.CustomFields)+len(later.CustomFields))
		for k, v := range earlier.CustomFields {
			merged.CustomFields[k] = v
		}
		for k, v := range later.CustomFields {
			if v != "" {
				merged.CustomFields[k] = v
			}
		}
	}

	return merged
}

// MergeAll folds raw rows sharing a key into one note, in encounter order.
// PRE: All rows carry the same ExpirationID
// POST: Returns the zero Note for empty input; single rows pass through with
// follow-ups deduplicated
func MergeAll(rows []Note) Note {
	if len(rows) == 0 {
		return Note{}
	}
	merged := rows[0]
	merged.FollowUps = DedupFollowUps(merged.FollowUps)
	merged.Tags = UnionTags(merged.Tags, nil)
	for _, row := range rows[1:] {
		merged = mergePair(merged, row)
	}
	return merged
}
