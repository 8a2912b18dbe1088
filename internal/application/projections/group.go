package projections

import "retain/internal/application/reconcile"

// Grouping keys for the expiration list.
const (
	GroupNone         = "none"
	GroupMembership   = "membership"
	GroupLocation     = "location"
	GroupMemberStatus = "memberStatus"
	GroupNoteStatus   = "noteStatus"
	GroupPriority     = "priority"
	GroupAssociate    = "associate"
)

// GroupingOptions lists the selectable grouping keys.
var GroupingOptions = []string{
	GroupNone, GroupMembership, GroupLocation, GroupMemberStatus,
	GroupNoteStatus, GroupPriority, GroupAssociate,
}

// Group is one named bucket of combined records.
type Group struct {
	Label   string
	Records []reconcile.Combined
}

// fallback labels per grouping key for records with an empty value.
var groupFallbacks = map[string]string{
	GroupMembership:   "Uncategorized",
	GroupLocation:     "No Location",
	GroupMemberStatus: "No Status",
	GroupNoteStatus:   "No Note Status",
	GroupPriority:     "No Priority",
	GroupAssociate:    "Unassigned",
}

// GroupRecords partitions combined records into named buckets by a single
// selected field. Bucket order follows first occurrence; records keep their
// relative order within a bucket.
// POST: GroupNone (or an unknown key) yields a single "All Items" bucket
func GroupRecords(records []reconcile.Combined, groupBy string) []Group {
	keyFn, ok := groupKeyFuncs[groupBy]
	if !ok {
		return []Group{{Label: "All Items", Records: records}}
	}

	fallback := groupFallbacks[groupBy]
	index := make(map[string]int)
	var groups []Group
	for _, rec := range records {
		label := keyFn(rec)
		if label == "" {
			label = fallback
		}
		i, seen := index[label]
		if !seen {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{Label: label})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}

var groupKeyFuncs = map[string]func(reconcile.Combined) string{
	GroupMembership:   func(r reconcile.Combined) string { return r.MembershipName },
	GroupLocation:     func(r reconcile.Combined) string { return r.HomeLocation },
	GroupMemberStatus: func(r reconcile.Combined) string { return r.Status },
	GroupNoteStatus:   func(r reconcile.Combined) string { return r.Note.Status },
	GroupPriority:     func(r reconcile.Combined) string { return r.Note.Priority },
	GroupAssociate:    func(r reconcile.Combined) string { return r.Note.AssociateName },
}
