package projections

import (
	"strings"
	"time"

	"retain/internal/application/reconcile"
	"retain/internal/domain/expiration"
)

// Filter holds the ANDed predicate set for combined records. Empty fields
// impose no constraint.
type Filter struct {
	Search         string   // substring on name, email or member id
	MemberName     string   // substring on "first last", case-insensitive
	Email          string   // substring, case-insensitive
	MembershipName string   // substring, case-insensitive
	HomeLocation   string   // substring, case-insensitive
	AssociateName  string   // substring on the note's assignment
	Tags           string   // substring against any tag
	MemberStatus   []string // exact-set on the expiration status
	NoteStatus     []string // exact-set on the note status
	Stage          []string // exact-set on the lapsing reason
	Priority       []string // exact-set on the effective priority
	EndDateFrom    string   // inclusive lower bound, truncated to midnight
	EndDateTo      string   // inclusive upper bound, extended to end of day
}

// IsZero reports whether no predicate is set.
func (f Filter) IsZero() bool {
	return f.Search == "" && f.MemberName == "" && f.Email == "" && f.MembershipName == "" &&
		f.HomeLocation == "" && f.AssociateName == "" && f.Tags == "" &&
		len(f.MemberStatus) == 0 && len(f.NoteStatus) == 0 &&
		len(f.Stage) == 0 && len(f.Priority) == 0 &&
		f.EndDateFrom == "" && f.EndDateTo == ""
}

// ApplyFilter returns the records matching every set predicate.
// POST: Input order is preserved; the input slice is not mutated
func ApplyFilter(records []reconcile.Combined, f Filter) []reconcile.Combined {
	if f.IsZero() {
		return records
	}
	var out []reconcile.Combined
	for _, rec := range records {
		if matches(rec, f) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(rec reconcile.Combined, f Filter) bool {
	if f.Search != "" && !containsFold(rec.FullName(), f.Search) &&
		!containsFold(rec.Email, f.Search) && !containsFold(rec.MemberID, f.Search) {
		return false
	}
	if f.MemberName != "" && !containsFold(rec.FullName(), f.MemberName) {
		return false
	}
	if f.Email != "" && !containsFold(rec.Email, f.Email) {
		return false
	}
	if f.MembershipName != "" && !containsFold(rec.MembershipName, f.MembershipName) {
		return false
	}
	if f.HomeLocation != "" && !containsFold(rec.HomeLocation, f.HomeLocation) {
		return false
	}
	if len(f.MemberStatus) > 0 && !inSet(rec.Status, f.MemberStatus) {
		return false
	}
	if len(f.NoteStatus) > 0 && !inSet(rec.Note.Status, f.NoteStatus) {
		return false
	}
	if len(f.Stage) > 0 && !inSet(rec.Note.Stage, f.Stage) {
		return false
	}
	if len(f.Priority) > 0 && !inSet(rec.Note.Priority, f.Priority) {
		return false
	}
	if f.AssociateName != "" && !containsFold(rec.Note.AssociateName, f.AssociateName) {
		return false
	}
	if f.Tags != "" && !rec.Note.HasTag(f.Tags) {
		return false
	}
	if f.EndDateFrom != "" || f.EndDateTo != "" {
		end, ok := rec.EndDateAt()
		if !ok {
			return false
		}
		if f.EndDateFrom != "" {
			from, okFrom := expiration.ParseDate(f.EndDateFrom)
			if okFrom && end.Before(expiration.Midnight(from)) {
				return false
			}
		}
		if f.EndDateTo != "" {
			to, okTo := expiration.ParseDate(f.EndDateTo)
			if okTo {
				// The "to" bound extends through end of that day.
				endOfDay := expiration.Midnight(to).Add(24*time.Hour - time.Millisecond)
				if end.After(endOfDay) {
					return false
				}
			}
		}
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func inSet(value string, set []string) bool {
	for _, s := range set {
		if value == s {
			return true
		}
	}
	return false
}
