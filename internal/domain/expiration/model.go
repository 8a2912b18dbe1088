package expiration

import (
	"fmt"
	"strings"
	"time"
)

// NumColumns is the fixed width of the expirations table (columns A through R).
const NumColumns = 18

// Record holds one membership expiration row. Rows are produced by an external
// process and are read-only to this system.
type Record struct {
	UniqueID          string
	MemberID          string
	FirstName         string
	LastName          string
	Email             string
	MembershipName    string
	EndDate           string
	HomeLocation      string
	CurrentUsage      string
	SecondaryID       string
	OrderedAt         string
	SoldBy            string
	MembershipID      string
	Frozen            string
	Paid              string
	Status            string
	Revenue           string
	AssignedAssociate string
}

// CanonicalHeader is the expected header row of the expirations table, in the
// fixed A through R column order.
var CanonicalHeader = []string{
	"Unique ID", "Member ID", "First Name", "Last Name", "Email",
	"Membership Name", "End Date", "Home Location", "Current Usage",
	"Secondary ID", "Ordered At", "Sold By", "Membership ID",
	"Frozen", "Paid", "Status", "Revenue", "Assigned Associate",
}

// ParseRow builds a Record from a raw row in the fixed column order.
// PRE: cells come from the expirations table with the header row already skipped
// POST: Returns a Record; columns beyond the last populated cell are empty strings
func ParseRow(cells []string) Record {
	cell := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	return Record{
		UniqueID:          cell(0),
		MemberID:          cell(1),
		FirstName:         cell(2),
		LastName:          cell(3),
		Email:             cell(4),
		MembershipName:    cell(5),
		EndDate:           cell(6),
		HomeLocation:      cell(7),
		CurrentUsage:      cell(8),
		SecondaryID:       cell(9),
		OrderedAt:         cell(10),
		SoldBy:            cell(11),
		MembershipID:      cell(12),
		Frozen:            cell(13),
		Paid:              cell(14),
		Status:            cell(15),
		Revenue:           cell(16),
		AssignedAssociate: cell(17),
	}
}

// Row returns the record as a raw row in the fixed column order.
// INVARIANT: ParseRow(r.Row()) == r
func (r Record) Row() []string {
	return []string{
		r.UniqueID, r.MemberID, r.FirstName, r.LastName, r.Email,
		r.MembershipName, r.EndDate, r.HomeLocation, r.CurrentUsage,
		r.SecondaryID, r.OrderedAt, r.SoldBy, r.MembershipID,
		r.Frozen, r.Paid, r.Status, r.Revenue, r.AssignedAssociate,
	}
}

// FullName returns the member's display name.
// INVARIANT: Record fields are not mutated
func (r Record) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// endDateLayouts are the accepted end-date formats, tried in order.
var endDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02-01-2006",
	"02/01/2006",
}

// ParseDate parses a raw date cell.
// POST: Returns the parsed time and true, or zero time and false when the cell
// is empty or matches no known layout
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range endDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Midnight truncates a time to 00:00:00 of its local date.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndDateAt returns the parsed end date.
// POST: Returns the end date truncated to midnight and true, or false when unset/unparsable
func (r Record) EndDateAt() (time.Time, bool) {
	t, ok := ParseDate(r.EndDate)
	if !ok {
		return time.Time{}, false
	}
	return Midnight(t), true
}

// DaysUntilEnd returns whole days from today until the end date.
// PRE: today is truncated to midnight
// POST: Negative values mean the membership has already lapsed
func (r Record) DaysUntilEnd(today time.Time) (int, bool) {
	end, ok := r.EndDateAt()
	if !ok {
		return 0, false
	}
	return int(end.Sub(Midnight(today)).Hours() / 24), true
}

// IsLapsed returns true if the membership end date is before today.
// INVARIANT: Record fields are not mutated
func (r Record) IsLapsed(today time.Time) bool {
	days, ok := r.DaysUntilEnd(today)
	return ok && days < 0
}

// monthNames for display formatting (DD-Mon-YYYY).
var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// FormatDisplayDate renders a raw date cell as DD-Mon-YYYY for exports and the UI.
// POST: Returns "N/A" for empty input; unparsable input is returned unchanged
func FormatDisplayDate(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return fmt.Sprintf("%02d-%s-%d", t.Day(), monthNames[t.Month()-1], t.Year())
}
