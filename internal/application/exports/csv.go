// Package exports renders reconciled expiration records into downloadable
// formats.
package exports

import (
	"encoding/csv"
	"io"

	"retain/internal/application/reconcile"
	"retain/internal/domain/expiration"
)

// csvHeader is the fixed export column set.
var csvHeader = []string{
	"Member ID",
	"First Name",
	"Last Name",
	"Email",
	"Membership",
	"End Date",
	"Location",
	"Status",
	"Priority",
	"Assigned Associate",
	"Stage",
	"Revenue",
	"Sold By",
	"Frozen",
	"Paid",
	"Latest Follow-up",
	"Remarks",
}

// WriteCSV streams the records as CSV. The note status wins over the raw
// membership status when present, and the sheet's assigned associate wins
// over the note's.
// POST: Output has a header row plus one row per record
func WriteCSV(w io.Writer, records []reconcile.Combined) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range records {
		if err := cw.Write(csvRow(c)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(c reconcile.Combined) []string {
	status := c.Note.Status
	if status == "" {
		status = c.Status
	}
	associate := c.AssignedAssociate
	if associate == "" {
		associate = c.Note.AssociateName
	}
	latest := ""
	if n := len(c.Note.FollowUps); n > 0 {
		latest = c.Note.FollowUps[n-1].Comment
	}
	return []string{
		c.MemberID,
		c.FirstName,
		c.LastName,
		c.Email,
		c.MembershipName,
		expiration.FormatDisplayDate(c.EndDate),
		c.HomeLocation,
		status,
		c.Note.Priority,
		associate,
		c.Note.Stage,
		c.Revenue,
		c.SoldBy,
		c.Frozen,
		c.Paid,
		latest,
		c.Note.Remarks,
	}
}
