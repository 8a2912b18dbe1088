package expiration_test

import (
	"reflect"
	"testing"
	"time"

	"retain/internal/domain/expiration"
)

// TestParseRowRoundTrip tests the fixed-order row codec.
func TestParseRowRoundTrip(t *testing.T) {
	rec := expiration.Record{
		UniqueID:       "exp-001",
		MemberID:       "m-42",
		FirstName:      "Jordan",
		LastName:       "Lee",
		Email:          "jordan@example.com",
		MembershipName: "Gold Annual",
		EndDate:        "2026-04-01",
		HomeLocation:   "Downtown",
		Status:         "Active",
	}
	if got := expiration.ParseRow(rec.Row()); !reflect.DeepEqual(got, rec) {
		t.Errorf("ParseRow(Row()) = %+v, want %+v", got, rec)
	}
}

// TestParseRowShortRow tests padding of truncated rows.
func TestParseRowShortRow(t *testing.T) {
	rec := expiration.ParseRow([]string{"exp-001", "m-42"})
	if rec.UniqueID != "exp-001" || rec.MemberID != "m-42" {
		t.Errorf("leading cells lost: %+v", rec)
	}
	if rec.AssignedAssociate != "" || rec.EndDate != "" {
		t.Error("missing cells must read as empty strings")
	}
	if len(rec.Row()) != expiration.NumColumns {
		t.Errorf("Row() width = %d, want %d", len(rec.Row()), expiration.NumColumns)
	}
}

// TestParseDateLayouts tests the accepted end-date formats.
func TestParseDateLayouts(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"2026-04-01", true},
		{"2026-04-01T12:30:00Z", true},
		{"2026-04-01 12:30:00", true},
		{"01-04-2026", true},
		{"01/04/2026", true},
		{"", false},
		{"next month", false},
	}
	for _, tt := range tests {
		if _, ok := expiration.ParseDate(tt.in); ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
	}
}

// TestDaysUntilEnd tests day arithmetic around the current date.
func TestDaysUntilEnd(t *testing.T) {
	today := time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)

	rec := expiration.Record{EndDate: "2026-03-20"}
	days, ok := rec.DaysUntilEnd(today)
	if !ok || days != 5 {
		t.Errorf("DaysUntilEnd = %d, %v; want 5, true", days, ok)
	}

	lapsed := expiration.Record{EndDate: "2026-03-10"}
	if !lapsed.IsLapsed(today) {
		t.Error("membership past its end date should be lapsed")
	}
	if (expiration.Record{EndDate: "2026-03-15"}).IsLapsed(today) {
		t.Error("membership ending today is not yet lapsed")
	}
	if (expiration.Record{}).IsLapsed(today) {
		t.Error("missing end date is never lapsed")
	}
}

// TestFormatDisplayDate tests display formatting and its fallbacks.
func TestFormatDisplayDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-04-01", "01-Apr-2026"},
		{"2026-12-09", "09-Dec-2026"},
		{"", "N/A"},
		{"   ", "N/A"},
		{"sometime", "sometime"},
	}
	for _, tt := range tests {
		if got := expiration.FormatDisplayDate(tt.in); got != tt.want {
			t.Errorf("FormatDisplayDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestFullName tests display name assembly.
func TestFullName(t *testing.T) {
	if got := (expiration.Record{FirstName: "Jordan", LastName: "Lee"}).FullName(); got != "Jordan Lee" {
		t.Errorf("FullName = %q", got)
	}
	if got := (expiration.Record{FirstName: "Jordan"}).FullName(); got != "Jordan" {
		t.Errorf("FullName with one part = %q", got)
	}
}
