package note_test

import (
	"testing"
	"time"

	"retain/internal/domain/note"
)

var today = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

// TestAutoPriorityBoundaries tests the day-count thresholds either side of
// the 30 and 90 day cutoffs.
func TestAutoPriorityBoundaries(t *testing.T) {
	day := func(offset int) string {
		return today.AddDate(0, 0, offset).Format("2006-01-02")
	}

	tests := []struct {
		name    string
		endDate string
		want    string
	}{
		{"lapsed yesterday", day(-1), note.PriorityHigh},
		{"ends today", day(0), note.PriorityHigh},
		{"30 days out", day(30), note.PriorityHigh},
		{"31 days out", day(31), note.PriorityMedium},
		{"90 days out", day(90), note.PriorityMedium},
		{"91 days out", day(91), note.PriorityLow},
		{"long since lapsed", day(-200), note.PriorityHigh},
		{"empty end date", "", note.PriorityLow},
		{"unparsable end date", "soon", note.PriorityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := note.AutoPriority(tt.endDate, today); got != tt.want {
				t.Errorf("AutoPriority(%q) = %q, want %q", tt.endDate, got, tt.want)
			}
		})
	}
}

// TestEffectivePriorityManualWins tests that any non-empty manual value
// overrides the computed default.
func TestEffectivePriorityManualWins(t *testing.T) {
	lapsed := today.AddDate(0, 0, -5).Format("2006-01-02")

	if got := note.EffectivePriority("Low", lapsed, today); got != "Low" {
		t.Errorf("manual Low on a lapsed membership = %q, want Low", got)
	}
	if got := note.EffectivePriority("Urgent!", lapsed, today); got != "Urgent!" {
		t.Errorf("arbitrary manual value = %q, want it verbatim", got)
	}
	if got := note.EffectivePriority("   ", lapsed, today); got != note.PriorityHigh {
		t.Errorf("blank manual value = %q, want computed High", got)
	}
}
