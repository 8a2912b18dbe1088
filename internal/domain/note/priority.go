package note

import (
	"strings"
	"time"

	"retain/internal/domain/expiration"
)

// Priority levels. A manually set priority may be any non-empty string; these
// are the values the auto-calculation produces.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Priorities lists the standard levels for dropdowns and set filters.
var Priorities = []string{PriorityHigh, PriorityMedium, PriorityLow}

// AutoPriority computes the default priority from the membership end date.
// The closer the expiration, the higher the priority.
// PRE: today is wall-clock time; both sides are truncated to midnight here
// POST: lapsed or <= 30 days out -> High; 31-90 days -> Medium; beyond -> Low;
// an empty or unparsable end date -> Low
func AutoPriority(endDate string, today time.Time) string {
	end, ok := expiration.ParseDate(endDate)
	if !ok {
		return PriorityLow
	}
	days := int(expiration.Midnight(end).Sub(expiration.Midnight(today)).Hours() / 24)

	switch {
	case days < 0:
		return PriorityHigh // already lapsed
	case days <= 30:
		return PriorityHigh
	case days <= 90:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// EffectivePriority returns the manual priority when set, else the computed
// default. The computed value is display-only and never persisted.
// INVARIANT: A non-empty manual priority always wins, even outside Priorities
func EffectivePriority(manual, endDate string, today time.Time) string {
	if strings.TrimSpace(manual) != "" {
		return manual
	}
	return AutoPriority(endDate, today)
}
