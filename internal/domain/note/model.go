package note

import (
	"errors"
	"strings"
)

// Canonical field names for the notes table. Header stores the key column first.
const (
	FieldExpirationID  = "expirationId"
	FieldAssociateName = "associateName"
	FieldStage         = "stage"
	FieldStatus        = "status"
	FieldPriority      = "priority"
	FieldFollowUps     = "followUps"
	FieldRemarks       = "remarks"
	FieldInternalNotes = "internalNotes"
	FieldTags          = "tags"
	FieldCustomFields  = "customFields"
	FieldVersion       = "version"
	FieldCreatedAt     = "createdAt"
	FieldUpdatedAt     = "updatedAt"
)

// CanonicalHeader is the column layout written by InitSchema. Stores may carry
// extra columns beyond these; they are preserved on writes.
var CanonicalHeader = []string{
	FieldExpirationID,
	FieldAssociateName,
	FieldStage,
	FieldStatus,
	FieldPriority,
	FieldFollowUps,
	FieldRemarks,
	FieldInternalNotes,
	FieldTags,
	FieldCustomFields,
	FieldVersion,
	FieldCreatedAt,
	FieldUpdatedAt,
}

// Workflow status options for a note.
var Statuses = []string{
	"Lapsed (<60 Days)",
	"Renewed",
	"Travelling - Will renew soon",
	"Lost (>60 Days)",
}

// StageOther marks a custom free-text lapsing reason.
const StageOther = "Other"

// Stages are the predefined lapsing reasons. StageOther requires free text.
var Stages = []string{
	"Busy work schedule, Travel or relocation",
	"Family or personal commitments",
	"Schedule mismatch",
	"Seasonal motivation drop",
	"High membership cost",
	"Perceived lack of value",
	"Other spending priorities",
	"Not aware of renewal offers or packages",
	"Switching to cheaper fitness alternatives",
	"Loss of motivation or interest",
	"Didn't see expected results",
	"Achieved short-term goal",
	"Prefers workout variety",
	"Feels intimidated or discouraged",
	"Didn't feel a strong community connection",
	"Inconsistent instructor experience",
	"Poor front desk or customer service experience",
	"Limited progress tracking or feedback",
	"Lack of personalization in workouts",
	"Inconvenient location or parking issues",
	"Overcrowded classes or long waitlists",
	"Maintenance or cleanliness concerns",
	"Difficulty booking classes",
	"No clear renewal reminder or follow-up",
	"None of the Above",
	StageOther,
}

// Domain errors
var (
	ErrEmptyKey          = errors.New("note key cannot be empty")
	ErrEmptyStatus       = errors.New("note status cannot be empty")
	ErrEmptyCustomReason = errors.New("custom lapsing reason cannot be empty")
)

// FollowUpEntry is one entry in a note's follow-up log.
// Identity for deduplication is Timestamp when set, else full structural equality.
type FollowUpEntry struct {
	Date          string `json:"date"`
	Comment       string `json:"comment"`
	AssociateName string `json:"associateName,omitempty"`
	ContactedOn   string `json:"contactedOn,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
}

// SameIdentity reports whether two entries are the same entry for dedup purposes.
// INVARIANT: Entries are not mutated
func (e FollowUpEntry) SameIdentity(other FollowUpEntry) bool {
	if e.Timestamp != "" || other.Timestamp != "" {
		return e.Timestamp == other.Timestamp
	}
	return e == other
}

// Note is a user-authored overlay for one expiration record. Timestamps are
// RFC 3339 strings so that "later updatedAt" compares lexicographically.
type Note struct {
	ExpirationID  string
	AssociateName string
	Stage         string
	Status        string
	Priority      string
	FollowUps     []FollowUpEntry
	Remarks       string
	InternalNotes string
	Tags          []string
	CustomFields  map[string]string
	Version       int
	CreatedAt     string
	UpdatedAt     string
}

// Validate checks the fields required before a save is attempted.
// PRE: Note struct is populated by the caller
// POST: Returns a validation error, or nil; no store call is made here
func (n *Note) Validate() error {
	if strings.TrimSpace(n.ExpirationID) == "" {
		return ErrEmptyKey
	}
	if strings.TrimSpace(n.Status) == "" {
		return ErrEmptyStatus
	}
	if n.Stage == StageOther {
		return ErrEmptyCustomReason
	}
	return nil
}

// IsBlank returns true when every user-visible field is empty.
// A blank note is the soft-deleted state: the row remains, the slot is reusable.
func (n *Note) IsBlank() bool {
	return n.AssociateName == "" && n.Stage == "" && n.Status == "" &&
		n.Priority == "" && len(n.FollowUps) == 0 && n.Remarks == "" &&
		n.InternalNotes == "" && len(n.Tags) == 0 && len(n.CustomFields) == 0
}

// HasTag reports whether any tag contains the query, case-insensitively.
func (n *Note) HasTag(query string) bool {
	q := strings.ToLower(query)
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
