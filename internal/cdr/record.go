package cdr

// CallRecord is one logical call derived from a CDR export.
//
// Invariants:
// - Exactly one record exists per distinct call identifier.
// - Duration > 0 implies StatusAnswered.
// - StatusMissed implies Duration == 0 and no Extension.
// - Records are immutable once persisted; duplicates of a previously seen
//   identifier are skipped, never updated.
//
// Optional fields (CallerNumber, Extension) use "" for absent; the store maps
// them to NULL columns.
type CallRecord struct {
	UniqueID     string `json:"unique_id" db:"unique_id"`
	Timestamp    string `json:"timestamp" db:"timestamp"`
	CallerNumber string `json:"caller_number,omitempty" db:"caller_number"`
	Extension    string `json:"extension,omitempty" db:"extension"`
	Status       Status `json:"status" db:"status"`

	// Duration is the talk time in seconds of the leg that actually carried
	// the conversation. 0 for missed calls.
	Duration int `json:"duration" db:"duration"`
}

type Status string

const (
	StatusAnswered Status = "ANSWERED"
	StatusMissed   Status = "MISSED"
)
