package models

import (
	"time"
)

// Classification represents the three-state outcome assigned to every stay
type Classification string

const (
	ClassificationOnTime    Classification = "on-time"
	ClassificationLate      Classification = "late"
	ClassificationUnmatched Classification = "unmatched"
)

// Stay represents one hospitalization episode for a patient
type Stay struct {
	StayID    string    `json:"stay_id"`
	PatientID string    `json:"patient_id"`
	Admission time.Time `json:"admission_ts"`
	Discharge time.Time `json:"discharge_ts"`
	UnitCode  string    `json:"unit_code"`
}

// Document represents a clinical discharge-summary record. A document may be
// a revision of an earlier parent document; the parent timestamps are carried
// so the engine can judge the revision chain.
type Document struct {
	ID               string     `json:"document_id"`
	PatientID        string     `json:"patient_id"`
	Label            string     `json:"label"`
	CreatedAt        time.Time  `json:"created_ts"`
	ValidatedAt      *time.Time `json:"validated_ts,omitempty"`
	VenueNumber      string     `json:"venue_number,omitempty"`
	ParentCreatedAt  *time.Time `json:"parent_created_ts,omitempty"`
	ParentModifiedAt *time.Time `json:"parent_modified_ts,omitempty"`
	DispatchedAt     *time.Time `json:"dispatch_ts,omitempty"`
}

// MatchResult is the per-stay outcome of a reconciliation run. Exactly one
// result is produced per input stay. DocumentID stays populated for a stay
// that lost its document in conflict resolution; DocumentFree is false and
// the stay classifies as unmatched in that case.
type MatchResult struct {
	StayID         string         `json:"stay_id"`
	PatientID      string         `json:"patient_id"`
	Specialty      string         `json:"specialty,omitempty"`
	DocumentID     string         `json:"document_id,omitempty"`
	DocumentFree   bool           `json:"document_free"`
	Delay          *int           `json:"delay,omitempty"`
	Dispatched     bool           `json:"dispatched"`
	DispatchDelay  *int           `json:"dispatch_delay,omitempty"`
	Classification Classification `json:"classification"`
}

// Matched reports whether the stay ended up with a counted document
func (r MatchResult) Matched() bool {
	return r.Classification == ClassificationOnTime || r.Classification == ClassificationLate
}

// MappingRow is one row of the specialty reference table
type MappingRow struct {
	UnitCode  string `json:"unit_code"`
	Label     string `json:"label"`
	Specialty string `json:"specialty"`
}
