package engine

import (
	"time"

	"github.com/savegress/staysync/pkg/models"
)

// Rules holds the tunable parameters of the eligibility criteria. The
// defaults reproduce the production rule set; every constant is named here
// rather than hard-coded so the business rule can be adjusted without a code
// change.
type Rules struct {
	// ValidationWindowDays is how many days before discharge a validation
	// may predate it and still be attributable to the stay.
	ValidationWindowDays int

	// CreationLookbackDays is how many days before admission a document
	// (or its parent) may have been created and still be attributable.
	CreationLookbackDays int

	// EligibilityThreshold is the strict lower bound on the number of
	// satisfied gating criteria (validation window, parent timing,
	// creation lower bound). The default of 2 means all three must hold.
	EligibilityThreshold int
}

// DefaultRules returns the production rule parameters
func DefaultRules() Rules {
	return Rules{
		ValidationWindowDays: 3,
		CreationLookbackDays: 5,
		EligibilityThreshold: 2,
	}
}

// Criteria holds the six eligibility signals computed for one candidate
// pair. Absent optional document data degrades each signal to its safe
// default: false for the venue match ("not yet proven"), true for the two
// parent-document criteria (no parent concept applies).
type Criteria struct {
	VenueMatch         bool `json:"venue_match"`
	ValidationWindow   bool `json:"validation_window"`
	ParentTiming       bool `json:"parent_timing"`
	CreationLowerBound bool `json:"creation_lower_bound"`
	CreationDuringStay bool `json:"creation_during_stay"`
	ParentFresh        bool `json:"parent_fresh"`
}

// Evaluate computes the six signals for one (stay, document) pair
func (r Rules) Evaluate(stay *models.Stay, doc *models.Document) Criteria {
	c := Criteria{
		VenueMatch:   doc.VenueNumber != "" && doc.VenueNumber == stay.StayID,
		ParentTiming: true,
		ParentFresh:  true,
	}

	if doc.ValidatedAt != nil {
		c.ValidationWindow = onOrAfter(*doc.ValidatedAt, stay.Admission) &&
			onOrAfter(*doc.ValidatedAt, stay.Discharge.AddDate(0, 0, -r.ValidationWindowDays))
	}

	if parent := parentStamp(doc); parent != nil {
		c.ParentTiming = onOrBefore(*parent, stay.Discharge)
		c.ParentFresh = onOrAfter(*parent, stay.Admission.AddDate(0, 0, -r.CreationLookbackDays))
	}

	c.CreationLowerBound = onOrAfter(doc.CreatedAt, stay.Admission.AddDate(0, 0, -r.CreationLookbackDays))
	c.CreationDuringStay = onOrAfter(doc.CreatedAt, stay.Admission) &&
		onOrBefore(doc.CreatedAt, stay.Discharge)

	return c
}

// Eligible applies the composite gate: strictly more than
// EligibilityThreshold of {validation window, parent timing, creation lower
// bound} must hold.
func (r Rules) Eligible(c Criteria) bool {
	count := 0
	if c.ValidationWindow {
		count++
	}
	if c.ParentTiming {
		count++
	}
	if c.CreationLowerBound {
		count++
	}
	return count > r.EligibilityThreshold
}

// parentStamp returns the most recent known parent-document timestamp, or
// nil when the document has no parent.
func parentStamp(doc *models.Document) *time.Time {
	if doc.ParentModifiedAt != nil {
		return doc.ParentModifiedAt
	}
	return doc.ParentCreatedAt
}
