package engine

import (
	"testing"
	"time"

	"github.com/savegress/staysync/pkg/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func testStay() *models.Stay {
	return &models.Stay{
		StayID:    "stay-1",
		PatientID: "pat-1",
		Admission: date(2025, 3, 1),
		Discharge: date(2025, 3, 10),
		UnitCode:  "348",
	}
}

func validDoc() *models.Document {
	return &models.Document{
		ID:          "doc-1",
		PatientID:   "pat-1",
		Label:       "Cardiology",
		CreatedAt:   date(2025, 3, 9),
		ValidatedAt: datePtr(2025, 3, 10),
	}
}

func TestRules_Evaluate_VenueMatch(t *testing.T) {
	rules := DefaultRules()
	stay := testStay()

	doc := validDoc()
	doc.VenueNumber = "stay-1"
	if !rules.Evaluate(stay, doc).VenueMatch {
		t.Error("matching venue number should satisfy venue match")
	}

	doc.VenueNumber = "stay-2"
	if rules.Evaluate(stay, doc).VenueMatch {
		t.Error("mismatched venue number should fail venue match")
	}

	// Absent data is "not yet proven", not "true"
	doc.VenueNumber = ""
	if rules.Evaluate(stay, doc).VenueMatch {
		t.Error("absent venue number should fail venue match")
	}
}

func TestRules_Evaluate_ValidationWindow(t *testing.T) {
	rules := DefaultRules()
	stay := testStay()

	tests := []struct {
		name      string
		validated *time.Time
		want      bool
	}{
		{"on discharge day", datePtr(2025, 3, 10), true},
		{"after discharge", datePtr(2025, 3, 15), true},
		{"window lower edge", datePtr(2025, 3, 7), true},
		{"one day before window", datePtr(2025, 3, 6), false},
		{"before admission", datePtr(2025, 2, 28), false},
		{"never validated", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDoc()
			doc.ValidatedAt = tt.validated
			if got := rules.Evaluate(stay, doc).ValidationWindow; got != tt.want {
				t.Errorf("ValidationWindow = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRules_Evaluate_ParentTiming(t *testing.T) {
	rules := DefaultRules()
	stay := testStay()

	doc := validDoc()
	if !rules.Evaluate(stay, doc).ParentTiming {
		t.Error("no parent document should default parent timing to true")
	}

	doc.ParentCreatedAt = datePtr(2025, 3, 9)
	if !rules.Evaluate(stay, doc).ParentTiming {
		t.Error("parent created before discharge should pass")
	}

	doc.ParentCreatedAt = datePtr(2025, 3, 11)
	if rules.Evaluate(stay, doc).ParentTiming {
		t.Error("parent created after discharge should fail")
	}

	// The modification timestamp supersedes creation when both are known
	doc.ParentCreatedAt = datePtr(2025, 3, 9)
	doc.ParentModifiedAt = datePtr(2025, 3, 11)
	if rules.Evaluate(stay, doc).ParentTiming {
		t.Error("parent modified after discharge should fail")
	}
}

func TestRules_Evaluate_CreationBounds(t *testing.T) {
	rules := DefaultRules()
	stay := testStay()

	tests := []struct {
		name       string
		created    time.Time
		lowerBound bool
		duringStay bool
	}{
		{"during stay", date(2025, 3, 5), true, true},
		{"admission day", date(2025, 3, 1), true, true},
		{"discharge day", date(2025, 3, 10), true, true},
		{"lookback edge", date(2025, 2, 24), true, false},
		{"before lookback", date(2025, 2, 23), false, false},
		{"after discharge", date(2025, 3, 11), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDoc()
			doc.CreatedAt = tt.created
			c := rules.Evaluate(stay, doc)
			if c.CreationLowerBound != tt.lowerBound {
				t.Errorf("CreationLowerBound = %v, want %v", c.CreationLowerBound, tt.lowerBound)
			}
			if c.CreationDuringStay != tt.duringStay {
				t.Errorf("CreationDuringStay = %v, want %v", c.CreationDuringStay, tt.duringStay)
			}
		})
	}
}

func TestRules_Evaluate_ParentFresh(t *testing.T) {
	rules := DefaultRules()
	stay := testStay()

	doc := validDoc()
	if !rules.Evaluate(stay, doc).ParentFresh {
		t.Error("no parent document should default parent freshness to true")
	}

	doc.ParentCreatedAt = datePtr(2025, 2, 24)
	if !rules.Evaluate(stay, doc).ParentFresh {
		t.Error("parent at lookback edge should be fresh")
	}

	doc.ParentCreatedAt = datePtr(2025, 2, 23)
	if rules.Evaluate(stay, doc).ParentFresh {
		t.Error("parent before lookback should be stale")
	}
}

func TestRules_Eligible(t *testing.T) {
	rules := DefaultRules()

	all := Criteria{ValidationWindow: true, ParentTiming: true, CreationLowerBound: true}
	if !rules.Eligible(all) {
		t.Error("all three gating criteria should be eligible")
	}

	for _, c := range []Criteria{
		{ParentTiming: true, CreationLowerBound: true},
		{ValidationWindow: true, CreationLowerBound: true},
		{ValidationWindow: true, ParentTiming: true},
	} {
		if rules.Eligible(c) {
			t.Errorf("two of three gating criteria should not be eligible with default threshold: %+v", c)
		}
	}

	// Non-gating criteria never count toward the composite
	decorated := Criteria{VenueMatch: true, CreationDuringStay: true, ParentFresh: true}
	if rules.Eligible(decorated) {
		t.Error("non-gating criteria alone should not be eligible")
	}
}

func TestRules_Eligible_ConfigurableThreshold(t *testing.T) {
	rules := DefaultRules()
	rules.EligibilityThreshold = 1

	twoOfThree := Criteria{ValidationWindow: true, ParentTiming: true}
	if !rules.Eligible(twoOfThree) {
		t.Error("threshold 1 should accept two gating criteria")
	}

	oneOfThree := Criteria{ValidationWindow: true}
	if rules.Eligible(oneOfThree) {
		t.Error("threshold 1 should reject a single gating criterion")
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"same day", date(2025, 3, 10), date(2025, 3, 10), 0},
		{"two days", date(2025, 3, 10), date(2025, 3, 12), 2},
		{"negative", date(2025, 3, 10), date(2025, 3, 8), -2},
		{"ignores time of day", date(2025, 3, 10), time.Date(2025, 3, 11, 23, 50, 0, 0, time.UTC), 1},
		{"month boundary", date(2025, 2, 27), date(2025, 3, 2), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := daysBetween(tt.from, tt.to); got != tt.want {
				t.Errorf("daysBetween = %d, want %d", got, tt.want)
			}
		})
	}
}
