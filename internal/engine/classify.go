package engine

import (
	"github.com/savegress/staysync/pkg/models"
)

// finalDelay clamps the raw delay to >= 0. A stay without a raw delay or
// without a resolved specialty gets a nil final delay.
func finalDelay(p *Pair) *int {
	if p.RawDelay == nil || p.Specialty == "" {
		return nil
	}
	d := *p.RawDelay
	if d < 0 {
		d = 0
	}
	return &d
}

// Classify maps a final delay to the outcome taxonomy. Pure and total: nil
// is unmatched, zero is on-time, positive is late.
func Classify(delay *int) models.Classification {
	switch {
	case delay == nil:
		return models.ClassificationUnmatched
	case *delay == 0:
		return models.ClassificationOnTime
	default:
		return models.ClassificationLate
	}
}

// buildResult finalizes one stay's pair into its match result
func buildResult(p *Pair) models.MatchResult {
	res := models.MatchResult{
		StayID:       p.Stay.StayID,
		PatientID:    p.Stay.PatientID,
		Specialty:    p.Specialty,
		DocumentFree: p.DocumentFree,
	}
	if p.Doc != nil {
		res.DocumentID = p.Doc.ID
	}

	res.Delay = finalDelay(p)
	res.Classification = Classify(res.Delay)

	// Dispatch statistics only count for stays with a counted document
	if res.Matched() && p.Doc.DispatchedAt != nil && p.Doc.ValidatedAt != nil {
		res.Dispatched = true
		dd := daysBetween(*p.Doc.ValidatedAt, *p.Doc.DispatchedAt)
		if dd < 0 {
			dd = 0
		}
		res.DispatchDelay = &dd
	}

	return res
}
