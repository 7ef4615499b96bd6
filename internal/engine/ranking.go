package engine

import (
	"sort"
)

// Candidate ranking runs in two stable passes per stay. Pass 1 establishes a
// coarse closeness order used for diagnostics; Pass 2 applies the richer
// tie-break and decides the provisional match. Venue correspondence and a
// fresh parent chain are stronger evidence of correct attribution than raw
// chronological proximity, so they outrank delay in the final pass.

// rankCoarse assigns CoarseRank by (has-specialty first, raw delay
// ascending with nils last).
func rankCoarse(pairs []*Pair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if (a.Specialty == "") != (b.Specialty == "") {
			return a.Specialty != ""
		}
		return lessDelay(a.RawDelay, b.RawDelay)
	})
	for i, p := range pairs {
		p.CoarseRank = i + 1
	}
}

// rankFinal assigns FinalRank by (has-specialty first, venue match first,
// parent freshness first, composite eligibility first, creation-during-stay
// first, raw delay ascending with nils last).
func rankFinal(pairs []*Pair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if (a.Specialty == "") != (b.Specialty == "") {
			return a.Specialty != ""
		}
		if a.Criteria.VenueMatch != b.Criteria.VenueMatch {
			return a.Criteria.VenueMatch
		}
		if a.Criteria.ParentFresh != b.Criteria.ParentFresh {
			return a.Criteria.ParentFresh
		}
		if a.Eligible != b.Eligible {
			return a.Eligible
		}
		if a.Criteria.CreationDuringStay != b.Criteria.CreationDuringStay {
			return a.Criteria.CreationDuringStay
		}
		return lessDelay(a.RawDelay, b.RawDelay)
	})
	for i, p := range pairs {
		p.FinalRank = i + 1
	}
}

// selectProvisional ranks one stay's candidates and returns the rank-1
// survivor of the final pass.
func selectProvisional(pairs []*Pair) *Pair {
	rankCoarse(pairs)
	rankFinal(pairs)
	winner := pairs[0]
	if winner.Doc != nil {
		winner.DocumentFree = true
	}
	return winner
}

// lessDelay orders raw delays ascending with nils last
func lessDelay(a, b *int) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return *a < *b
}
