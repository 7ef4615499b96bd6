package engine

import (
	"sort"
)

// resolveConflicts enforces that a document is held "free" by at most one
// stay across the whole run. Provisional matches are partitioned by selected
// document ID and each contested group is resolved independently: the member
// with the smallest raw delay keeps the document; equal raw delays break by
// ascending stay ID so the outcome never depends on input order. Every other
// claimant keeps its document reference but loses its raw delay and the free
// flag, which demotes it to unmatched at classification.
func resolveConflicts(selected []*Pair) {
	groups := make(map[string][]*Pair)
	for _, p := range selected {
		if p.Doc == nil {
			continue
		}
		groups[p.Doc.ID] = append(groups[p.Doc.ID], p)
	}

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			a, b := group[i], group[j]
			if (a.RawDelay == nil) != (b.RawDelay == nil) {
				return a.RawDelay != nil
			}
			if a.RawDelay != nil && *a.RawDelay != *b.RawDelay {
				return *a.RawDelay < *b.RawDelay
			}
			return a.Stay.StayID < b.Stay.StayID
		})
		for _, loser := range group[1:] {
			loser.RawDelay = nil
			loser.DocumentFree = false
		}
	}
}
