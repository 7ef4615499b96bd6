package engine

import (
	"github.com/savegress/staysync/pkg/models"
)

// Pair is one transient (stay, document) candidate produced by the join.
// Pairs live only within a single reconciliation run.
type Pair struct {
	Stay *models.Stay
	Doc  *models.Document // nil for a stay with no candidate documents

	Key       string // normalized document label key
	Specialty string // resolved specialty, empty when none

	Criteria Criteria
	Eligible bool
	RawDelay *int // validated - discharge in whole days; nil when ineligible

	CoarseRank int
	FinalRank  int

	DocumentFree bool
}

// documentIndex groups documents by owning patient ID, preserving input
// order within each patient so downstream sorts stay deterministic.
type documentIndex struct {
	byPatient map[string][]*models.Document
}

func indexDocuments(docs []models.Document) *documentIndex {
	idx := &documentIndex{byPatient: make(map[string][]*models.Document)}
	for i := range docs {
		doc := &docs[i]
		idx.byPatient[doc.PatientID] = append(idx.byPatient[doc.PatientID], doc)
	}
	return idx
}

// buildCandidates produces the full candidate set for one stay: one pair per
// document sharing the stay's patient ID, each decorated with its normalized
// key, resolved specialty, criteria, and raw delay. A stay with no candidate
// documents yields a single document-less pair so the stay still appears in
// the output.
func (e *Engine) buildCandidates(stay *models.Stay, idx *documentIndex) []*Pair {
	docs := idx.byPatient[stay.PatientID]
	if len(docs) == 0 {
		return []*Pair{{Stay: stay}}
	}

	pairs := make([]*Pair, 0, len(docs))
	for _, doc := range docs {
		p := &Pair{Stay: stay, Doc: doc}
		p.Key = e.normalizer.Key(doc.Label)
		if spec, ok := e.resolver.Resolve(stay.UnitCode, p.Key); ok {
			p.Specialty = spec
		}
		p.Criteria = e.rules.Evaluate(stay, doc)
		p.Eligible = e.rules.Eligible(p.Criteria)
		if p.Eligible && doc.ValidatedAt != nil {
			d := daysBetween(stay.Discharge, *doc.ValidatedAt)
			p.RawDelay = &d
		}
		pairs = append(pairs, p)
	}
	return pairs
}
