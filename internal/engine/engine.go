// Package engine implements the stay-document reconciliation and
// classification pipeline: candidate join, criteria evaluation, two-pass
// ranking, cross-stay conflict resolution, and final classification. The
// engine is a synchronous, purely functional batch transformation — two
// immutable input tables in, one result table out — and is deterministic:
// identical inputs always produce identical results.
package engine

import (
	"context"
	"sort"

	"github.com/savegress/staysync/internal/normalize"
	"github.com/savegress/staysync/internal/specialty"
	"github.com/savegress/staysync/pkg/models"
)

// Engine reconciles stays against candidate discharge documents
type Engine struct {
	rules      Rules
	normalizer *normalize.Normalizer
	resolver   *specialty.Resolver
}

// New creates an engine. A degraded resolver is a valid collaborator: the
// run completes with every stay unmatched rather than failing.
func New(rules Rules, n *normalize.Normalizer, r *specialty.Resolver) *Engine {
	return &Engine{
		rules:      rules,
		normalizer: n,
		resolver:   r,
	}
}

// Reconcile runs the full pipeline over one stay table and one document
// table. The result table holds exactly one row per input stay, ordered by
// stay ID. Missing identity fields on either input are a structural
// violation of the adapter contract and abort the run.
func (e *Engine) Reconcile(ctx context.Context, stays []models.Stay, docs []models.Document) ([]models.MatchResult, error) {
	if err := validateStays(stays); err != nil {
		return nil, err
	}
	if err := validateDocuments(docs); err != nil {
		return nil, err
	}

	idx := indexDocuments(docs)

	// Per-stay join, criteria, ranking and selection. Stays are independent
	// up to this point.
	selected := make([]*Pair, 0, len(stays))
	for i := range stays {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		pairs := e.buildCandidates(&stays[i], idx)
		selected = append(selected, selectProvisional(pairs))
	}

	// Cross-stay barrier: no stay is final until every stay contesting one
	// of its documents has been considered.
	resolveConflicts(selected)

	results := make([]models.MatchResult, 0, len(selected))
	for _, p := range selected {
		results = append(results, buildResult(p))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].StayID < results[j].StayID
	})

	return results, nil
}

func validateStays(stays []models.Stay) error {
	for i := range stays {
		s := &stays[i]
		if s.StayID == "" || s.PatientID == "" {
			return ErrMissingStayIdentity
		}
		if s.Admission.IsZero() || s.Discharge.IsZero() {
			return ErrMissingStayTimestamps
		}
	}
	return nil
}

func validateDocuments(docs []models.Document) error {
	for i := range docs {
		d := &docs[i]
		if d.ID == "" || d.PatientID == "" {
			return ErrMissingDocumentIdentity
		}
	}
	return nil
}

// Errors
var (
	ErrMissingStayIdentity     = &Error{Code: "STAY_IDENTITY_MISSING", Message: "stay is missing a stay or patient identifier"}
	ErrMissingStayTimestamps   = &Error{Code: "STAY_TIMESTAMPS_MISSING", Message: "stay is missing an admission or discharge timestamp"}
	ErrMissingDocumentIdentity = &Error{Code: "DOCUMENT_IDENTITY_MISSING", Message: "document is missing a document or patient identifier"}
)

// Error represents an engine error
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
