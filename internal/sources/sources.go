// Package sources provides the stay and document adapters feeding the
// reconciliation engine. The postgres adapters pull from the hospital data
// warehouse; the memory adapters back tests and database-less deployments.
package sources

import (
	"context"
	"time"

	"github.com/savegress/staysync/pkg/models"
)

// StaySource yields stay rows for a reconciliation run
type StaySource interface {
	// StaysByDischargeRange returns stays discharged within [start, end]
	StaysByDischargeRange(ctx context.Context, start, end time.Time) ([]models.Stay, error)
	// StaysByIDs returns the stays matching the given stay IDs; unknown IDs
	// are silently absent from the result
	StaysByIDs(ctx context.Context, ids []string) ([]models.Stay, error)
}

// DocumentSource yields candidate documents for a set of patients
type DocumentSource interface {
	DocumentsForPatients(ctx context.Context, patientIDs []string) ([]models.Document, error)
}

// MemoryStaySource serves stays from an in-memory slice
type MemoryStaySource struct {
	stays []models.Stay
}

func NewMemoryStaySource(stays []models.Stay) *MemoryStaySource {
	return &MemoryStaySource{stays: stays}
}

func (s *MemoryStaySource) StaysByDischargeRange(_ context.Context, start, end time.Time) ([]models.Stay, error) {
	var out []models.Stay
	for _, stay := range s.stays {
		d := stay.Discharge
		if !d.Before(start) && !d.After(end) {
			out = append(out, stay)
		}
	}
	return out, nil
}

func (s *MemoryStaySource) StaysByIDs(_ context.Context, ids []string) ([]models.Stay, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.Stay
	for _, stay := range s.stays {
		if wanted[stay.StayID] {
			out = append(out, stay)
		}
	}
	return out, nil
}

// MemoryDocumentSource serves documents from an in-memory slice
type MemoryDocumentSource struct {
	docs []models.Document
}

func NewMemoryDocumentSource(docs []models.Document) *MemoryDocumentSource {
	return &MemoryDocumentSource{docs: docs}
}

func (s *MemoryDocumentSource) DocumentsForPatients(_ context.Context, patientIDs []string) ([]models.Document, error) {
	wanted := make(map[string]bool, len(patientIDs))
	for _, id := range patientIDs {
		wanted[id] = true
	}
	var out []models.Document
	for _, doc := range s.docs {
		if wanted[doc.PatientID] {
			out = append(out, doc)
		}
	}
	return out, nil
}
