package sources

import (
	"context"
	"testing"
	"time"

	"github.com/savegress/staysync/pkg/models"
)

func newTestStore(t *testing.T, excludedUnits []string) *EmbeddedStore {
	t.Helper()
	store, err := OpenEmbedded(t.TempDir(), excludedUnits)
	if err != nil {
		t.Fatalf("OpenEmbedded failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func extractStay(stayID, patientID, unit string, admission, discharge time.Time) StayRow {
	return StayRow{Stay: models.Stay{
		StayID:    stayID,
		PatientID: patientID,
		Admission: admission,
		Discharge: discharge,
		UnitCode:  unit,
	}}
}

func TestEmbeddedStore_DischargeRange(t *testing.T) {
	store := newTestStore(t, nil)

	err := store.ImportStays(context.Background(), []StayRow{
		extractStay("stay-1", "pat-1", "348", date(2025, 3, 1), date(2025, 3, 5)),
		extractStay("stay-2", "pat-2", "348", date(2025, 3, 20), date(2025, 3, 31)),
		extractStay("stay-3", "pat-3", "348", date(2025, 3, 30), date(2025, 4, 2)),
	})
	if err != nil {
		t.Fatalf("ImportStays failed: %v", err)
	}

	stays, err := store.StaysByDischargeRange(context.Background(), date(2025, 3, 1), date(2025, 3, 31))
	if err != nil {
		t.Fatalf("StaysByDischargeRange failed: %v", err)
	}
	if len(stays) != 2 {
		t.Fatalf("got %d stays, want 2", len(stays))
	}
	if stays[0].StayID != "stay-1" || stays[1].StayID != "stay-2" {
		t.Errorf("unexpected stays: %s, %s", stays[0].StayID, stays[1].StayID)
	}
	if !stays[0].Admission.Equal(date(2025, 3, 1)) || !stays[0].Discharge.Equal(date(2025, 3, 5)) {
		t.Errorf("timestamps not preserved: %+v", stays[0])
	}
}

func TestEmbeddedStore_PopulationFilters(t *testing.T) {
	store := newTestStore(t, []string{"901"})

	open := extractStay("stay-open", "pat-1", "348", date(2025, 3, 1), time.Time{})
	sameDay := extractStay("stay-same-day", "pat-2", "348", date(2025, 3, 5), date(2025, 3, 5))
	deceased := extractStay("stay-deceased", "pat-3", "348", date(2025, 3, 1), date(2025, 3, 6))
	deceased.Disposition = "deceased"
	excluded := extractStay("stay-excluded", "pat-4", "901", date(2025, 3, 1), date(2025, 3, 6))
	kept := extractStay("stay-kept", "pat-5", "348", date(2025, 3, 1), date(2025, 3, 6))

	err := store.ImportStays(context.Background(), []StayRow{open, sameDay, deceased, excluded, kept})
	if err != nil {
		t.Fatalf("ImportStays failed: %v", err)
	}

	stays, err := store.StaysByDischargeRange(context.Background(), date(2025, 3, 1), date(2025, 3, 31))
	if err != nil {
		t.Fatalf("StaysByDischargeRange failed: %v", err)
	}
	if len(stays) != 1 || stays[0].StayID != "stay-kept" {
		t.Fatalf("population filters not applied, got %v", stays)
	}

	// The same filters apply to lookups by ID
	stays, err = store.StaysByIDs(context.Background(), []string{"stay-deceased", "stay-excluded", "stay-kept"})
	if err != nil {
		t.Fatalf("StaysByIDs failed: %v", err)
	}
	if len(stays) != 1 || stays[0].StayID != "stay-kept" {
		t.Fatalf("population filters not applied to ID lookup, got %v", stays)
	}
}

func TestEmbeddedStore_ByIDs(t *testing.T) {
	store := newTestStore(t, nil)

	err := store.ImportStays(context.Background(), []StayRow{
		extractStay("stay-1", "pat-1", "348", date(2025, 3, 1), date(2025, 3, 5)),
		extractStay("stay-2", "pat-2", "348", date(2025, 3, 1), date(2025, 3, 6)),
	})
	if err != nil {
		t.Fatalf("ImportStays failed: %v", err)
	}

	stays, err := store.StaysByIDs(context.Background(), []string{"stay-2", "stay-missing"})
	if err != nil {
		t.Fatalf("StaysByIDs failed: %v", err)
	}
	if len(stays) != 1 || stays[0].StayID != "stay-2" {
		t.Errorf("unknown IDs should be silently absent, got %v", stays)
	}

	stays, err = store.StaysByIDs(context.Background(), nil)
	if err != nil || len(stays) != 0 {
		t.Errorf("empty ID set should yield no stays, got %v, %v", stays, err)
	}
}

func TestEmbeddedStore_Documents(t *testing.T) {
	store := newTestStore(t, nil)

	validated := date(2025, 3, 10)
	dispatched := date(2025, 3, 12)
	err := store.ImportDocuments(context.Background(), []models.Document{
		{
			ID:           "doc-2",
			PatientID:    "pat-1",
			Label:        "Cardiology",
			CreatedAt:    date(2025, 3, 9),
			ValidatedAt:  &validated,
			VenueNumber:  "stay-1",
			DispatchedAt: &dispatched,
		},
		{ID: "doc-1", PatientID: "pat-1", Label: "Neurology", CreatedAt: date(2025, 3, 8)},
		{ID: "doc-3", PatientID: "pat-2", Label: "Cardiology", CreatedAt: date(2025, 3, 8)},
	})
	if err != nil {
		t.Fatalf("ImportDocuments failed: %v", err)
	}

	docs, err := store.DocumentsForPatients(context.Background(), []string{"pat-1"})
	if err != nil {
		t.Fatalf("DocumentsForPatients failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].ID != "doc-1" || docs[1].ID != "doc-2" {
		t.Errorf("documents not ordered by ID: %s, %s", docs[0].ID, docs[1].ID)
	}
	if docs[0].ValidatedAt != nil {
		t.Errorf("unvalidated document gained a validation timestamp: %v", docs[0].ValidatedAt)
	}
	if docs[1].ValidatedAt == nil || !docs[1].ValidatedAt.Equal(validated) {
		t.Errorf("validation timestamp not preserved: %v", docs[1].ValidatedAt)
	}
	if docs[1].DispatchedAt == nil || !docs[1].DispatchedAt.Equal(dispatched) {
		t.Errorf("dispatch timestamp not preserved: %v", docs[1].DispatchedAt)
	}
	if docs[1].VenueNumber != "stay-1" {
		t.Errorf("venue number not preserved: %q", docs[1].VenueNumber)
	}
}
