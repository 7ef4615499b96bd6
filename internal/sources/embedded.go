package sources

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/savegress/staysync/pkg/models"
)

// StayRow is one warehouse-extract stay row. The discharge disposition
// travels with the stay so the embedded store can apply the same population
// filters as the warehouse queries.
type StayRow struct {
	Stay        models.Stay
	Disposition string
}

// EmbeddedStore is a SQLite-backed stay and document source for deployments
// that run from a local extract instead of the warehouse. It implements both
// StaySource and DocumentSource.
type EmbeddedStore struct {
	db            *sql.DB
	excludedUnits []string
}

// OpenEmbedded opens the extract database under dataPath, creating it and
// its schema if needed.
func OpenEmbedded(dataPath string, excludedUnits []string) (*EmbeddedStore, error) {
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataPath, "extract.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open extract database: %w", err)
	}

	s := &EmbeddedStore{db: db, excludedUnits: excludedUnits}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *EmbeddedStore) Close() error {
	return s.db.Close()
}

func (s *EmbeddedStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stays (
		stay_id TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL,
		admission_at INTEGER NOT NULL,
		discharge_at INTEGER,
		unit_code TEXT NOT NULL,
		discharge_disposition TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_stays_discharge ON stays(discharge_at);

	CREATE TABLE IF NOT EXISTS documents (
		document_id TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL,
		label TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		validated_at INTEGER,
		venue_number TEXT NOT NULL DEFAULT '',
		parent_created_at INTEGER,
		parent_modified_at INTEGER,
		dispatched_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_documents_patient ON documents(patient_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// ImportStays upserts extract stay rows, keyed by stay ID
func (s *EmbeddedStore) ImportStays(ctx context.Context, rows []StayRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO stays
		(stay_id, patient_id, admission_at, discharge_at, unit_code, discharge_disposition)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare stay import: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		var discharge any
		if !r.Stay.Discharge.IsZero() {
			discharge = r.Stay.Discharge.Unix()
		}
		_, err := stmt.ExecContext(ctx, r.Stay.StayID, r.Stay.PatientID,
			r.Stay.Admission.Unix(), discharge, r.Stay.UnitCode, r.Disposition)
		if err != nil {
			return fmt.Errorf("failed to import stay %s: %w", r.Stay.StayID, err)
		}
	}

	return tx.Commit()
}

// ImportDocuments upserts extract document rows, keyed by document ID
func (s *EmbeddedStore) ImportDocuments(ctx context.Context, docs []models.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO documents
		(document_id, patient_id, label, created_at, validated_at, venue_number,
		 parent_created_at, parent_modified_at, dispatched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare document import: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		_, err := stmt.ExecContext(ctx, d.ID, d.PatientID, d.Label, d.CreatedAt.Unix(),
			unixOrNil(d.ValidatedAt), d.VenueNumber,
			unixOrNil(d.ParentCreatedAt), unixOrNil(d.ParentModifiedAt), unixOrNil(d.DispatchedAt))
		if err != nil {
			return fmt.Errorf("failed to import document %s: %w", d.ID, err)
		}
	}

	return tx.Commit()
}

// Same population filters as the warehouse queries: closed, at least one
// night, not ended in death. Timestamps are stored as unix seconds.
const embeddedStayFilters = `
		  AND discharge_at IS NOT NULL
		  AND discharge_at >= admission_at + 86400
		  AND discharge_disposition <> 'deceased'`

func (s *EmbeddedStore) StaysByDischargeRange(ctx context.Context, start, end time.Time) ([]models.Stay, error) {
	exclusion, args := s.exclusionClause()
	query := `
		SELECT stay_id, patient_id, admission_at, discharge_at, unit_code
		FROM stays
		WHERE discharge_at >= ? AND discharge_at <= ?` + embeddedStayFilters + exclusion + `
		ORDER BY stay_id
	`

	rows, err := s.db.QueryContext(ctx, query, append([]any{start.Unix(), end.Unix()}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stays by discharge range: %w", err)
	}
	defer rows.Close()

	return scanEmbeddedStays(rows)
}

func (s *EmbeddedStore) StaysByIDs(ctx context.Context, ids []string) ([]models.Stay, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	exclusion, exclArgs := s.exclusionClause()
	query := `
		SELECT stay_id, patient_id, admission_at, discharge_at, unit_code
		FROM stays
		WHERE stay_id IN (` + placeholders(len(ids)) + `)` + embeddedStayFilters + exclusion + `
		ORDER BY stay_id
	`

	args := make([]any, 0, len(ids)+len(exclArgs))
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, exclArgs...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stays by ID: %w", err)
	}
	defer rows.Close()

	return scanEmbeddedStays(rows)
}

func (s *EmbeddedStore) DocumentsForPatients(ctx context.Context, patientIDs []string) ([]models.Document, error) {
	if len(patientIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT document_id, patient_id, label, created_at, validated_at, venue_number,
		       parent_created_at, parent_modified_at, dispatched_at
		FROM documents
		WHERE patient_id IN (` + placeholders(len(patientIDs)) + `)
		ORDER BY document_id
	`

	args := make([]any, 0, len(patientIDs))
	for _, id := range patientIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		var created int64
		var validated, parentCreated, parentModified, dispatched sql.NullInt64
		if err := rows.Scan(&d.ID, &d.PatientID, &d.Label, &created, &validated,
			&d.VenueNumber, &parentCreated, &parentModified, &dispatched); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.CreatedAt = time.Unix(created, 0).UTC()
		d.ValidatedAt = timeOrNil(validated)
		d.ParentCreatedAt = timeOrNil(parentCreated)
		d.ParentModifiedAt = timeOrNil(parentModified)
		d.DispatchedAt = timeOrNil(dispatched)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}

	return docs, nil
}

func (s *EmbeddedStore) exclusionClause() (string, []any) {
	if len(s.excludedUnits) == 0 {
		return "", nil
	}
	args := make([]any, len(s.excludedUnits))
	for i, u := range s.excludedUnits {
		args[i] = u
	}
	return `
		  AND unit_code NOT IN (` + placeholders(len(args)) + `)`, args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func scanEmbeddedStays(rows *sql.Rows) ([]models.Stay, error) {
	var stays []models.Stay
	for rows.Next() {
		var st models.Stay
		var admission, discharge int64
		if err := rows.Scan(&st.StayID, &st.PatientID, &admission, &discharge, &st.UnitCode); err != nil {
			return nil, fmt.Errorf("failed to scan stay: %w", err)
		}
		st.Admission = time.Unix(admission, 0).UTC()
		st.Discharge = time.Unix(discharge, 0).UTC()
		stays = append(stays, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stays: %w", err)
	}
	return stays, nil
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func timeOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
