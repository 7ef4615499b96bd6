package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/savegress/staysync/pkg/models"
)

// DB wraps the warehouse connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect opens and verifies a connection pool to the warehouse
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// PostgresStaySource reads stays from the warehouse. Units listed in
// excludedUnits never produce stays, letting deployments carve out wards
// that do not issue discharge documents.
type PostgresStaySource struct {
	db            *DB
	excludedUnits []string
}

func NewPostgresStaySource(db *DB, excludedUnits []string) *PostgresStaySource {
	return &PostgresStaySource{db: db, excludedUnits: excludedUnits}
}

const stayColumns = `stay_id, patient_id, admission_at, discharge_at, unit_code`

// Source-side population filters: a stay must be closed, span at least one
// night, and not end in death. These exclusions belong to the warehouse
// query, not the engine.
const stayFilters = `
		  AND discharge_at IS NOT NULL
		  AND discharge_at >= admission_at + INTERVAL '1 day'
		  AND discharge_disposition <> 'deceased'`

func (s *PostgresStaySource) StaysByDischargeRange(ctx context.Context, start, end time.Time) ([]models.Stay, error) {
	query := `
		SELECT ` + stayColumns + `
		FROM stays
		WHERE discharge_at >= $1 AND discharge_at <= $2
		  AND NOT (unit_code = ANY($3))` + stayFilters + `
		ORDER BY stay_id
	`

	rows, err := s.db.pool.Query(ctx, query, start, end, s.excluded())
	if err != nil {
		return nil, fmt.Errorf("failed to query stays by discharge range: %w", err)
	}
	defer rows.Close()

	return scanStays(rows)
}

func (s *PostgresStaySource) StaysByIDs(ctx context.Context, ids []string) ([]models.Stay, error) {
	query := `
		SELECT ` + stayColumns + `
		FROM stays
		WHERE stay_id = ANY($1)
		  AND NOT (unit_code = ANY($2))` + stayFilters + `
		ORDER BY stay_id
	`

	rows, err := s.db.pool.Query(ctx, query, ids, s.excluded())
	if err != nil {
		return nil, fmt.Errorf("failed to query stays by ID: %w", err)
	}
	defer rows.Close()

	return scanStays(rows)
}

// excluded never returns nil so ANY($n) stays well-typed
func (s *PostgresStaySource) excluded() []string {
	if s.excludedUnits == nil {
		return []string{}
	}
	return s.excludedUnits
}

func scanStays(rows pgx.Rows) ([]models.Stay, error) {
	var stays []models.Stay
	for rows.Next() {
		var st models.Stay
		if err := rows.Scan(&st.StayID, &st.PatientID, &st.Admission, &st.Discharge, &st.UnitCode); err != nil {
			return nil, fmt.Errorf("failed to scan stay: %w", err)
		}
		stays = append(stays, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stays: %w", err)
	}
	return stays, nil
}

// PostgresDocumentSource reads discharge documents from the warehouse
type PostgresDocumentSource struct {
	db *DB
}

func NewPostgresDocumentSource(db *DB) *PostgresDocumentSource {
	return &PostgresDocumentSource{db: db}
}

func (s *PostgresDocumentSource) DocumentsForPatients(ctx context.Context, patientIDs []string) ([]models.Document, error) {
	query := `
		SELECT document_id, patient_id, label, created_at, validated_at,
		       venue_number, parent_created_at, parent_modified_at, dispatched_at
		FROM documents
		WHERE patient_id = ANY($1)
		ORDER BY document_id
	`

	rows, err := s.db.pool.Query(ctx, query, patientIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		err := rows.Scan(
			&d.ID, &d.PatientID, &d.Label, &d.CreatedAt, &d.ValidatedAt,
			&d.VenueNumber, &d.ParentCreatedAt, &d.ParentModifiedAt, &d.DispatchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	return docs, nil
}
