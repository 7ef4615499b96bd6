// Package specialty assigns a clinical specialty to a stay by looking up the
// stay's discharge unit code together with the selected document's normalized
// key in a reference mapping table.
package specialty

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/savegress/staysync/internal/normalize"
	"github.com/savegress/staysync/pkg/models"
)

// Mapping is the preloaded (unit code, normalized label) -> specialty table.
// Duplicate rows collapse to the first occurrence.
type Mapping struct {
	entries map[string]string
}

// NewMapping builds a mapping from reference rows, normalizing keys with the
// same normalizer the engine applies to document labels.
func NewMapping(rows []models.MappingRow, n *normalize.Normalizer) *Mapping {
	m := &Mapping{entries: make(map[string]string, len(rows))}
	for _, row := range rows {
		key := mappingKey(normalize.UnitCode(row.UnitCode), n.Key(row.Label))
		if _, ok := m.entries[key]; ok {
			continue // first occurrence wins
		}
		m.entries[key] = row.Specialty
	}
	return m
}

// Len returns the number of distinct mapping entries
func (m *Mapping) Len() int {
	return len(m.entries)
}

// LoadMapping reads the reference table from a delimited file. The first
// record is treated as a header when it contains no specialty data; columns
// are (unit_code, label, specialty).
func LoadMapping(path string, comma rune, n *normalize.Normalizer) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mapping table: %w", err)
	}
	defer f.Close()

	return ReadMapping(f, comma, n)
}

// ReadMapping parses reference rows from r. See LoadMapping.
func ReadMapping(r io.Reader, comma rune, n *normalize.Normalizer) (*Mapping, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []models.MappingRow
	first := true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read mapping table: %w", err)
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("mapping table row has %d columns, want 3", len(record))
		}
		if first {
			first = false
			if isHeader(record) {
				continue
			}
		}
		rows = append(rows, models.MappingRow{
			UnitCode:  record[0],
			Label:     record[1],
			Specialty: strings.TrimSpace(record[2]),
		})
	}

	return NewMapping(rows, n), nil
}

func isHeader(record []string) bool {
	switch strings.ToLower(strings.TrimSpace(record[0])) {
	case "unit_code", "unit", "uf":
		return true
	}
	return false
}

func mappingKey(unitCode, labelKey string) string {
	return unitCode + "\x1f" + labelKey
}

// Resolver resolves stay specialties against a mapping. A degraded resolver
// (no mapping loaded) resolves nothing, which downstream turns every stay
// into an unmatched classification rather than failing the run.
type Resolver struct {
	mapping  *Mapping
	degraded bool
}

// NewResolver creates a resolver backed by a loaded mapping
func NewResolver(m *Mapping) *Resolver {
	return &Resolver{mapping: m}
}

// NewDegradedResolver creates the resolver used when the reference table
// could not be loaded.
func NewDegradedResolver() *Resolver {
	return &Resolver{degraded: true}
}

// Resolve returns the specialty for a (unit code, normalized label key)
// pair, and whether one was found.
func (r *Resolver) Resolve(unitCode, labelKey string) (string, bool) {
	if r.degraded {
		return "", false
	}
	spec, ok := r.mapping.entries[mappingKey(normalize.UnitCode(unitCode), labelKey)]
	return spec, ok
}

// Degraded reports whether the resolver is running without a mapping
func (r *Resolver) Degraded() bool {
	return r.degraded
}
