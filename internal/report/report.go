// Package report assembles reconciliation runs into retrievable report
// artifacts and keeps a registry of completed reports.
package report

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/savegress/staysync/internal/stats"
	"github.com/savegress/staysync/pkg/models"
)

// Kind discriminates how a report's stay population was selected
type Kind string

const (
	KindByDate  Kind = "by-date"
	KindByStays Kind = "by-stays"
)

// Report is one completed reconciliation run
type Report struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	// Period bounds are set for by-date reports only
	PeriodStart *time.Time `json:"period_start,omitempty"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`
	// StayIDs holds the requested IDs for by-stays reports only
	StayIDs []string `json:"stay_ids,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
	// Degraded marks runs executed without a specialty mapping
	Degraded bool `json:"degraded"`

	Results []models.MatchResult `json:"results"`
	Summary *stats.Summary       `json:"summary"`
}

// Generator keeps completed reports retrievable by ID
type Generator struct {
	mu      sync.RWMutex
	reports map[string]*Report
}

// NewGenerator creates an empty report registry
func NewGenerator() *Generator {
	return &Generator{
		reports: make(map[string]*Report),
	}
}

// NewReportID returns a fresh report identifier
func NewReportID() string {
	return "rpt-" + uuid.NewString()
}

// Save registers a completed report
func (g *Generator) Save(r *Report) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reports[r.ID] = r
}

// Get retrieves a report by ID
func (g *Generator) Get(id string) (*Report, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.reports[id]
	return r, ok
}

// List returns all reports, newest first
func (g *Generator) List() []*Report {
	g.mu.RLock()
	defer g.mu.RUnlock()

	results := make([]*Report, 0, len(g.reports))
	for _, r := range g.reports {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		if !results[i].GeneratedAt.Equal(results[j].GeneratedAt) {
			return results[i].GeneratedAt.After(results[j].GeneratedAt)
		}
		return results[i].ID < results[j].ID
	})
	return results
}

// Delete removes a report from the registry
func (g *Generator) Delete(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.reports[id]; !ok {
		return ErrReportNotFound
	}
	delete(g.reports, id)
	return nil
}

// Errors
var (
	ErrReportNotFound = &Error{Code: "REPORT_NOT_FOUND", Message: "report not found"}
	ErrNoStays        = &Error{Code: "NO_STAYS", Message: "no stays found for the requested selection"}
)

// Error represents a reporting error
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
