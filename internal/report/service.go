package report

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/savegress/staysync/internal/cache"
	"github.com/savegress/staysync/internal/engine"
	"github.com/savegress/staysync/internal/sources"
	"github.com/savegress/staysync/internal/stats"
	"github.com/savegress/staysync/pkg/models"
)

// Service orchestrates a reconciliation run end to end: load the stay
// population, load candidate documents for its patients, reconcile, and
// publish the result as a report.
type Service struct {
	stays     sources.StaySource
	docs      sources.DocumentSource
	engine    *engine.Engine
	generator *Generator
	cache     *cache.Cache
	degraded  bool
}

// NewService creates a report service. degraded marks runs executed without
// a usable specialty mapping so consumers can tell an empty result from a
// meaningless one.
func NewService(stays sources.StaySource, docs sources.DocumentSource, eng *engine.Engine, gen *Generator, c *cache.Cache, degraded bool) *Service {
	return &Service{
		stays:     stays,
		docs:      docs,
		engine:    eng,
		generator: gen,
		cache:     c,
		degraded:  degraded,
	}
}

// RunByDate reconciles every stay discharged within [start, end]. Completed
// period reports are cached; a repeated request for the same period serves
// the cached report without re-running the engine.
func (s *Service) RunByDate(ctx context.Context, start, end time.Time) (*Report, error) {
	key := cache.ReportKey(start, end)

	var cached Report
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		// Registry re-registration keeps GET-by-ID working after restart
		s.generator.Save(&cached)
		return &cached, nil
	} else if !cache.IsMiss(err) {
		log.Printf("report cache read failed, running uncached: %v", err)
	}

	stays, err := s.stays.StaysByDischargeRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load stays: %w", err)
	}

	r, err := s.run(ctx, stays)
	if err != nil {
		return nil, err
	}
	r.Kind = KindByDate
	r.PeriodStart = &start
	r.PeriodEnd = &end

	s.generator.Save(r)
	if err := s.cache.Set(ctx, key, r, cache.TTLReport); err != nil {
		log.Printf("report cache write failed: %v", err)
	}
	return r, nil
}

// RunByStays reconciles an explicit stay selection. Ad-hoc selections are
// not cached. Returns ErrNoStays when none of the requested IDs exist.
func (s *Service) RunByStays(ctx context.Context, ids []string) (*Report, error) {
	stays, err := s.stays.StaysByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load stays: %w", err)
	}
	if len(stays) == 0 {
		return nil, ErrNoStays
	}

	r, err := s.run(ctx, stays)
	if err != nil {
		return nil, err
	}
	r.Kind = KindByStays
	r.StayIDs = ids

	s.generator.Save(r)
	return r, nil
}

// Get retrieves a completed report by ID
func (s *Service) Get(id string) (*Report, bool) {
	return s.generator.Get(id)
}

// List returns all completed reports, newest first
func (s *Service) List() []*Report {
	return s.generator.List()
}

func (s *Service) run(ctx context.Context, stays []models.Stay) (*Report, error) {
	patientIDs := collectPatients(stays)

	var docs []models.Document
	if len(patientIDs) > 0 {
		var err error
		docs, err = s.docs.DocumentsForPatients(ctx, patientIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load documents: %w", err)
		}
	}

	results, err := s.engine.Reconcile(ctx, stays, docs)
	if err != nil {
		return nil, fmt.Errorf("reconciliation failed: %w", err)
	}

	return &Report{
		ID:          NewReportID(),
		GeneratedAt: time.Now().UTC(),
		Degraded:    s.degraded,
		Results:     results,
		Summary:     stats.Summarize(results),
	}, nil
}

// collectPatients returns the distinct patient IDs in input order
func collectPatients(stays []models.Stay) []string {
	seen := make(map[string]bool, len(stays))
	var ids []string
	for i := range stays {
		id := stays[i].PatientID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
