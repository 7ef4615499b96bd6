// Package scheduler generates the previous month's report automatically
// once the configured day of month is reached.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/savegress/staysync/internal/notify"
	"github.com/savegress/staysync/internal/report"
)

// Scheduler drives the monthly report job
type Scheduler struct {
	reports    *report.Service
	notifiers  []notify.Notifier
	dayOfMonth int

	checkEvery time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once

	mu      sync.Mutex
	lastRun string // month key of the last generated report, e.g. "2025-03"
}

// New creates a scheduler that fires on dayOfMonth each month. Days outside
// [1, 28] are clamped so the job fires in February too.
func New(svc *report.Service, notifiers []notify.Notifier, dayOfMonth int) *Scheduler {
	if dayOfMonth < 1 {
		dayOfMonth = 1
	}
	if dayOfMonth > 28 {
		dayOfMonth = 28
	}
	return &Scheduler{
		reports:    svc,
		notifiers:  notifiers,
		dayOfMonth: dayOfMonth,
		checkEvery: time.Hour,
		stopCh:     make(chan struct{}),
	}
}

// Start launches the scheduler loop
func (s *Scheduler) Start() {
	go func() {
		ticker := time.NewTicker(s.checkEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.tick(time.Now().UTC())
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the scheduler loop
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *Scheduler) tick(now time.Time) {
	if !s.due(now) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := s.RunOnce(ctx, now); err != nil {
		log.Printf("monthly report failed: %v", err)
	}
}

// due reports whether the monthly job should fire at now
func (s *Scheduler) due(now time.Time) bool {
	if now.Day() < s.dayOfMonth {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun != monthKey(now)
}

// RunOnce generates the report for the month preceding now and announces it
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) error {
	start, end := previousMonthRange(now)

	r, err := s.reports.RunByDate(ctx, start, end)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lastRun = monthKey(now)
	s.mu.Unlock()

	log.Printf("monthly report %s generated for %s to %s (%d stays)",
		r.ID, start.Format("2006-01-02"), end.Format("2006-01-02"), r.Summary.Total)

	for _, n := range s.notifiers {
		if err := n.Notify(r); err != nil {
			log.Printf("notifier %s failed: %v", n.Name(), err)
		}
	}
	return nil
}

// previousMonthRange returns the first and last day of the month before now
func previousMonthRange(now time.Time) (time.Time, time.Time) {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := firstOfMonth.AddDate(0, 0, -1)
	start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, end
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}
