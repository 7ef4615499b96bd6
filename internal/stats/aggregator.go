// Package stats turns a result table into summary indicators: overall and
// per-specialty counts, match and timeliness rates, mean delays, and
// dispatch figures.
package stats

import (
	"sort"

	"github.com/savegress/staysync/pkg/models"
	"github.com/shopspring/decimal"
)

// Aggregator accumulates match results for one run. Each run owns its own
// aggregator; it is not safe for concurrent use.
type Aggregator struct {
	total     int
	onTime    int
	late      int
	unmatched int

	delaySum decimal.Decimal
	delayN   int

	dispatched  int
	dispatchSum decimal.Decimal
	dispatchN   int

	bySpecialty map[string]*specialtyAccum
}

type specialtyAccum struct {
	total     int
	onTime    int
	late      int
	unmatched int
	delaySum  decimal.Decimal
	delayN    int
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{
		bySpecialty: make(map[string]*specialtyAccum),
	}
}

// Add accumulates one match result
func (a *Aggregator) Add(res *models.MatchResult) {
	a.total++

	switch res.Classification {
	case models.ClassificationOnTime:
		a.onTime++
	case models.ClassificationLate:
		a.late++
	default:
		a.unmatched++
	}

	if res.Delay != nil {
		a.delaySum = a.delaySum.Add(decimal.NewFromInt(int64(*res.Delay)))
		a.delayN++
	}

	if res.Dispatched {
		a.dispatched++
		if res.DispatchDelay != nil {
			a.dispatchSum = a.dispatchSum.Add(decimal.NewFromInt(int64(*res.DispatchDelay)))
			a.dispatchN++
		}
	}

	// Unmatched stays without a resolved specialty land in the "" bucket
	acc := a.bySpecialty[res.Specialty]
	if acc == nil {
		acc = &specialtyAccum{}
		a.bySpecialty[res.Specialty] = acc
	}
	acc.total++
	switch res.Classification {
	case models.ClassificationOnTime:
		acc.onTime++
	case models.ClassificationLate:
		acc.late++
	default:
		acc.unmatched++
	}
	if res.Delay != nil {
		acc.delaySum = acc.delaySum.Add(decimal.NewFromInt(int64(*res.Delay)))
		acc.delayN++
	}
}

// Summary holds the indicators for one run
type Summary struct {
	Total     int `json:"total"`
	Matched   int `json:"matched"`
	OnTime    int `json:"on_time"`
	Late      int `json:"late"`
	Unmatched int `json:"unmatched"`

	// Rates are percentages of the stay total, rounded to one decimal
	MatchedRate decimal.Decimal `json:"matched_rate"`
	OnTimeRate  decimal.Decimal `json:"on_time_rate"`

	// MeanDelay averages final delays over matched stays only
	MeanDelay decimal.Decimal `json:"mean_delay"`

	Dispatched        int             `json:"dispatched"`
	DispatchRate      decimal.Decimal `json:"dispatch_rate"`
	MeanDispatchDelay decimal.Decimal `json:"mean_dispatch_delay"`

	BySpecialty []SpecialtySummary `json:"by_specialty"`
}

// SpecialtySummary holds the per-specialty indicators
type SpecialtySummary struct {
	Specialty   string          `json:"specialty"`
	Total       int             `json:"total"`
	Matched     int             `json:"matched"`
	OnTime      int             `json:"on_time"`
	Late        int             `json:"late"`
	Unmatched   int             `json:"unmatched"`
	MatchedRate decimal.Decimal `json:"matched_rate"`
	OnTimeRate  decimal.Decimal `json:"on_time_rate"`
	MeanDelay   decimal.Decimal `json:"mean_delay"`
}

// Summarize computes the indicators accumulated so far. Safe on an empty
// aggregator: all counts and rates come back zero.
func (a *Aggregator) Summarize() *Summary {
	matched := a.onTime + a.late
	s := &Summary{
		Total:             a.total,
		Matched:           matched,
		OnTime:            a.onTime,
		Late:              a.late,
		Unmatched:         a.unmatched,
		MatchedRate:       rate(matched, a.total),
		OnTimeRate:        rate(a.onTime, a.total),
		MeanDelay:         mean(a.delaySum, a.delayN),
		Dispatched:        a.dispatched,
		DispatchRate:      rate(a.dispatched, matched),
		MeanDispatchDelay: mean(a.dispatchSum, a.dispatchN),
	}

	for name, acc := range a.bySpecialty {
		if name == "" {
			continue
		}
		m := acc.onTime + acc.late
		s.BySpecialty = append(s.BySpecialty, SpecialtySummary{
			Specialty:   name,
			Total:       acc.total,
			Matched:     m,
			OnTime:      acc.onTime,
			Late:        acc.late,
			Unmatched:   acc.unmatched,
			MatchedRate: rate(m, acc.total),
			OnTimeRate:  rate(acc.onTime, acc.total),
			MeanDelay:   mean(acc.delaySum, acc.delayN),
		})
	}
	sort.SliceStable(s.BySpecialty, func(i, j int) bool {
		if s.BySpecialty[i].Total != s.BySpecialty[j].Total {
			return s.BySpecialty[i].Total > s.BySpecialty[j].Total
		}
		return s.BySpecialty[i].Specialty < s.BySpecialty[j].Specialty
	})

	return s
}

// Summarize is the one-shot form used by batch callers
func Summarize(results []models.MatchResult) *Summary {
	a := NewAggregator()
	for i := range results {
		a.Add(&results[i])
	}
	return a.Summarize()
}

func rate(part, whole int) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(whole))).
		Round(1)
}

func mean(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(1)
}
