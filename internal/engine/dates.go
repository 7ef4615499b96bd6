package engine

import "time"

// All eligibility rules compare calendar dates, not instants: a document
// validated at 23:50 on the discharge day is an on-time document.

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole-day difference to - from, negative when to
// precedes from.
func daysBetween(from, to time.Time) int {
	return int(dateOf(to).Sub(dateOf(from)).Hours() / 24)
}

// onOrAfter reports whether t's date is on or after ref's date
func onOrAfter(t, ref time.Time) bool {
	return !dateOf(t).Before(dateOf(ref))
}

// onOrBefore reports whether t's date is on or before ref's date
func onOrBefore(t, ref time.Time) bool {
	return !dateOf(t).After(dateOf(ref))
}
