package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/savegress/staysync/internal/stats"
	"github.com/savegress/staysync/pkg/models"
)

// CSV export uses a semicolon separator, matching the format the hospital
// quality teams load into their spreadsheet tooling.
const csvSeparator = ';'

var resultsHeader = []string{
	"stay_id", "patient_id", "specialty", "document_id",
	"delay", "classification", "dispatched", "dispatch_delay",
}

// WriteResultsCSV renders the per-stay result rows of a report
func WriteResultsCSV(w io.Writer, results []models.MatchResult) error {
	cw := csv.NewWriter(w)
	cw.Comma = csvSeparator

	if err := cw.Write(resultsHeader); err != nil {
		return err
	}
	for i := range results {
		r := &results[i]
		record := []string{
			r.StayID,
			r.PatientID,
			r.Specialty,
			r.DocumentID,
			formatDelay(r.Delay),
			string(r.Classification),
			strconv.FormatBool(r.Dispatched),
			formatDelay(r.DispatchDelay),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var summaryHeader = []string{
	"specialty", "total", "matched", "on_time", "late", "unmatched",
	"matched_rate", "on_time_rate", "mean_delay",
}

// WriteSummaryCSV renders the indicator rows of a report: one global row
// followed by one row per specialty.
func WriteSummaryCSV(w io.Writer, s *stats.Summary) error {
	cw := csv.NewWriter(w)
	cw.Comma = csvSeparator

	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	global := []string{
		"ALL",
		strconv.Itoa(s.Total),
		strconv.Itoa(s.Matched),
		strconv.Itoa(s.OnTime),
		strconv.Itoa(s.Late),
		strconv.Itoa(s.Unmatched),
		s.MatchedRate.String(),
		s.OnTimeRate.String(),
		s.MeanDelay.String(),
	}
	if err := cw.Write(global); err != nil {
		return err
	}
	for _, sp := range s.BySpecialty {
		record := []string{
			sp.Specialty,
			strconv.Itoa(sp.Total),
			strconv.Itoa(sp.Matched),
			strconv.Itoa(sp.OnTime),
			strconv.Itoa(sp.Late),
			strconv.Itoa(sp.Unmatched),
			sp.MatchedRate.String(),
			sp.OnTimeRate.String(),
			sp.MeanDelay.String(),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatDelay(d *int) string {
	if d == nil {
		return ""
	}
	return strconv.Itoa(*d)
}
