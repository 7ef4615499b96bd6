package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/savegress/staysync/internal/report"
)

const dateLayout = "2006-01-02"

// Handlers contains all HTTP handlers
type Handlers struct {
	reports *report.Service
}

// NewHandlers creates new handlers
func NewHandlers(svc *report.Service) *Handlers {
	return &Handlers{reports: svc}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "staysync",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

type byDateRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ReportByDate runs a reconciliation over a discharge date range
func (h *Handlers) ReportByDate(w http.ResponseWriter, r *http.Request) {
	var req byDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "start_date must be formatted YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "end_date must be formatted YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		respondError(w, http.StatusBadRequest, "end_date must not precede start_date")
		return
	}

	rep, err := h.reports.RunByDate(r.Context(), start, end)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Report generation failed")
		return
	}

	respond(w, http.StatusCreated, rep)
}

type byStaysRequest struct {
	StayIDs []string `json:"stay_ids"`
}

// ReportByStays runs a reconciliation over an explicit stay selection
func (h *Handlers) ReportByStays(w http.ResponseWriter, r *http.Request) {
	var req byStaysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.StayIDs) == 0 {
		respondError(w, http.StatusBadRequest, "stay_ids must not be empty")
		return
	}

	rep, err := h.reports.RunByStays(r.Context(), req.StayIDs)
	if err != nil {
		if errors.Is(err, report.ErrNoStays) {
			respondError(w, http.StatusNotFound, "No stays found for the requested IDs")
			return
		}
		respondError(w, http.StatusInternalServerError, "Report generation failed")
		return
	}

	respond(w, http.StatusCreated, rep)
}

// GetReport retrieves a completed report. format=csv renders the per-stay
// rows; format=csv with view=summary renders the indicator rows.
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rep, ok := h.reports.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "Report not found")
		return
	}

	if wantsCSV(r) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		if r.URL.Query().Get("view") == "summary" {
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-summary.csv", rep.ID))
			if err := report.WriteSummaryCSV(w, rep.Summary); err != nil {
				respondError(w, http.StatusInternalServerError, "CSV rendering failed")
			}
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", rep.ID))
		if err := report.WriteResultsCSV(w, rep.Results); err != nil {
			respondError(w, http.StatusInternalServerError, "CSV rendering failed")
		}
		return
	}

	respond(w, http.StatusOK, rep)
}

// ListReports lists completed reports, newest first
func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	reports := h.reports.List()
	if reports == nil {
		reports = []*report.Report{}
	}
	respond(w, http.StatusOK, reports)
}

func wantsCSV(r *http.Request) bool {
	if r.URL.Query().Get("format") == "csv" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/csv")
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
