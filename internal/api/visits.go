package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/tracker-core/internal/visit"
)

// handleDayVisits classifies one UTC day.
//
// GET /visits/{date}
// Response: visit.DayResult
func (s *Server) handleDayVisits(w http.ResponseWriter, r *http.Request) {
	result, err := s.visits.ClassifyDate(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		s.writeDomainError(w, err, "failed to classify visits")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCompareVisits pivots visits across dates.
//
// GET /visits/compare?date=YYYY-MM-DD
// GET /visits/compare?from=YYYY-MM-DD&to=YYYY-MM-DD
// Response: visit.Comparison
//
// With date, the zones applicable on that date are compared across every
// date any of them applies to. With from and to, every zone is compared
// over the inclusive range.
func (s *Server) handleCompareVisits(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	date, from, to := query.Get("date"), query.Get("from"), query.Get("to")

	var (
		cmp *visit.Comparison
		err error
	)
	switch {
	case date != "" && from == "" && to == "":
		cmp, err = s.visits.CompareForDate(r.Context(), date)
	case date == "" && from != "" && to != "":
		cmp, err = s.visits.CompareRange(r.Context(), from, to)
	default:
		writeBadRequest(w, "either date or both from and to are required")
		return
	}
	if err != nil {
		s.writeDomainError(w, err, "failed to compare visits")
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// handlePublishVisits classifies a day and publishes it on the bus.
//
// POST /visits/{date}/publish
// Response: 202 Accepted with the published result
func (s *Server) handlePublishVisits(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	result, err := s.visits.PublishDay(r.Context(), date)
	if err != nil {
		s.writeDomainError(w, err, "failed to publish visits")
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}
