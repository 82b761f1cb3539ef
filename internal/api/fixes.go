package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/tracker-core/internal/ingest"
	"github.com/nerrad567/tracker-core/internal/tracking"
)

// Page size defaults when the fixes config leaves them unset.
const (
	defaultPageSize    = 50
	defaultMaxPageSize = 500
)

// handleUpload records one location payload posted by a device.
//
// PUT /upload
// Body: device location payload
// Response: 201 Created with the stored fix
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.Header().Set("Allow", http.MethodPut)
		writeMethodNotAllowed(w)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
			return
		}
		writeBadRequest(w, "reading request body failed")
		return
	}

	fix, err := s.ingest.Record(r.Context(), ingest.SourceHTTP, body)
	if err != nil {
		s.writeDomainError(w, err, "failed to record fix")
		return
	}

	writeJSON(w, http.StatusCreated, fix)
}

// handleListFixes returns one keyset page of fixes, newest first.
//
// GET /fixes?cursor=&limit=
// Response: {"fixes": [...], "next_cursor": N, "total": N}
func (s *Server) handleListFixes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var cursor int64
	if raw := query.Get("cursor"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			writeBadRequest(w, "cursor must be a non-negative integer")
			return
		}
		cursor = v
	}

	limit := s.pageSize()
	if raw := query.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(v, s.maxPageSize())
	}

	page, err := s.fixRepo.ListPage(r.Context(), cursor, limit)
	if err != nil {
		s.writeDomainError(w, err, "failed to list fixes")
		return
	}
	if page.Fixes == nil {
		page.Fixes = []tracking.Fix{}
	}
	writeJSON(w, http.StatusOK, page)
}

// handleDayFixes returns every fix of a UTC day for map pins.
//
// GET /fixes/day/{date}
// Response: {"date": "...", "fixes": [...], "count": N}
func (s *Server) handleDayFixes(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	start, end, err := tracking.DayBounds(date)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	fixes, err := s.fixRepo.ListDay(r.Context(), start, end)
	if err != nil {
		s.writeDomainError(w, err, "failed to list fixes")
		return
	}
	if fixes == nil {
		fixes = []tracking.Fix{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "fixes": fixes, "count": len(fixes)})
}

// handleGetFix returns a single fix.
func (s *Server) handleGetFix(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	fix, err := s.fixRepo.GetByID(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err, "failed to get fix")
		return
	}
	writeJSON(w, http.StatusOK, fix)
}

func (s *Server) pageSize() int {
	size := s.fixesCfg.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	return min(size, s.maxPageSize())
}

func (s *Server) maxPageSize() int {
	if s.fixesCfg.MaxPageSize <= 0 {
		return defaultMaxPageSize
	}
	return s.fixesCfg.MaxPageSize
}

// parseID reads the {id} URL parameter, writing a 400 when it is not a
// positive integer.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
