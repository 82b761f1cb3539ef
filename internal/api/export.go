package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/tracker-core/internal/export/gpx"
	"github.com/nerrad567/tracker-core/internal/tracking"
)

// defaultGPXBatchSize applies when export.gpx_batch_size is unset.
const defaultGPXBatchSize = 200

// handleExportGPX streams a UTC day of fixes as a GPX 1.1 track.
//
// GET /export/{date}.gpx
// Response: application/gpx+xml attachment
func (s *Server) handleExportGPX(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	start, end, err := tracking.DayBounds(date)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	batchSize := s.exportCfg.GPXBatchSize
	if batchSize <= 0 {
		batchSize = defaultGPXBatchSize
	}

	w.Header().Set("Content-Type", gpx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", gpx.Filename(date)))
	w.Header().Set("Cache-Control", "no-cache")

	doc := gpx.NewWriter(w, s.exportCfg.GPXCreator)
	if err := doc.Begin(date, time.Now()); err != nil {
		s.logger.Error("starting gpx export", "date", date, "error", err)
		return
	}

	// Headers are committed once the prologue is written, so later failures
	// can only be logged and the document left truncated.
	err = s.fixRepo.StreamDay(r.Context(), start, end, batchSize, func(batch []tracking.Fix) error {
		if err := doc.WriteFixes(batch); err != nil {
			return err
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		return nil
	})
	if err != nil {
		s.logger.Error("streaming gpx export", "date", date, "points", doc.Points(), "error", err)
		return
	}

	if err := doc.Close(); err != nil {
		s.logger.Error("finishing gpx export", "date", date, "error", err)
		return
	}
	s.logger.Debug("gpx export complete", "date", date, "points", doc.Points())
}
