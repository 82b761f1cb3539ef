package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/tracker-core/internal/geofence"
)

// zoneRequest is the body accepted by zone create and update.
// Omitted radius and order fall back to the zone defaults. Dates may be
// given as a list or in the comma-separated editor form.
type zoneRequest struct {
	Name            string   `json:"name"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	Radius          *int     `json:"radius"`
	Order           *int     `json:"order"`
	ApplicableDates []string `json:"applicable_dates"`
	Dates           string   `json:"dates"`
}

// toZone builds a zone from the request, starting from the defaults.
func (req zoneRequest) toZone() (*geofence.Zone, string) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, "latitude and longitude are required"
	}

	zone := geofence.New(req.Name, *req.Latitude, *req.Longitude)
	if req.Radius != nil {
		zone.Radius = *req.Radius
	}
	if req.Order != nil {
		zone.Order = *req.Order
	}

	dates := req.ApplicableDates
	if req.Dates != "" {
		parsed, err := geofence.ParseDates(req.Dates)
		if err != nil {
			return nil, err.Error()
		}
		dates = append(dates, parsed...)
	}
	if dates != nil {
		zone.ApplicableDates = dates
	}
	return zone, ""
}

// handleListZones returns every zone in display order.
//
// GET /zones
// Response: {"zones": [...], "count": N}
func (s *Server) handleListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := s.zoneRepo.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err, "failed to list zones")
		return
	}
	if zones == nil {
		zones = []geofence.Zone{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"zones": zones, "count": len(zones)})
}

// handleCreateZone creates a new zone.
//
// POST /zones
// Body: {"name", "latitude", "longitude", "radius", "order", "applicable_dates" | "dates"}
// Response: 201 Created with the created zone
func (s *Server) handleCreateZone(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	zone, msg := req.toZone()
	if zone == nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, msg)
		return
	}

	if err := s.zoneRepo.Create(r.Context(), zone); err != nil {
		s.writeDomainError(w, err, "failed to create zone")
		return
	}

	s.logger.Info("zone created", "id", zone.ID, "name", zone.Name, "dates", len(zone.ApplicableDates))
	writeJSON(w, http.StatusCreated, zone)
}

// handleGetZone returns a single zone.
//
// GET /zones/{id}
func (s *Server) handleGetZone(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	zone, err := s.zoneRepo.GetByID(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err, "failed to get zone")
		return
	}
	writeJSON(w, http.StatusOK, zone)
}

// handleUpdateZone replaces a zone's definition.
//
// PUT /zones/{id}
// Body: same as create
// Response: the updated zone
func (s *Server) handleUpdateZone(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	zone, msg := req.toZone()
	if zone == nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, msg)
		return
	}
	zone.ID = id

	if err := s.zoneRepo.Update(r.Context(), zone); err != nil {
		s.writeDomainError(w, err, "failed to update zone")
		return
	}

	// Reload to return the stored created_at alongside the new fields.
	updated, err := s.zoneRepo.GetByID(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err, "failed to get zone")
		return
	}

	s.logger.Info("zone updated", "id", id)
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteZone removes a zone.
//
// DELETE /zones/{id}
// Response: 204 No Content
func (s *Server) handleDeleteZone(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := s.zoneRepo.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, err, "failed to delete zone")
		return
	}

	s.logger.Info("zone deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
