package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/ghost-atlas/internal/apperror"
	"github.com/sakif/ghost-atlas/internal/model"
	"github.com/sakif/ghost-atlas/internal/service"
)

// SightingHandler serves the sighting API: submission, listing, the
// map's GeoJSON feed, and the stats panel.
//
// The handler only parses and responds. Everything with an opinion —
// coordinate ranges, null coercion, limit clamping, the stats scan —
// lives in the service.
type SightingHandler struct {
	sightings *service.SightingService
	logger    *slog.Logger
}

// NewSightingHandler creates a SightingHandler.
func NewSightingHandler(sightings *service.SightingService, logger *slog.Logger) *SightingHandler {
	return &SightingHandler{sightings: sightings, logger: logger}
}

// createSightingRequest is the submission body.
//
// Latitude and longitude are `any`: the wire format accepts both JSON
// numbers (40.0) and numeric strings ("40.0") — form clients send
// strings, API clients send numbers. The service settles the types.
type createSightingRequest struct {
	DateOfSighting string `json:"date_of_sighting"`
	Latitude       any    `json:"latitude"`
	Longitude      any    `json:"longitude"`
	City           string `json:"city"`
	State          string `json:"state"`
	Notes          string `json:"notes"`
	TimeOfDay      string `json:"time_of_day"`
	ApparitionTag  string `json:"apparition_tag"`
	ImageLink      string `json:"image_link"`
}

// HandleCreate stores one sighting report.
//
// HTTP: POST /api/sightings
// RESPONSE: 201 {"success":true,"data":<record>} — the record carries
// the server-assigned id and timestamps; optional fields that arrived
// blank come back as null.
func (h *SightingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSightingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid sighting JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "Request body must be valid JSON"))
		return
	}

	rec, err := h.sightings.Create(r.Context(), service.CreateInput{
		DateOfSighting: req.DateOfSighting,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		City:           req.City,
		State:          req.State,
		Notes:          req.Notes,
		TimeOfDay:      req.TimeOfDay,
		ApparitionTag:  req.ApparitionTag,
		ImageLink:      req.ImageLink,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createdResponse{Success: true, Data: rec})
}

// HandleList returns sightings, date-descending.
//
// HTTP: GET /api/sightings?limit=<n>&state=<s>
// RESPONSE: 200 {"data":[<record>...]}
//
// limit is a hard cap, not a page token — there is no pagination.
// An unparseable limit falls back to the default rather than erroring;
// the map page must never break over a mangled query string.
func (h *SightingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	recs, err := h.sightings.List(r.Context(), limit, r.URL.Query().Get("state"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse{Data: recs})
}

// HandleGeoJSON returns every sighting as a GeoJSON FeatureCollection,
// ready to hand to the map's clustered source.
//
// HTTP: GET /api/sightings/geojson
//
// No envelope here — mapbox-gl consumes the FeatureCollection directly
// as source data.
func (h *SightingHandler) HandleGeoJSON(w http.ResponseWriter, r *http.Request) {
	recs, err := h.sightings.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ToFeatureCollection(recs))
}

// HandleStats returns the aggregate panel data.
//
// HTTP: GET /api/stats
// RESPONSE: 200 {"data":{"totalCount":...,"mostRecentSighting":...,"mostGhostlyCity":...}}
func (h *SightingHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sightings.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse{Data: stats})
}
