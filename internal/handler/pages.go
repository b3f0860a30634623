// Package handler contains the HTTP request handlers.
//
// Handlers are the glue between HTTP and the application: they parse
// requests, call the service layer, and write responses. No business
// logic lives here.
package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/sakif/ghost-atlas/internal/model"
	"github.com/sakif/ghost-atlas/internal/service"
)

// MapConfig is everything the browser map needs, rendered into the
// page by the server. The access token comes from configuration only —
// there is no embedded fallback, and the server refuses to start
// without one.
//
// The cluster parameters live here (not hard-coded in JS) so the two
// pages that embed a map share one source of truth.
type MapConfig struct {
	AccessToken    string
	Style          string
	CenterLng      float64
	CenterLat      float64
	Zoom           float64
	ClusterRadius  int
	ClusterMaxZoom int
}

// DefaultMapConfig returns the map parameters with the given token:
// dark style, centered on the continental US, clustering tuned for a
// nationwide point set.
func DefaultMapConfig(token string) MapConfig {
	return MapConfig{
		AccessToken:    token,
		Style:          "mapbox://styles/mapbox/dark-v11",
		CenterLng:      -98.5795,
		CenterLat:      39.8283,
		Zoom:           3.5,
		ClusterRadius:  50,
		ClusterMaxZoom: 14,
	}
}

// PageHandler renders the two HTML pages: the sighting map (home) and
// the report-a-sighting form. It holds parsed templates so they are
// compiled once at startup, not per request.
type PageHandler struct {
	home      *template.Template
	post      *template.Template
	sightings *service.SightingService
	mapCfg    MapConfig
	logger    *slog.Logger
}

// NewPageHandler parses the page templates and creates a PageHandler.
//
// base.html defines the page shell with {{template "content" .}} and
// {{template "scripts" .}} placeholders; home.html and post.html each
// fill them in. Both pages define the same block names, so each page
// gets its own template set parsed against the shared base.
func NewPageHandler(templateDir string, sightings *service.SightingService, mapCfg MapConfig, logger *slog.Logger) (*PageHandler, error) {
	base := filepath.Join(templateDir, "base.html")

	home, err := template.ParseFiles(base, filepath.Join(templateDir, "home.html"))
	if err != nil {
		return nil, err
	}
	post, err := template.ParseFiles(base, filepath.Join(templateDir, "post.html"))
	if err != nil {
		return nil, err
	}

	return &PageHandler{
		home:      home,
		post:      post,
		sightings: sightings,
		mapCfg:    mapCfg,
		logger:    logger,
	}, nil
}

// HandleHome serves the map page: stats panel, clustered map, and a
// table of the ten most recent sightings. The table rows render
// server-side; the map and stats hydrate from the API and stay live
// over the websocket.
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	recent, err := h.sightings.List(r.Context(), 10, "")
	if err != nil {
		// The page still renders without the table — the map fetches
		// its own data. Degrade, don't 500 the whole page.
		h.logger.Error("failed to load recent sightings for home page", slog.String("error", err.Error()))
		recent = nil
	}

	h.render(w, h.home, "home", map[string]any{
		"Title":  "Ghost Atlas — Sighting Map",
		"Map":    h.mapCfg,
		"Recent": model.ToDisplayAll(recent),
	})
}

// HandlePostPage serves the report-a-sighting form. The form embeds its
// own small map for picking the location.
func (h *PageHandler) HandlePostPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, h.post, "post", map[string]any{
		"Title":          "Ghost Atlas — Report a Sighting",
		"Map":            h.mapCfg,
		"TimesOfDay":     model.TimeOfDayOptions,
		"ApparitionTags": model.ApparitionTagOptions,
	})
}

func (h *PageHandler) render(w http.ResponseWriter, tmpl *template.Template, page string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
