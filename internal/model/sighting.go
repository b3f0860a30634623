// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"strings"
	"time"
)

// SightingRecord is a persisted ghost sighting report — one row in the
// ghost_sightings table.
//
// The `json:"..."` tags match the wire format of the public API exactly
// (snake_case, as submitted by the form and returned by the endpoints).
//
// WHY *string FOR THE OPTIONAL FIELDS?
// city, state, notes, time_of_day, apparition_tag and image_link are
// nullable in the table. A plain string can't distinguish "" from NULL,
// and the API contract says omitted optionals come back as null — so we
// use pointers. encoding/json marshals a nil *string as null for free,
// and database/sql scans NULL into a nil pointer via sql.NullString.
type SightingRecord struct {
	ID             string    `json:"id"               db:"id"`
	DateOfSighting string    `json:"date_of_sighting" db:"date_of_sighting"` // ISO date, e.g. "2024-01-01"
	Latitude       float64   `json:"latitude"         db:"latitude"`         // −90 … 90
	Longitude      float64   `json:"longitude"        db:"longitude"`        // −180 … 180
	City           *string   `json:"city"             db:"city"`
	State          *string   `json:"state"            db:"state"`
	Notes          *string   `json:"notes"            db:"notes"`
	TimeOfDay      *string   `json:"time_of_day"      db:"time_of_day"`
	ApparitionTag  *string   `json:"apparition_tag"   db:"apparition_tag"`
	ImageLink      *string   `json:"image_link"       db:"image_link"`
	CreatedAt      time.Time `json:"created_at"       db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"       db:"updated_at"`
}

// DisplaySighting is the UI-facing projection of a SightingRecord: the
// shape the map popups, the stats scan, and the table all consume.
// It is derived (never persisted) — see ToDisplay.
type DisplaySighting struct {
	ID       string  `json:"id"`
	Date     string  `json:"date"`
	Time     string  `json:"time"`     // time_of_day, "Unknown" when absent
	Type     string  `json:"type"`     // apparition_tag, "Unknown" when absent
	Location string  `json:"location"` // "City, State" with "Unknown" fallbacks
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Notes    string  `json:"notes"`
	HasImage bool    `json:"hasImage"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

// UnknownLocation is the Location value a record without city and state
// projects to. The stats scan excludes it when picking the most
// frequently reported location.
const UnknownLocation = "Unknown, Unknown"

// ToDisplay converts a persisted record into its display projection.
// Pure function: no I/O, no mutation of the input.
func ToDisplay(rec *SightingRecord) DisplaySighting {
	d := DisplaySighting{
		ID:       rec.ID,
		Date:     rec.DateOfSighting,
		Time:     orUnknown(rec.TimeOfDay),
		Type:     orUnknown(rec.ApparitionTag),
		Location: orUnknown(rec.City) + ", " + orUnknown(rec.State),
		Lat:      rec.Latitude,
		Lng:      rec.Longitude,
		Notes:    "No notes available",
	}
	if rec.Notes != nil && *rec.Notes != "" {
		d.Notes = *rec.Notes
	}
	// hasImage means a non-blank link, not just a non-null one —
	// the historical CSV data contains rows with image_link = "  ".
	if rec.ImageLink != nil && strings.TrimSpace(*rec.ImageLink) != "" {
		d.HasImage = true
		d.ImageURL = *rec.ImageLink
	}
	return d
}

// ToDisplayAll maps a slice of records. Always returns a non-nil slice
// so the JSON encoding is [] rather than null for an empty result.
func ToDisplayAll(recs []SightingRecord) []DisplaySighting {
	out := make([]DisplaySighting, 0, len(recs))
	for i := range recs {
		out = append(out, ToDisplay(&recs[i]))
	}
	return out
}

func orUnknown(s *string) string {
	if s == nil || *s == "" {
		return "Unknown"
	}
	return *s
}

// TimeOfDayOptions and ApparitionTagOptions are the fixed choices the
// submission form offers. They are a client-side convenience only — the
// server stores whatever string a caller submits (the table columns are
// free text), so these lists are rendered into the form template and
// nothing else checks against them.
var (
	TimeOfDayOptions = []string{
		"Dawn", "Morning", "Afternoon", "Evening", "Night", "Midnight",
	}
	ApparitionTagOptions = []string{
		"Shadow Figure", "Orbs", "Poltergeist", "Headless Spirit",
		"Full Apparition", "Partial Apparition", "Other",
	}
)
