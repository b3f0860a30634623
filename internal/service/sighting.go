// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// The handler does basic parsing (is the JSON valid?); the service
// enforces the submission rules (coordinates in range, optionals coerced
// to null); the repository speaks SQL. The service returns domain errors
// (apperror.*), never HTTP status codes — the handler translates.
//
// DEPENDENCY INJECTION:
// SightingService takes repository.SightingRepository (an interface),
// not *sqlite.DB. Tests pass an in-memory mock; main passes the real DB.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/ghost-atlas/internal/apperror"
	"github.com/sakif/ghost-atlas/internal/geo"
	"github.com/sakif/ghost-atlas/internal/model"
	"github.com/sakif/ghost-atlas/internal/repository"
)

const (
	// DefaultListLimit matches the public API default: GET /api/sightings
	// without an explicit limit returns at most this many rows.
	DefaultListLimit = 100
	// MaxListLimit is the hard ceiling a caller-supplied limit is clamped
	// to. There is no pagination — the map wants everything anyway (via
	// the geojson endpoint), and the table shows only the top of the list.
	MaxListLimit = 10000
)

// Broadcaster pushes a freshly created sighting to live subscribers.
// Implemented by realtime.Hub; nil disables broadcasting (CLI importer,
// some tests). Exactly one event is published per successful insert, so
// subscribers can treat events as idempotent, keyed by record ID.
type Broadcaster interface {
	BroadcastSighting(s *model.SightingRecord)
}

// SightingService handles business logic for sighting reports.
type SightingService struct {
	repo      repository.SightingRepository
	broadcast Broadcaster
	logger    *slog.Logger
	now       func() time.Time // injectable clock for the stats tests
}

// NewSightingService creates a SightingService. broadcast may be nil.
func NewSightingService(repo repository.SightingRepository, broadcast Broadcaster, logger *slog.Logger) *SightingService {
	return &SightingService{
		repo:      repo,
		broadcast: broadcast,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateInput is the raw submission payload, before validation.
//
// Latitude and Longitude are `any` because the wire format accepts JSON
// numbers and numeric strings interchangeably — the geo package settles
// what they actually are. Missing keys arrive as nil.
type CreateInput struct {
	DateOfSighting string
	Latitude       any
	Longitude      any
	City           string
	State          string
	Notes          string
	TimeOfDay      string
	ApparitionTag  string
	ImageLink      string
}

// Create validates and stores one sighting report.
//
// Behavioral contract (the endpoint's documented semantics):
//   - validation failure → apperror.ErrValidation with a message naming
//     the exact failed constraint; nothing is inserted
//   - blank/absent optional fields are stored as NULL, not ""
//   - exactly one row per successful call; no deduplication — two
//     identical submissions are two sightings
//   - datastore failure → apperror.ErrUnavailable with an opaque message;
//     the cause is logged here, never shown to the caller; no retry
//   - on success, the record (with server-assigned id and timestamps) is
//     broadcast to live subscribers once
func (s *SightingService) Create(ctx context.Context, in CreateInput) (*model.SightingRecord, error) {
	r := geo.Validate(in.DateOfSighting, in.Latitude, in.Longitude)
	if !r.OK() {
		field := r.Issues[0].Field
		return nil, apperror.ValidationFailed(field, r.Error())
	}

	rec := &model.SightingRecord{
		DateOfSighting: strings.TrimSpace(in.DateOfSighting),
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		City:           nilIfBlank(in.City),
		State:          nilIfBlank(in.State),
		Notes:          nilIfBlank(in.Notes),
		TimeOfDay:      nilIfBlank(in.TimeOfDay),
		ApparitionTag:  nilIfBlank(in.ApparitionTag),
		ImageLink:      nilIfBlank(in.ImageLink),
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		s.logger.Error("failed to create sighting",
			slog.String("date", rec.DateOfSighting),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Unavailable("Failed to add sighting to database", err)
	}

	s.logger.Info("sighting created",
		slog.String("id", rec.ID),
		slog.Float64("lat", rec.Latitude),
		slog.Float64("lng", rec.Longitude),
	)

	if s.broadcast != nil {
		s.broadcast.BroadcastSighting(rec)
	}

	return rec, nil
}

// List returns sightings ordered by sighting date descending.
// limit <= 0 falls back to DefaultListLimit; the state filter is an
// exact match (NULL-state rows never match a non-empty filter).
func (s *SightingService) List(ctx context.Context, limit int, state string) ([]model.SightingRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	recs, err := s.repo.List(ctx, repository.ListOptions{
		Limit: limit,
		State: strings.TrimSpace(state),
	})
	if err != nil {
		s.logger.Error("failed to list sightings", slog.String("error", err.Error()))
		return nil, apperror.Unavailable("Failed to fetch sightings", err)
	}

	return recs, nil
}

// ListAll returns every sighting, date-descending. Used by the map's
// GeoJSON endpoint and the stats scan, which genuinely want the full set.
func (s *SightingService) ListAll(ctx context.Context) ([]model.SightingRecord, error) {
	recs, err := s.repo.List(ctx, repository.ListOptions{})
	if err != nil {
		s.logger.Error("failed to list sightings", slog.String("error", err.Error()))
		return nil, apperror.Unavailable("Failed to fetch sightings", err)
	}
	return recs, nil
}

func nilIfBlank(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
