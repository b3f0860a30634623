package repository

import (
	"context"

	"github.com/sakif/ghost-atlas/internal/model"
)

// ListOptions narrows a sighting query.
//
// Limit is a hard cap on returned rows, not a pagination cursor — there
// is no offset/cursor because the UI always renders from the top of the
// date-descending list. Zero or negative means "use the caller's default".
//
// State filters by exact match on the state column. Rows where state is
// NULL never match a non-empty filter. Empty string means no filter.
type ListOptions struct {
	Limit int
	State string
}

// SightingRepository is the persistence boundary for sighting reports.
//
// There is deliberately no Update or Delete: sightings are append-only
// in this system. CreateBatch exists for the CSV importer, which inserts
// thousands of historical rows at a time.
type SightingRepository interface {
	Create(ctx context.Context, s *model.SightingRecord) error
	List(ctx context.Context, opts ListOptions) ([]model.SightingRecord, error)
	CreateBatch(ctx context.Context, recs []model.SightingRecord) (int, error)
	Count(ctx context.Context) (int, error)
}

// UserRepository stores contributor accounts for authenticated-write mode.
type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}
