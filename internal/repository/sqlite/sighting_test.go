package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/ghost-atlas/internal/model"
	"github.com/sakif/ghost-atlas/internal/repository"
)

// TESTING WITH IN-MEMORY SQLITE:
// ":memory:" creates a fresh database that exists only for the test —
// fast, isolated, destroyed on close. t.Cleanup closes it even in subtests.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

// createTestSighting inserts a minimal sighting and fails the test on error.
func createTestSighting(t *testing.T, db *DB, date string, lat, lng float64, state *string) *model.SightingRecord {
	t.Helper()
	s := &model.SightingRecord{
		DateOfSighting: date,
		Latitude:       lat,
		Longitude:      lng,
		State:          state,
	}
	if err := db.Create(context.Background(), s); err != nil {
		t.Fatalf("failed to create test sighting: %v", err)
	}
	return s
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate(t *testing.T) {
	db := newTestDB(t)

	s := &model.SightingRecord{
		DateOfSighting: "2024-01-01",
		Latitude:       40.0,
		Longitude:      -75.0,
		ApparitionTag:  strPtr("Orb"),
	}

	if err := db.Create(context.Background(), s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// The record is modified in place: server-assigned ID and timestamps.
	if s.ID == "" {
		t.Error("Create() did not set ID")
	}
	if s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestCreate_RoundTripPreservesNulls(t *testing.T) {
	db := newTestDB(t)

	created := createTestSighting(t, db, "2024-01-01", 40.0, -75.0, nil)

	listed, err := db.List(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("List() returned %d rows, want 1", len(listed))
	}

	got := listed[0]
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}
	// Optionals omitted at insert must come back as nil, not "".
	for name, p := range map[string]*string{
		"city": got.City, "state": got.State, "notes": got.Notes,
		"time_of_day": got.TimeOfDay, "apparition_tag": got.ApparitionTag,
		"image_link": got.ImageLink,
	} {
		if p != nil {
			t.Errorf("%s = %q, want nil", name, *p)
		}
	}
}

func TestCreate_NoDeduplication(t *testing.T) {
	// Two identical submissions are two rows — the endpoint contract.
	db := newTestDB(t)

	createTestSighting(t, db, "2024-01-01", 40.0, -75.0, nil)
	createTestSighting(t, db, "2024-01-01", 40.0, -75.0, nil)

	n, err := db.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestList_OrderedByDateDescending(t *testing.T) {
	db := newTestDB(t)

	createTestSighting(t, db, "2023-05-01", 30.0, -90.0, nil)
	createTestSighting(t, db, "2024-02-14", 41.0, -74.0, nil)
	createTestSighting(t, db, "2021-10-31", 35.0, -80.0, nil)

	listed, err := db.List(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []string{"2024-02-14", "2023-05-01", "2021-10-31"}
	if len(listed) != len(want) {
		t.Fatalf("List() returned %d rows, want %d", len(listed), len(want))
	}
	for i, w := range want {
		if listed[i].DateOfSighting != w {
			t.Errorf("row %d date = %q, want %q", i, listed[i].DateOfSighting, w)
		}
	}
}

func TestList_StateFilterExcludesNull(t *testing.T) {
	db := newTestDB(t)

	createTestSighting(t, db, "2024-01-01", 31.0, -100.0, strPtr("Texas"))
	createTestSighting(t, db, "2024-01-02", 30.0, -97.7, strPtr("Texas"))
	createTestSighting(t, db, "2024-01-03", 40.7, -74.0, strPtr("New York"))
	createTestSighting(t, db, "2024-01-04", 20.0, -60.0, nil) // NULL state

	listed, err := db.List(context.Background(), repository.ListOptions{State: "Texas"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(listed) != 2 {
		t.Fatalf("List(state=Texas) returned %d rows, want 2", len(listed))
	}
	for _, s := range listed {
		if s.State == nil || *s.State != "Texas" {
			t.Errorf("filtered list contains non-Texas row %+v", s)
		}
	}
}

func TestList_LimitIsHardCap(t *testing.T) {
	db := newTestDB(t)

	for i := 0; i < 5; i++ {
		createTestSighting(t, db, "2024-01-01", 40.0, -75.0, nil)
	}

	listed, err := db.List(context.Background(), repository.ListOptions{Limit: 3})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(listed) != 3 {
		t.Errorf("List(limit=3) returned %d rows, want 3", len(listed))
	}
}

func TestList_EmptyTable(t *testing.T) {
	db := newTestDB(t)

	listed, err := db.List(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if listed == nil {
		t.Error("List() returned nil, want empty slice")
	}
	if len(listed) != 0 {
		t.Errorf("List() returned %d rows, want 0", len(listed))
	}
}

// =========================================================================
// BATCH INSERT TESTS
// =========================================================================

func TestCreateBatch(t *testing.T) {
	db := newTestDB(t)

	recs := make([]model.SightingRecord, 250)
	for i := range recs {
		recs[i] = model.SightingRecord{
			DateOfSighting: "2022-06-15",
			Latitude:       float64(i % 90),
			Longitude:      float64(-(i % 180)),
			State:          strPtr("Ohio"),
		}
	}

	n, err := db.CreateBatch(context.Background(), recs)
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}
	if n != 250 {
		t.Errorf("CreateBatch() = %d, want 250", n)
	}

	count, err := db.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 250 {
		t.Errorf("Count() = %d, want 250", count)
	}

	// Every row got its own ID.
	if recs[0].ID == "" || recs[0].ID == recs[1].ID {
		t.Errorf("batch rows share or lack IDs: %q, %q", recs[0].ID, recs[1].ID)
	}
}

func TestCreateBatch_Empty(t *testing.T) {
	db := newTestDB(t)

	n, err := db.CreateBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("CreateBatch(nil) error = %v", err)
	}
	if n != 0 {
		t.Errorf("CreateBatch(nil) = %d, want 0", n)
	}
}
