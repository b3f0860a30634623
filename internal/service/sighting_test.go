package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/ghost-atlas/internal/apperror"
	"github.com/sakif/ghost-atlas/internal/model"
	"github.com/sakif/ghost-atlas/internal/repository"
)

// mockSightingRepo is a hand-written in-memory fake of the repository.
// It records calls so tests can assert what the service actually did.
type mockSightingRepo struct {
	records   []model.SightingRecord
	createErr error
	listErr   error
	lastOpts  repository.ListOptions
}

func (m *mockSightingRepo) Create(ctx context.Context, rec *model.SightingRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	rec.ID = "mock-id-123"
	m.records = append(m.records, *rec)
	return nil
}

func (m *mockSightingRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.SightingRecord, error) {
	m.lastOpts = opts
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.records, nil
}

func (m *mockSightingRepo) CreateBatch(ctx context.Context, recs []model.SightingRecord) (int, error) {
	m.records = append(m.records, recs...)
	return len(recs), nil
}

func (m *mockSightingRepo) Count(ctx context.Context) (int, error) {
	return len(m.records), nil
}

// mockBroadcaster counts emissions instead of pushing to websockets.
type mockBroadcaster struct {
	events []*model.SightingRecord
}

func (m *mockBroadcaster) BroadcastSighting(s *model.SightingRecord) {
	m.events = append(m.events, s)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validInput() CreateInput {
	return CreateInput{
		DateOfSighting: "2024-01-01",
		Latitude:       40.0,
		Longitude:      -75.0,
		ApparitionTag:  "Orbs",
	}
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate_StoresAndReturnsRecord(t *testing.T) {
	repo := &mockSightingRepo{}
	svc := NewSightingService(repo, nil, testLogger())

	rec, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	assert.Equal(t, "mock-id-123", rec.ID)
	assert.Equal(t, 40.0, rec.Latitude)
	assert.Equal(t, -75.0, rec.Longitude)
	assert.Len(t, repo.records, 1)
}

func TestCreate_BlankOptionalsBecomeNil(t *testing.T) {
	repo := &mockSightingRepo{}
	svc := NewSightingService(repo, nil, testLogger())

	in := validInput()
	in.City = "   " // whitespace collapses to null
	in.State = ""
	in.Notes = ""
	in.ImageLink = "\t"

	rec, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	assert.Nil(t, rec.City)
	assert.Nil(t, rec.State)
	assert.Nil(t, rec.Notes)
	assert.Nil(t, rec.ImageLink)
	if assert.NotNil(t, rec.ApparitionTag) {
		assert.Equal(t, "Orbs", *rec.ApparitionTag)
	}
}

func TestCreate_NumericStringCoordinates(t *testing.T) {
	repo := &mockSightingRepo{}
	svc := NewSightingService(repo, nil, testLogger())

	in := validInput()
	in.Latitude = "38.8977"
	in.Longitude = "-77.0365"

	rec, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	assert.Equal(t, 38.8977, rec.Latitude)
	assert.Equal(t, -77.0365, rec.Longitude)
}

func TestCreate_MissingFieldsRejected(t *testing.T) {
	repo := &mockSightingRepo{}
	svc := NewSightingService(repo, nil, testLogger())

	_, err := svc.Create(context.Background(), CreateInput{})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Create() error = %v, want validation error", err)
	}

	// The message must name what was missing, and nothing may be stored.
	var appErr *apperror.AppError
	if assert.ErrorAs(t, err, &appErr) {
		assert.Contains(t, appErr.Message, "Missing required fields")
	}
	assert.Empty(t, repo.records, "failed validation must not insert")
}

func TestCreate_OutOfRangeCoordinatesRejected(t *testing.T) {
	repo := &mockSightingRepo{}
	svc := NewSightingService(repo, nil, testLogger())

	in := validInput()
	in.Latitude = 90.5

	_, err := svc.Create(context.Background(), in)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Create() error = %v, want validation error", err)
	}
	assert.Empty(t, repo.records)
}

func TestCreate_NoDeduplication(t *testing.T) {
	repo := &mockSightingRepo{}
	svc := NewSightingService(repo, nil, testLogger())

	for i := 0; i < 2; i++ {
		if _, err := svc.Create(context.Background(), validInput()); err != nil {
			t.Fatalf("Create() #%d error = %v", i+1, err)
		}
	}
	assert.Len(t, repo.records, 2, "identical submissions are distinct sightings")
}

func TestCreate_RepoFailureIsUnavailable(t *testing.T) {
	repo := &mockSightingRepo{createErr: errors.New("disk full: /var/data/ghosts.db")}
	svc := NewSightingService(repo, nil, testLogger())

	_, err := svc.Create(context.Background(), validInput())
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Fatalf("Create() error = %v, want unavailable error", err)
	}

	// The caller-facing message is opaque; the cause stays in the logs.
	var appErr *apperror.AppError
	if assert.ErrorAs(t, err, &appErr) {
		assert.Equal(t, "Failed to add sighting to database", appErr.Message)
		assert.NotContains(t, appErr.Message, "disk full")
	}
}

func TestCreate_BroadcastsExactlyOnce(t *testing.T) {
	repo := &mockSightingRepo{}
	bc := &mockBroadcaster{}
	svc := NewSightingService(repo, bc, testLogger())

	rec, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if assert.Len(t, bc.events, 1) {
		assert.Equal(t, rec.ID, bc.events[0].ID, "the broadcast carries the stored record")
	}
}

func TestCreate_NoBroadcastOnFailure(t *testing.T) {
	bc := &mockBroadcaster{}

	// Validation failure: nothing stored, nothing broadcast.
	svc := NewSightingService(&mockSightingRepo{}, bc, testLogger())
	svc.Create(context.Background(), CreateInput{})
	assert.Empty(t, bc.events)

	// Storage failure: same.
	svc = NewSightingService(&mockSightingRepo{createErr: errors.New("down")}, bc, testLogger())
	svc.Create(context.Background(), validInput())
	assert.Empty(t, bc.events)
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestList_DefaultLimit(t *testing.T) {
	repo := &mockSightingRepo{}
	svc := NewSightingService(repo, nil, testLogger())

	if _, err := svc.List(context.Background(), 0, ""); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	assert.Equal(t, DefaultListLimit, repo.lastOpts.Limit)
}

func TestList_LimitClampedToMax(t *testing.T) {
	repo := &mockSightingRepo{}
	svc := NewSightingService(repo, nil, testLogger())

	if _, err := svc.List(context.Background(), 1_000_000, ""); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	assert.Equal(t, MaxListLimit, repo.lastOpts.Limit)
}

func TestList_StateFilterTrimmed(t *testing.T) {
	repo := &mockSightingRepo{}
	svc := NewSightingService(repo, nil, testLogger())

	if _, err := svc.List(context.Background(), 10, "  Texas "); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	assert.Equal(t, "Texas", repo.lastOpts.State)
}

func TestList_RepoFailureIsUnavailable(t *testing.T) {
	repo := &mockSightingRepo{listErr: errors.New("database is locked")}
	svc := NewSightingService(repo, nil, testLogger())

	_, err := svc.List(context.Background(), 10, "")
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Fatalf("List() error = %v, want unavailable error", err)
	}
	if strings.Contains(err.Error(), "status") {
		t.Error("service errors must not mention HTTP concepts")
	}
}

func TestListAll_NoLimit(t *testing.T) {
	repo := &mockSightingRepo{}
	svc := NewSightingService(repo, nil, testLogger())

	if _, err := svc.ListAll(context.Background()); err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	assert.Zero(t, repo.lastOpts.Limit, "ListAll must not cap the result")
	assert.Empty(t, repo.lastOpts.State)
}
