// Package main is the CSV bulk importer for historical sighting data.
//
// The web form creates sightings one at a time; this tool loads a whole
// archive in one run:
//
//	go run ./cmd/import -csv sightings.csv -db ghost-atlas.db
//
// Rows that fail validation (missing date, unparseable or out-of-range
// coordinates) are dropped, never inserted — but every drop is counted
// by reason and reported at the end, so a dirty file is visible instead
// of silently shrinking. The invariant the summary must satisfy:
//
//	inserted + dropped == data rows in the file (total minus header)
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sakif/ghost-atlas/internal/geo"
	"github.com/sakif/ghost-atlas/internal/model"
	sqliteRepo "github.com/sakif/ghost-atlas/internal/repository/sqlite"
)

// expectedColumns maps the CSV's human-facing headers to record fields.
// Column order in the file doesn't matter; the header row does.
var expectedColumns = []string{
	"Date of Sighting",
	"Latitude of Sighting",
	"Longitude of Sighting",
	"Nearest Approximate City",
	"US State",
	"Notes about the sighting",
	"Time of Day",
	"Tag of Apparition",
	"Image Link",
}

// dropReason buckets for the import summary.
const (
	dropMissingDate    = "missing date"
	dropBadCoordinates = "unparseable coordinates"
	dropOutOfRange     = "coordinates out of range"
	dropMalformedRow   = "malformed row"
)

func main() {
	csvPath := flag.String("csv", "", "path to the sightings CSV file (required)")
	dbPath := flag.String("db", "ghost-atlas.db", "path to the SQLite database")
	batchSize := flag.Int("batch", 1000, "rows per insert transaction")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if *csvPath == "" {
		fmt.Fprintln(os.Stderr, "usage: import -csv <file> [-db <path>] [-batch <n>]")
		os.Exit(2)
	}
	if *batchSize <= 0 {
		logger.Error("batch size must be positive", slog.Int("batch", *batchSize))
		os.Exit(2)
	}

	if err := run(*csvPath, *dbPath, *batchSize, logger); err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(csvPath, dbPath string, batchSize int, logger *slog.Logger) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("opening CSV: %w", err)
	}
	defer f.Close()

	db, err := sqliteRepo.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	reader := csv.NewReader(f)
	// Archive exports are ragged — let the validation decide per row
	// instead of failing the whole file on a short record.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("reading CSV header: %w", err)
	}
	col, err := columnIndex(header)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var (
		batch    []model.SightingRecord
		rows     int
		inserted int
		dropped  = make(map[string]int)
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := db.CreateBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("inserting batch: %w", err)
		}
		inserted += n
		logger.Info("batch inserted", slog.Int("rows", n), slog.Int("total", inserted))
		batch = batch[:0]
		return nil
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A row the CSV parser itself rejects (bad quoting etc.)
			// counts as dropped, same as a validation failure.
			rows++
			dropped[dropMalformedRow]++
			continue
		}
		rows++

		rec, reason := parseRow(row, col)
		if reason != "" {
			dropped[reason]++
			continue
		}

		batch = append(batch, *rec)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	totalDropped := 0
	for _, n := range dropped {
		totalDropped += n
	}

	logger.Info("import complete",
		slog.Int("rows", rows),
		slog.Int("inserted", inserted),
		slog.Int("dropped", totalDropped),
	)
	for reason, n := range dropped {
		logger.Warn("dropped rows", slog.String("reason", reason), slog.Int("count", n))
	}

	if inserted+totalDropped != rows {
		return fmt.Errorf("accounting mismatch: %d inserted + %d dropped != %d rows", inserted, totalDropped, rows)
	}
	return nil
}

// columnIndex resolves each expected header to its position in the file.
func columnIndex(header []string) (map[string]int, error) {
	col := make(map[string]int, len(expectedColumns))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range expectedColumns[:3] { // the required trio
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("CSV is missing required column %q", name)
		}
	}
	return col, nil
}

// parseRow validates one CSV row and builds a record from it.
// Returns a drop reason instead of an error — the importer never stops
// over a single bad row.
func parseRow(row []string, col map[string]int) (*model.SightingRecord, string) {
	field := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	date := field("Date of Sighting")
	if date == "" {
		return nil, dropMissingDate
	}

	r := geo.Validate(date, field("Latitude of Sighting"), field("Longitude of Sighting"))
	if !r.OK() {
		for _, issue := range r.Issues {
			if issue.Reason == geo.ReasonOutOfRange {
				return nil, dropOutOfRange
			}
		}
		return nil, dropBadCoordinates
	}

	return &model.SightingRecord{
		DateOfSighting: date,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		City:           optional(field("Nearest Approximate City")),
		State:          optional(field("US State")),
		Notes:          optional(field("Notes about the sighting")),
		TimeOfDay:      optional(field("Time of Day")),
		ApparitionTag:  optional(field("Tag of Apparition")),
		ImageLink:      optional(field("Image Link")),
	}, ""
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
