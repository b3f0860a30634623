package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/ghost-atlas/internal/model"
)

// Stats is the aggregate panel shown above the map.
type Stats struct {
	TotalCount         int    `json:"totalCount"`
	MostRecentSighting string `json:"mostRecentSighting"` // bucketed label, e.g. "3 Days Ago"
	MostGhostlyCity    string `json:"mostGhostlyCity"`    // most frequent location string
}

// Stats derives both aggregates in a single linear scan over the
// date-descending list. The list comes back ordered, so the first row is
// the most recent sighting; the location frequency count runs over the
// same pass. Ties for most frequent location resolve to the location
// encountered first during the scan (strictly-greater comparison).
func (s *SightingService) Stats(ctx context.Context) (*Stats, error) {
	recs, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{
		TotalCount:         len(recs),
		MostRecentSighting: "Unknown",
		MostGhostlyCity:    "Unknown",
	}
	if len(recs) == 0 {
		return st, nil
	}

	st.MostRecentSighting = timeAgo(recs[0].DateOfSighting, s.now())

	counts := make(map[string]int)
	best, bestCount := "", 0
	for i := range recs {
		loc := model.ToDisplay(&recs[i]).Location
		if loc == model.UnknownLocation {
			continue
		}
		counts[loc]++
		// Strictly greater: on a tie the earlier-seen location keeps the title.
		if counts[loc] > bestCount {
			best, bestCount = loc, counts[loc]
		}
	}
	if best != "" {
		st.MostGhostlyCity = best
	}

	return st, nil
}

// timeAgo buckets a sighting date relative to now:
// "Today", "1 Day Ago", "N Days Ago" (under a month),
// "N Months Ago" (under a year), then "N Years Ago".
// Unparseable dates bucket to "Unknown" — the importer's historical data
// is not guaranteed clean.
func timeAgo(date string, now time.Time) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "Unknown"
	}

	days := int(now.Sub(d).Hours() / 24)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "1 Day Ago"
	case days < 30:
		return fmt.Sprintf("%d Days Ago", days)
	case days < 365:
		months := days / 30
		if months == 1 {
			return "1 Month Ago"
		}
		return fmt.Sprintf("%d Months Ago", months)
	default:
		years := days / 365
		if years == 1 {
			return "1 Year Ago"
		}
		return fmt.Sprintf("%d Years Ago", years)
	}
}
