// Package geo validates sighting coordinates and required-field presence.
//
// This is the gate every write passes through before touching the
// database. The contract is deliberately strict:
//
//   - PURE: no I/O, no clock, no logger. Same input → same Result.
//   - TOTAL: never panics, never returns a Go error. Malformed input is a
//     validation outcome, not an exception.
//   - PRECISE: failures are enumerated per field with a machine-readable
//     reason (missing vs non-numeric vs out-of-range), so the caller can
//     render an exact message instead of a generic "bad request".
//
// The package has no dependencies beyond the standard library on purpose —
// it is equally usable from the HTTP handler, the service layer, and the
// CSV importer.
package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coordinate bounds in decimal degrees. Boundary values are valid:
// lat 90 is the North Pole, lng ±180 is the antimeridian.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Reasons attached to Issues. String constants (not iota) so they can go
// straight into JSON error details without a translation table.
const (
	ReasonMissing    = "missing"
	ReasonNotANumber = "not_a_number"
	ReasonOutOfRange = "out_of_range"
)

// Issue describes one failed constraint on one field.
type Issue struct {
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Result is the outcome of validating a candidate submission.
// When OK() is true, Latitude and Longitude hold the parsed values
// (callers should use these, not re-parse the raw input).
type Result struct {
	Latitude  float64
	Longitude float64
	Issues    []Issue
}

// OK reports whether the candidate passed every constraint.
func (r Result) OK() bool {
	return len(r.Issues) == 0
}

// Error summarises all issues as one human-readable string, with the
// missing fields listed by name. Suitable for the API "error" field.
func (r Result) Error() string {
	if r.OK() {
		return ""
	}
	var missing []string
	var other []string
	for _, is := range r.Issues {
		if is.Reason == ReasonMissing {
			missing = append(missing, is.Field)
		} else {
			other = append(other, is.Message)
		}
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "Missing required fields: "+strings.Join(missing, ", "))
	}
	parts = append(parts, other...)
	return strings.Join(parts, "; ")
}

// Validate checks a candidate submission: date_of_sighting must be
// present, and both coordinates must parse as finite numbers within
// range. lat and lng are `any` because the wire format accepts either
// JSON numbers or numeric strings — pass whatever the decoder produced
// (float64, string, json.Number, or nil when the key was absent).
func Validate(date string, lat, lng any) Result {
	var r Result

	if strings.TrimSpace(date) == "" {
		r.Issues = append(r.Issues, Issue{
			Field:   "date_of_sighting",
			Reason:  ReasonMissing,
			Message: "date_of_sighting is required",
		})
	}

	r.Latitude = checkCoordinate(&r, "latitude", lat, MinLatitude, MaxLatitude)
	r.Longitude = checkCoordinate(&r, "longitude", lng, MinLongitude, MaxLongitude)

	return r
}

// checkCoordinate appends at most one issue for the field and returns the
// parsed value (0 when invalid — callers must consult Issues first).
func checkCoordinate(r *Result, field string, raw any, min, max float64) float64 {
	v, ok := toFloat(raw)
	switch {
	case raw == nil:
		r.Issues = append(r.Issues, Issue{
			Field:   field,
			Reason:  ReasonMissing,
			Message: field + " is required",
		})
		return 0
	case !ok:
		r.Issues = append(r.Issues, Issue{
			Field:   field,
			Reason:  ReasonNotANumber,
			Message: "Invalid coordinates. Latitude and longitude must be numbers.",
		})
		return 0
	case v < min || v > max:
		r.Issues = append(r.Issues, Issue{
			Field:  field,
			Reason: ReasonOutOfRange,
			Message: fmt.Sprintf("%s must be between %g and %g (got %g)",
				field, min, max, v),
		})
		return 0
	}
	return v
}

// toFloat coerces the decoded JSON value to a finite float64.
// NaN and ±Inf are rejected: they parse as floats but are meaningless as
// coordinates and would corrupt the geospatial indexes.
func toFloat(raw any) (float64, bool) {
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
