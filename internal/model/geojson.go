package model

// GeoJSON types for the map's clustered point source.
//
// The mapping library consumes a FeatureCollection of Point features and
// does all clustering itself — the server's only job is to project
// sightings into this shape. We define just the subset of GeoJSON we
// emit (RFC 7946), not a general geometry model.
//
// NOTE ON COORDINATE ORDER:
// GeoJSON positions are [longitude, latitude] — the reverse of the
// conversational "lat, lng" order. Getting this backwards puts every
// marker in the wrong hemisphere, so PointFeature takes (lng, lat)
// explicitly.

// FeatureCollection is the root object handed to the map source.
type FeatureCollection struct {
	Type     string    `json:"type"` // always "FeatureCollection"
	Features []Feature `json:"features"`
}

// Feature is a single point with its display properties attached.
// Properties carry everything the popup needs so a click never has to
// make another round trip.
type Feature struct {
	Type       string          `json:"type"` // always "Feature"
	Properties DisplaySighting `json:"properties"`
	Geometry   PointGeometry   `json:"geometry"`
}

// PointGeometry is a GeoJSON Point: coordinates are [lng, lat].
type PointGeometry struct {
	Type        string     `json:"type"` // always "Point"
	Coordinates [2]float64 `json:"coordinates"`
}

// PointFeature builds a Feature from a display sighting.
func PointFeature(d DisplaySighting) Feature {
	return Feature{
		Type:       "Feature",
		Properties: d,
		Geometry: PointGeometry{
			Type:        "Point",
			Coordinates: [2]float64{d.Lng, d.Lat},
		},
	}
}

// ToFeatureCollection projects records into the map source shape.
// Pure function; Features is never nil so an empty set encodes as [].
func ToFeatureCollection(recs []SightingRecord) FeatureCollection {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, len(recs)),
	}
	for i := range recs {
		fc.Features = append(fc.Features, PointFeature(ToDisplay(&recs[i])))
	}
	return fc
}
