// Package geometry converts client GeoJSON, zipped shapefiles and WKT input
// into the WKT strings stored in the spatial columns.
package geometry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var (
	ErrUnsupportedGeometry = errors.New("unsupported geometry type")
	ErrEmptyGeometry       = errors.New("empty geometry")
)

const (
	TypePoint   = "POINT"
	TypePolygon = "POLYGON"
)

// FromGeoJSON parses the geometries drawn for one question. raw may be a
// FeatureCollection, a Feature, a single geometry object or a JSON array of
// geometry objects. Only points and polygons are accepted. null or an empty
// array yields no geometries.
func FromGeoJSON(raw []byte) ([]orb.Geometry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var geoms []orb.Geometry
	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode geometry list: %w", err)
		}
		for i, item := range items {
			g, err := geojson.UnmarshalGeometry(item)
			if err != nil {
				return nil, fmt.Errorf("geometry %d: %w", i, err)
			}
			geoms = append(geoms, g.Geometry())
		}
	} else {
		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, fmt.Errorf("decode geojson: %w", err)
		}
		switch probe.Type {
		case "FeatureCollection":
			fc, err := geojson.UnmarshalFeatureCollection(raw)
			if err != nil {
				return nil, fmt.Errorf("decode feature collection: %w", err)
			}
			for _, f := range fc.Features {
				geoms = append(geoms, f.Geometry)
			}
		case "Feature":
			f, err := geojson.UnmarshalFeature(raw)
			if err != nil {
				return nil, fmt.Errorf("decode feature: %w", err)
			}
			geoms = append(geoms, f.Geometry)
		default:
			g, err := geojson.UnmarshalGeometry(raw)
			if err != nil {
				return nil, fmt.Errorf("decode geometry: %w", err)
			}
			geoms = append(geoms, g.Geometry())
		}
	}

	for i, g := range geoms {
		if err := validate(g); err != nil {
			return nil, fmt.Errorf("geometry %d: %w", i, err)
		}
	}
	return geoms, nil
}

func validate(g orb.Geometry) error {
	switch v := g.(type) {
	case orb.Point:
		return nil
	case orb.Polygon:
		if len(v) == 0 {
			return ErrEmptyGeometry
		}
		for _, ring := range v {
			if len(ring) == 0 {
				return ErrEmptyGeometry
			}
		}
		return nil
	case nil:
		return ErrEmptyGeometry
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
}

// TypeName returns POINT or POLYGON for the geometries FromGeoJSON accepts.
func TypeName(g orb.Geometry) string {
	switch g.(type) {
	case orb.Point:
		return TypePoint
	case orb.Polygon, orb.MultiPolygon:
		return TypePolygon
	}
	return strings.ToUpper(g.GeoJSONType())
}

// CollectionWKT renders geoms as one GEOMETRYCOLLECTION. An empty list
// renders as the empty string, which writers store as NULL.
func CollectionWKT(geoms []orb.Geometry) string {
	if len(geoms) == 0 {
		return ""
	}
	parts := make([]string, 0, len(geoms))
	for _, g := range geoms {
		parts = append(parts, WKT(g))
	}
	return "GEOMETRYCOLLECTION(" + strings.Join(parts, ", ") + ")"
}

// WKT renders a point, polygon or multipolygon with ", " separators and
// coordinates in shortest decimal form.
func WKT(g orb.Geometry) string {
	var b strings.Builder
	switch v := g.(type) {
	case orb.Point:
		b.WriteString("POINT(")
		writePoint(&b, v)
		b.WriteByte(')')
	case orb.Polygon:
		b.WriteString("POLYGON")
		writePolygon(&b, v)
	case orb.MultiPolygon:
		b.WriteString("MULTIPOLYGON(")
		for i, p := range v {
			if i > 0 {
				b.WriteString(", ")
			}
			writePolygon(&b, p)
		}
		b.WriteByte(')')
	}
	return b.String()
}

func writePolygon(b *strings.Builder, p orb.Polygon) {
	b.WriteString("((")
	for i, ring := range p {
		if i > 0 {
			b.WriteString("), (")
		}
		for j, pt := range ring {
			if j > 0 {
				b.WriteString(", ")
			}
			writePoint(b, pt)
		}
	}
	b.WriteString("))")
}

func writePoint(b *strings.Builder, p orb.Point) {
	b.WriteString(strconv.FormatFloat(p.Lon(), 'f', -1, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(p.Lat(), 'f', -1, 64))
}
