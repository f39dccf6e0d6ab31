package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geo"
)

var ErrNoPolygon = errors.New("no polygon found")

// Boundary is a location polygon ready to be stored.
type Boundary struct {
	Shape orb.MultiPolygon
	WKT   string
	// Area in square meters.
	Area float64
}

func NewBoundary(mp orb.MultiPolygon) (*Boundary, error) {
	if len(mp) == 0 {
		return nil, ErrNoPolygon
	}
	return &Boundary{
		Shape: mp,
		WKT:   WKT(mp),
		Area:  math.Abs(geo.Area(mp)),
	}, nil
}

// ReadShapefileZip reads every polygon record of a zipped shapefile into one
// multipolygon. Clockwise parts start a new polygon, counter-clockwise parts
// are holes of the polygon before them.
func ReadShapefileZip(path string) (*Boundary, error) {
	r, err := shp.OpenZip(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	var mp orb.MultiPolygon
	for r.Next() {
		_, shape := r.Shape()
		switch s := shape.(type) {
		case *shp.Polygon:
			mp = appendParts(mp, s.Parts, s.Points)
		case *shp.PolygonZ:
			mp = appendParts(mp, s.Parts, s.Points)
		case *shp.PolygonM:
			mp = appendParts(mp, s.Parts, s.Points)
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile: %w", err)
	}
	return NewBoundary(mp)
}

func appendParts(mp orb.MultiPolygon, parts []int32, points []shp.Point) orb.MultiPolygon {
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || int(end) > len(points) {
			continue
		}
		ring := make(orb.Ring, 0, end-start)
		for _, p := range points[start:end] {
			ring = append(ring, orb.Point{p.X, p.Y})
		}
		if ring.Orientation() == orb.CCW && len(mp) > 0 {
			last := len(mp) - 1
			mp[last] = append(mp[last], ring)
			continue
		}
		mp = append(mp, orb.Polygon{ring})
	}
	return mp
}

// ParsePolygonWKT accepts a POLYGON or MULTIPOLYGON in WKT.
func ParsePolygonWKT(s string) (*Boundary, error) {
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("parse wkt: %w", err)
	}
	switch v := g.(type) {
	case orb.Polygon:
		return NewBoundary(orb.MultiPolygon{v})
	case orb.MultiPolygon:
		return NewBoundary(v)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
}
