package geometry

import (
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWKT(t *testing.T) {
	tests := []struct {
		name string
		geom orb.Geometry
		want string
	}{
		{"point", orb.Point{10, 20}, "POINT(10 20)"},
		{"fractional point", orb.Point{-46.6333, -23.55}, "POINT(-46.6333 -23.55)"},
		{"triangle", orb.Polygon{{{1, 2}, {3, 4}, {5, 6}}}, "POLYGON((1 2, 3 4, 5 6))"},
		{"polygon with hole", orb.Polygon{
			{{0, 0}, {10, 0}, {10, 10}, {0, 0}},
			{{1, 1}, {2, 1}, {2, 2}, {1, 1}},
		}, "POLYGON((0 0, 10 0, 10 10, 0 0), (1 1, 2 1, 2 2, 1 1))"},
		{"multipolygon", orb.MultiPolygon{
			{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
			{{{5, 5}, {6, 5}, {6, 6}, {5, 5}}},
		}, "MULTIPOLYGON(((0 0, 1 0, 1 1, 0 0)), ((5 5, 6 5, 6 6, 5 5)))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WKT(tt.geom))
		})
	}
}

func TestCollectionWKT(t *testing.T) {
	assert.Equal(t, "", CollectionWKT(nil))
	assert.Equal(t,
		"GEOMETRYCOLLECTION(POINT(10 20), POLYGON((1 2, 3 4, 5 6)))",
		CollectionWKT([]orb.Geometry{orb.Point{10, 20}, orb.Polygon{{{1, 2}, {3, 4}, {5, 6}}}}),
	)
}

func TestFromGeoJSON(t *testing.T) {
	t.Run("feature collection", func(t *testing.T) {
		raw := `{"type":"FeatureCollection","features":[
			{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[10,20]}},
			{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}
		]}`
		geoms, err := FromGeoJSON([]byte(raw))
		require.NoError(t, err)
		require.Len(t, geoms, 2)
		assert.Equal(t, orb.Point{10, 20}, geoms[0])
		assert.Equal(t, TypePolygon, TypeName(geoms[1]))
	})

	t.Run("geometry array", func(t *testing.T) {
		geoms, err := FromGeoJSON([]byte(`[{"type":"Point","coordinates":[1.5,2]}]`))
		require.NoError(t, err)
		assert.Equal(t, "GEOMETRYCOLLECTION(POINT(1.5 2))", CollectionWKT(geoms))
	})

	t.Run("single geometry", func(t *testing.T) {
		geoms, err := FromGeoJSON([]byte(`{"type":"Point","coordinates":[3,4]}`))
		require.NoError(t, err)
		assert.Equal(t, []orb.Geometry{orb.Point{3, 4}}, geoms)
	})

	t.Run("empty", func(t *testing.T) {
		for _, raw := range []string{"", "null", "[]", `{"type":"FeatureCollection","features":[]}`} {
			geoms, err := FromGeoJSON([]byte(raw))
			require.NoError(t, err, raw)
			assert.Empty(t, geoms, raw)
			assert.Equal(t, "", CollectionWKT(geoms))
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := FromGeoJSON([]byte(`[{"type":"LineString","coordinates":[[0,0],[1,1]]}]`))
		assert.ErrorIs(t, err, ErrUnsupportedGeometry)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := FromGeoJSON([]byte(`[{"type":"Point"`))
		assert.Error(t, err)
	})
}

func TestParsePolygonWKT(t *testing.T) {
	b, err := ParsePolygonWKT("POLYGON((0 0,0.001 0,0.001 0.001,0 0.001,0 0))")
	require.NoError(t, err)
	assert.Equal(t, "MULTIPOLYGON(((0 0, 0.001 0, 0.001 0.001, 0 0.001, 0 0)))", b.WKT)
	// roughly 111m x 111m at the equator
	assert.InDelta(t, 12364, b.Area, 200)

	_, err = ParsePolygonWKT("POINT(1 2)")
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)

	_, err = ParsePolygonWKT("POLYGON((0 0")
	assert.Error(t, err)
}

func TestAppendPartsOrientation(t *testing.T) {
	outer := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}
	hole := []shp.Point{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 4}, {X: 2, Y: 2}}
	second := []shp.Point{{X: 20, Y: 20}, {X: 20, Y: 30}, {X: 30, Y: 30}, {X: 30, Y: 20}, {X: 20, Y: 20}}

	points := append(append(append([]shp.Point{}, outer...), hole...), second...)
	mp := appendParts(nil, []int32{0, 5, 10}, points)

	require.Len(t, mp, 2)
	assert.Len(t, mp[0], 2)
	assert.Len(t, mp[1], 1)
	assert.Equal(t, orb.Point{20, 20}, mp[1][0][0])
}

func TestNewBoundaryEmpty(t *testing.T) {
	_, err := NewBoundary(nil)
	assert.ErrorIs(t, err, ErrNoPolygon)
}
