package service

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pracas_backend/internal/model"
	"pracas_backend/internal/repository"
	"pracas_backend/pkg/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	locationListKey = "pracas:cache:locations::0:0:0:any"
	locationTagKey  = "pracas:tag:location"
)

// writeShapefileZip zips a single square polygon as square.shp/.shx.
func writeShapefileZip(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	base := filepath.Join(dir, "square")

	w, err := shp.Create(base+".shp", shp.POLYGON)
	require.NoError(t, err)
	square := shp.Polygon(*shp.NewPolyLine([][]shp.Point{{{X: 0, Y: 0}, {X: 0, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 0}, {X: 0, Y: 0}}}))
	w.Write(&square)
	w.Close()

	zipPath := filepath.Join(dir, "square.zip")
	out, err := os.Create(zipPath)
	require.NoError(t, err)
	defer out.Close()
	zw := zip.NewWriter(out)
	for _, ext := range []string{".shp", ".shx"} {
		f, err := zw.Create("square" + ext)
		require.NoError(t, err)
		in, err := os.Open(base + ext)
		require.NoError(t, err)
		_, err = io.Copy(f, in)
		in.Close()
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return zipPath
}

func TestLocationListCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	spatial, err := database.NewSpatial("sqlite", 4326)
	require.NoError(t, err)
	repo := repository.NewLocationRepository(e.db, spatial)
	svc := NewLocationService(repo, nil, repository.NewCache(rdb, time.Minute))

	first, err := svc.List(ctx, e.admin, repository.LocationFilter{})
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.True(t, mr.Exists(locationListKey))

	// 绕过服务写入，缓存不会感知
	extra := model.Location{Name: "Praça Nova", FirstStreet: "Rua D"}
	require.NoError(t, repo.Save(&extra, repository.LocationRefs{}))
	cached, err := svc.List(ctx, e.admin, repository.LocationFilter{})
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	zipPath := writeShapefileZip(t)
	steps := []struct {
		name   string
		mutate func() error
	}{
		{"update", func() error {
			_, err := svc.Update(ctx, e.admin, extra.ID, LocationInput{Name: "Praça Nova", FirstStreet: "Rua E"})
			return err
		}},
		{"wkt polygon", func() error {
			_, err := svc.SetPolygonFromWKT(ctx, e.admin, extra.ID, "POLYGON((0 0, 0 1, 1 1, 1 0, 0 0))")
			return err
		}},
		{"shapefile polygon", func() error {
			_, err := svc.SetPolygonFromShapefile(ctx, e.admin, extra.ID, zipPath)
			return err
		}},
		{"clear polygon", func() error {
			return svc.ClearPolygon(ctx, e.admin, extra.ID)
		}},
		{"delete", func() error {
			return svc.Delete(ctx, e.admin, extra.ID)
		}},
	}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			_, err := svc.List(ctx, e.admin, repository.LocationFilter{})
			require.NoError(t, err)
			require.True(t, mr.Exists(locationListKey))

			require.NoError(t, step.mutate())
			assert.False(t, mr.Exists(locationListKey))
			assert.False(t, mr.Exists(locationTagKey))
		})
	}

	fresh, err := svc.List(ctx, e.admin, repository.LocationFilter{})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, e.location.ID, fresh[0].ID)
}
