package database

import (
	"testing"

	"pracas_backend/internal/config"
	"pracas_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpatialDialects(t *testing.T) {
	keys := []string{"assessment_id", "question_id"}
	cols := []string{"geometry"}

	pg, err := NewSpatial("postgres", 0)
	require.NoError(t, err)
	assert.Equal(t, "ST_GeomFromText(?, 4326)", pg.FromText())
	assert.Equal(t, "geometry(Geometry,4326)", pg.ColumnType())
	assert.Equal(t, "ON CONFLICT (assessment_id, question_id) DO UPDATE SET geometry = EXCLUDED.geometry", pg.Upsert(keys, cols))

	my, err := NewSpatial("mysql", 4326)
	require.NoError(t, err)
	assert.Equal(t, "ON DUPLICATE KEY UPDATE geometry = VALUES(geometry)", my.Upsert(keys, cols))
	assert.Contains(t, my.FromText(), "axis-order=long-lat")

	lite, err := NewSpatial("sqlite", 4326)
	require.NoError(t, err)
	assert.Equal(t, "?", lite.FromText())
	assert.Equal(t, "geometry", lite.AsText("geometry"))

	_, err = NewSpatial("oracle", 4326)
	assert.Error(t, err)
}

func TestMigrateSQLite(t *testing.T) {
	db, err := InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	spatial, err := NewSpatial("sqlite", 4326)
	require.NoError(t, err)

	require.NoError(t, Migrate(db, spatial))
	// a second run must not try to add the geometry columns again
	require.NoError(t, Migrate(db, spatial))

	assert.True(t, db.Migrator().HasColumn(&model.Location{}, "polygon"))
	assert.True(t, db.Migrator().HasColumn(&model.QuestionGeometry{}, "geometry"))
	assert.True(t, db.Migrator().HasTable(&model.TallyPerson{}))
}
